package state

import (
	"github.com/goliatone/go-account-settings/pkg/state/deleteaccount"
	"github.com/goliatone/go-account-settings/pkg/state/resetpassword"
	"github.com/goliatone/go-account-settings/pkg/state/sitelanguage"
	"github.com/goliatone/go-account-settings/translate"
)

// Reduce computes the state that follows s after evt. It never mutates s;
// every map it changes is copied first. Unknown events return s unchanged.
func Reduce(s State, evt Event) State {
	switch e := evt.(type) {
	case FetchBegin:
		s.LoadStatus = LoadLoading
		s.LoadError = ""
		return s
	case FetchSuccess:
		s.LoadStatus = LoadLoaded
		s.LoadError = ""
		s.Values = mergeUnified(s.Values, e.Values)
		s.AuthProviders = copyProviders(e.AuthProviders)
		s.ProfileDataManager = copyString(e.ProfileDataManager)
		s.TimeZones = copyZones(e.TimeZones)
		return s
	case FetchFailure:
		s.LoadStatus = LoadError
		s.LoadError = e.Message
		return s
	case FetchReset:
		s.LoadStatus = LoadIdle
		s.LoadError = ""
		return s

	case OpenField:
		s.OpenFieldID = e.ID
		return clearEditing(s)
	case CloseField:
		if e.ID == "" || e.ID != s.OpenFieldID {
			return s
		}
		s.OpenFieldID = ""
		return clearEditing(s)
	case UpdateDraft:
		s.Drafts = mergeUnified(s.Drafts, translate.Unified{e.Name: e.Value})
		s.SaveStatus = StatusIdle
		s.Errors = map[string]string{}
		return s
	case ResetDrafts:
		s.Drafts = translate.Unified{}
		return s

	case SaveBegin:
		s.SaveStatus = StatusPending
		s.Errors = map[string]string{}
		return s
	case SaveSuccess:
		s.SaveStatus = StatusComplete
		s.Values = mergeUnified(s.Values, e.Values)
		s.ConfirmationValues = mergeUnified(s.ConfirmationValues, e.ConfirmationValues)
		s.Errors = map[string]string{}
		return s
	case SaveFailure:
		s.SaveStatus = StatusError
		errs := copyStrings(s.Errors)
		for field, messages := range e.FieldErrors.Messages() {
			errs[field] = messages
		}
		s.Errors = errs
		return s
	case SaveReset:
		s.SaveStatus = StatusIdle
		s.Errors = map[string]string{}
		return s

	case CountryTimeZonesLoaded:
		s.CountryTimeZones = copyZones(e.TimeZones)
		return s

	case DisconnectBegin:
		s.DisconnectingState = withStatus(s.DisconnectingState, e.ProviderID, StatusPending)
		return s
	case DisconnectSuccess:
		s.DisconnectingState = withStatus(s.DisconnectingState, e.ProviderID, StatusComplete)
		s.AuthProviders = copyProviders(e.AuthProviders)
		return s
	case DisconnectFailure:
		s.DisconnectingState = withStatus(s.DisconnectingState, e.ProviderID, StatusError)
		errs := copyStrings(s.DisconnectErrors)
		errs[e.ProviderID] = e.Message
		s.DisconnectErrors = errs
		return s
	case DisconnectReset:
		states := make(map[string]Status, len(s.DisconnectingState))
		for id, status := range s.DisconnectingState {
			if id != e.ProviderID {
				states[id] = status
			}
		}
		errs := copyStrings(s.DisconnectErrors)
		delete(errs, e.ProviderID)
		s.DisconnectingState = states
		s.DisconnectErrors = errs
		return s
	}

	return delegate(s, evt)
}

// delegate forwards sub-flow events and replaces only the matching slice.
func delegate(s State, evt Event) State {
	switch e := evt.(type) {
	case deleteaccount.Event:
		s.DeleteAccount = deleteaccount.Reduce(s.DeleteAccount, e)
	case resetpassword.Event:
		s.ResetPassword = resetpassword.Reduce(s.ResetPassword, e)
	case sitelanguage.Event:
		s.SiteLanguage = sitelanguage.Reduce(s.SiteLanguage, e)
	}
	return s
}

func clearEditing(s State) State {
	s.SaveStatus = StatusIdle
	s.Errors = map[string]string{}
	s.Drafts = translate.Unified{}
	return s
}

func mergeUnified(base, patch translate.Unified) translate.Unified {
	out := make(translate.Unified, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch.Clone() {
		out[k] = v
	}
	return out
}

func withStatus(in map[string]Status, id string, status Status) map[string]Status {
	out := make(map[string]Status, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	out[id] = status
	return out
}

func copyStrings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyProviders(in []translate.AuthProvider) []translate.AuthProvider {
	out := make([]translate.AuthProvider, len(in))
	copy(out, in)
	return out
}

func copyZones(in []translate.TimeZone) []translate.TimeZone {
	out := make([]translate.TimeZone, len(in))
	copy(out, in)
	return out
}

func copyString(in *string) *string {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
