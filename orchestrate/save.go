package orchestrate

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/goliatone/go-account-settings/gateway"
	"github.com/goliatone/go-account-settings/internal/logging"
	"github.com/goliatone/go-account-settings/pkg/activity"
	"github.com/goliatone/go-account-settings/pkg/apierror"
	"github.com/goliatone/go-account-settings/pkg/state"
	"github.com/goliatone/go-account-settings/pkg/state/sitelanguage"
	"github.com/goliatone/go-account-settings/translate"
)

// ErrDemographicsDisabled is returned when a demographics form is saved
// without a demographics resource.
var ErrDemographicsDisabled = errors.New("orchestrate: demographics collection disabled")

type saver struct {
	fetcher
	inFlight atomic.Bool
}

// save commits one form. Field level rejections are recorded in the store
// and are not returned; every other failure resets the save status and is
// returned.
func (s *saver) save(ctx context.Context, msg SaveSettings) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrSaveInFlight
	}
	defer s.inFlight.Store(false)

	logger := logging.FromContext(ctx, s.logger())
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}

	snapshot := s.Store.Snapshot()
	if err := s.checkEditable(ctx, msg.Values, RuleValues(snapshot)); err != nil {
		return err
	}

	s.Store.Dispatch(state.SaveBegin{})
	committed, err := s.commit(ctx, user, msg, snapshot)
	if err != nil {
		if fields := apierror.FieldErrorsOf(err); len(fields) > 0 {
			logger.Warn("orchestrate.save.rejected", "form", msg.FormID, "fields", fields.Fields())
			s.Store.Dispatch(state.SaveFailure{FieldErrors: fields})
			return nil
		}
		logger.Error("orchestrate.save.failed", "form", msg.FormID, "kind", apierror.KindOf(err), "error", err)
		s.Store.Dispatch(state.SaveReset{})
		return err
	}

	s.Store.Dispatch(state.SaveSuccess{Values: committed, ConfirmationValues: msg.Values})
	if country := stringValue(msg.Values, translate.FieldCountry); country != "" {
		s.loadCountryTimeZones(ctx, country)
	}
	s.Store.Dispatch(state.CloseField{ID: msg.FormID})

	s.emit(ctx, activity.BuildSettingsSavedEvent, user, activity.SettingsEventInput{
		FormID: msg.FormID,
		Fields: msg.Values.Keys(),
	})
	return nil
}

// RuleValues returns the values field rules are evaluated against: the
// settings values plus the profile data manager, nil when there is none.
func RuleValues(snapshot state.State) translate.Unified {
	values := snapshot.Values.Clone()
	if values == nil {
		values = translate.Unified{}
	}
	if snapshot.ProfileDataManager != nil {
		values[translate.FieldProfileDataManager] = *snapshot.ProfileDataManager
	} else {
		values[translate.FieldProfileDataManager] = nil
	}
	return values
}

func (s *saver) checkEditable(ctx context.Context, changed, current translate.Unified) error {
	if s.Rules == nil {
		return nil
	}
	for _, field := range changed.Keys() {
		ok, err := s.Rules.Editable(ctx, field, current)
		if err != nil {
			return err
		}
		if !ok {
			return readOnlyError(field)
		}
	}
	return nil
}

func (s *saver) commit(ctx context.Context, user User, msg SaveSettings, snapshot state.State) (translate.Unified, error) {
	switch {
	case isDemographicsForm(msg.FormID):
		if s.Demographics == nil {
			return nil, ErrDemographicsDisabled
		}
		return s.Demographics.Update(ctx, user.UserID, msg.Values)
	case msg.FormID == FormSiteLanguage:
		return s.commitSiteLanguage(ctx, user, msg.Values, snapshot)
	default:
		return s.Gateway.SaveSettings(ctx, user.Username, msg.Values)
	}
}

// commitSiteLanguage records the language in effect before switching so the
// host can tell whether a reload is needed.
func (s *saver) commitSiteLanguage(ctx context.Context, user User, values translate.Unified, snapshot state.State) (translate.Unified, error) {
	code := stringValue(values, FormSiteLanguage)
	if code == "" {
		return nil, apierror.New(apierror.KindValidation, 0, "site language is required", nil).
			WithFieldErrors(apierror.FieldErrors{FormSiteLanguage: {"A language is required."}})
	}

	previous := stringValue(snapshot.Values, gateway.PreferenceSiteLanguage)
	s.Store.Dispatch(sitelanguage.SavePrevious{Code: previous})

	if err := s.Gateway.SetSiteLanguage(ctx, user.Username, code); err != nil {
		return nil, err
	}
	s.emit(ctx, activity.BuildSiteLanguageChangedEvent, user, activity.SettingsEventInput{
		Metadata: map[string]any{"previous": previous, "code": code},
	})
	return translate.Unified{gateway.PreferenceSiteLanguage: code}, nil
}

func (s *saver) changeSiteLanguage(ctx context.Context, msg ChangeSiteLanguage) error {
	return s.save(ctx, SaveSettings{
		FormID: FormSiteLanguage,
		Values: translate.Unified{FormSiteLanguage: msg.Code},
	})
}

func asAPIError(err error) (*apierror.Error, bool) {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
