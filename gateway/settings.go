package gateway

import (
	"github.com/goliatone/go-account-settings/layering"
	"github.com/goliatone/go-account-settings/translate"
)

// Settings is the result of FetchAllSettings.
type Settings struct {
	// Values holds the account fields layered under the preference fields.
	Values             translate.Unified
	AuthProviders      []translate.AuthProvider
	ProfileDataManager *string
	TimeZones          []translate.TimeZone

	merged layering.Merged[translate.Unified]
}

// Unified flattens the settings into a single unified object, adding the
// provider list, profile data manager and time zone list under their
// reserved keys.
func (s *Settings) Unified() translate.Unified {
	if s == nil {
		return translate.Unified{}
	}
	out := s.Values.Clone()
	if out == nil {
		out = translate.Unified{}
	}

	providers := make([]translate.AuthProvider, len(s.AuthProviders))
	copy(providers, s.AuthProviders)
	out[translate.FieldThirdPartyAuthProviders] = providers

	if s.ProfileDataManager != nil {
		out[translate.FieldProfileDataManager] = *s.ProfileDataManager
	} else {
		out[translate.FieldProfileDataManager] = nil
	}

	zones := make([]translate.TimeZone, len(s.TimeZones))
	copy(zones, s.TimeZones)
	out[translate.FieldTimeZones] = zones

	return out
}

// Trace reports which resources define field, strongest first.
func (s *Settings) Trace(field string) layering.Trace {
	if s == nil {
		return layering.Trace{Path: field}
	}
	return s.merged.Trace(field)
}

// Source names the resource the merged value of field came from.
func (s *Settings) Source(field string) (string, bool) {
	if s == nil {
		return "", false
	}
	return s.merged.Source(field)
}
