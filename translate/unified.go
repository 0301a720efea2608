// Package translate converts between the unified settings shape used by the
// state store and the wire shapes of the account, preferences and
// demographics resources.
package translate

import (
	"sort"

	"github.com/goliatone/go-account-settings/layering"
)

// Unified maps a settings field name to its value: a string, a number, a list
// or nil.
type Unified map[string]any

// Well-known unified fields.
const (
	FieldUsername                = "username"
	FieldName                    = "name"
	FieldEmail                   = "email"
	FieldTimeZone                = "time_zone"
	FieldCountry                 = "country"
	FieldSocialLinks             = "social_links"
	FieldLanguageProficiencies   = "language_proficiencies"
	FieldYearOfBirth             = "year_of_birth"
	FieldThirdPartyAuthProviders = "thirdPartyAuthProviders"
	FieldProfileDataManager      = "profileDataManager"
	FieldTimeZones               = "timeZones"
)

// Clone returns a deep copy of u.
func (u Unified) Clone() Unified {
	if u == nil {
		return nil
	}
	return layering.Clone(u)
}

// Keys returns the field names in sorted order.
func (u Unified) Keys() []string {
	keys := make([]string, 0, len(u))
	for key := range u {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether field is present, even when its value is nil.
func (u Unified) Has(field string) bool {
	_, ok := u[field]
	return ok
}

// Pick returns a copy holding only fields present in u.
func (u Unified) Pick(fields ...string) Unified {
	out := Unified{}
	for _, field := range fields {
		if value, ok := u[field]; ok {
			out[field] = layering.Clone(value)
		}
	}
	return out
}

// Omit returns a copy without fields.
func (u Unified) Omit(fields ...string) Unified {
	skip := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		skip[field] = struct{}{}
	}
	out := Unified{}
	for key, value := range u {
		if _, ok := skip[key]; ok {
			continue
		}
		out[key] = layering.Clone(value)
	}
	return out
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = layering.Clone(value)
	}
	return out
}
