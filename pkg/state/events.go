package state

import (
	"github.com/goliatone/go-account-settings/pkg/apierror"
	"github.com/goliatone/go-account-settings/translate"
)

// Event is a state transition request. Sub-flow events are defined in the
// sub-flow packages.
type Event interface {
	Type() string
}

// FetchBegin marks the settings fetch as started.
type FetchBegin struct{}

// FetchSuccess carries the fetched settings.
type FetchSuccess struct {
	Values             translate.Unified
	AuthProviders      []translate.AuthProvider
	ProfileDataManager *string
	TimeZones          []translate.TimeZone
}

// FetchFailure records a failed fetch.
type FetchFailure struct {
	Message string
}

// FetchReset returns the load status to idle.
type FetchReset struct{}

// OpenField puts a field or form in edit mode.
type OpenField struct {
	ID string
}

// CloseField leaves edit mode when ID is still the open field.
type CloseField struct {
	ID string
}

// UpdateDraft records an unsaved edit.
type UpdateDraft struct {
	Name  string
	Value any
}

// ResetDrafts drops all unsaved edits.
type ResetDrafts struct{}

// SaveBegin marks a save as in flight.
type SaveBegin struct{}

// SaveSuccess carries the committed values.
type SaveSuccess struct {
	Values             translate.Unified
	ConfirmationValues translate.Unified
}

// SaveFailure carries the field errors of a rejected save.
type SaveFailure struct {
	FieldErrors apierror.FieldErrors
}

// SaveReset dismisses the save result.
type SaveReset struct{}

// CountryTimeZonesLoaded stores the time zones for the selected country.
type CountryTimeZonesLoaded struct {
	TimeZones []translate.TimeZone
}

// DisconnectBegin marks a provider disconnect as in flight.
type DisconnectBegin struct {
	ProviderID string
}

// DisconnectSuccess stores the refreshed provider list.
type DisconnectSuccess struct {
	ProviderID    string
	AuthProviders []translate.AuthProvider
}

// DisconnectFailure records a failed provider disconnect.
type DisconnectFailure struct {
	ProviderID string
	Message    string
}

// DisconnectReset clears the disconnect status and error of one provider.
type DisconnectReset struct {
	ProviderID string
}

func (FetchBegin) Type() string             { return "settings/fetch.begin" }
func (FetchSuccess) Type() string           { return "settings/fetch.success" }
func (FetchFailure) Type() string           { return "settings/fetch.failure" }
func (FetchReset) Type() string             { return "settings/fetch.reset" }
func (OpenField) Type() string              { return "settings/field.open" }
func (CloseField) Type() string             { return "settings/field.close" }
func (UpdateDraft) Type() string            { return "settings/draft.update" }
func (ResetDrafts) Type() string            { return "settings/draft.reset" }
func (SaveBegin) Type() string              { return "settings/save.begin" }
func (SaveSuccess) Type() string            { return "settings/save.success" }
func (SaveFailure) Type() string            { return "settings/save.failure" }
func (SaveReset) Type() string              { return "settings/save.reset" }
func (CountryTimeZonesLoaded) Type() string { return "settings/time_zones.loaded" }
func (DisconnectBegin) Type() string        { return "settings/disconnect.begin" }
func (DisconnectSuccess) Type() string      { return "settings/disconnect.success" }
func (DisconnectFailure) Type() string      { return "settings/disconnect.failure" }
func (DisconnectReset) Type() string        { return "settings/disconnect.reset" }
