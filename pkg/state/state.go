package state

import (
	"github.com/goliatone/go-account-settings/layering"
	"github.com/goliatone/go-account-settings/pkg/state/deleteaccount"
	"github.com/goliatone/go-account-settings/pkg/state/resetpassword"
	"github.com/goliatone/go-account-settings/pkg/state/sitelanguage"
	"github.com/goliatone/go-account-settings/translate"
)

// LoadStatus tracks the initial settings fetch.
type LoadStatus string

const (
	LoadIdle    LoadStatus = "idle"
	LoadLoading LoadStatus = "loading"
	LoadLoaded  LoadStatus = "loaded"
	LoadError   LoadStatus = "error"
)

// Status tracks a save or a provider disconnect.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusPending  Status = "pending"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// State is the single settings state object.
type State struct {
	LoadStatus LoadStatus `json:"load_status"`
	LoadError  string     `json:"load_error,omitempty"`

	// Values are the last known good server values.
	Values translate.Unified `json:"values"`
	// Drafts are unsaved edits keyed by field name.
	Drafts translate.Unified `json:"drafts"`
	// OpenFieldID is the field or form in edit mode, empty when none is open.
	OpenFieldID string `json:"open_field_id,omitempty"`

	SaveStatus Status            `json:"save_status"`
	Errors     map[string]string `json:"errors"`
	// ConfirmationValues hold values awaiting confirmation, such as a new
	// email address, apart from the committed Values.
	ConfirmationValues translate.Unified `json:"confirmation_values"`

	AuthProviders      []translate.AuthProvider `json:"auth_providers"`
	ProfileDataManager *string                  `json:"profile_data_manager"`
	DisconnectingState map[string]Status        `json:"disconnecting_state"`
	DisconnectErrors   map[string]string        `json:"disconnect_errors"`

	DeleteAccount deleteaccount.State `json:"delete_account"`
	ResetPassword resetpassword.State `json:"reset_password"`
	SiteLanguage  sitelanguage.State  `json:"site_language"`

	TimeZones        []translate.TimeZone `json:"time_zones"`
	CountryTimeZones []translate.TimeZone `json:"country_time_zones"`
}

// New returns the all-default state used at start up.
func New() State {
	return State{
		LoadStatus:         LoadIdle,
		Values:             translate.Unified{},
		Drafts:             translate.Unified{},
		SaveStatus:         StatusIdle,
		Errors:             map[string]string{},
		ConfirmationValues: translate.Unified{},
		AuthProviders:      []translate.AuthProvider{},
		DisconnectingState: map[string]Status{},
		DisconnectErrors:   map[string]string{},
		DeleteAccount:      deleteaccount.New(),
		ResetPassword:      resetpassword.New(),
		SiteLanguage:       sitelanguage.New(),
		TimeZones:          []translate.TimeZone{},
		CountryTimeZones:   []translate.TimeZone{},
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	return layering.Clone(s)
}

// Value returns the draft for field when one exists, otherwise the committed
// value.
func (s State) Value(field string) any {
	if v, ok := s.Drafts[field]; ok {
		return v
	}
	return s.Values[field]
}

// IsOpen reports whether id is the field currently in edit mode.
func (s State) IsOpen(id string) bool {
	return id != "" && s.OpenFieldID == id
}

// DisconnectStatus returns the disconnect status for provider, idle when the
// provider has no entry.
func (s State) DisconnectStatus(providerID string) Status {
	if status, ok := s.DisconnectingState[providerID]; ok {
		return status
	}
	return StatusIdle
}
