package orchestrate

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/goliatone/go-account-settings/translate"
)

// Form identifiers with dedicated save routes.
const (
	// FormSiteLanguage saves the interface language.
	FormSiteLanguage = "siteLanguage"
	// FormDemographicsPrefix marks forms saved to the demographics resource.
	FormDemographicsPrefix = "demographics"
)

const (
	fetchSettingsType        = "settings.fetch"
	saveSettingsType         = "settings.save"
	fetchTimeZonesType       = "settings.time_zones.fetch"
	fetchSiteLanguagesType   = "settings.site_languages.fetch"
	changeSiteLanguageType   = "settings.site_language.change"
	disconnectAuthType       = "settings.auth.disconnect"
	confirmDeleteAccountType = "settings.account.delete.confirm"
	cancelDeleteAccountType  = "settings.account.delete.cancel"
	deleteAccountType        = "settings.account.delete"
	resetPasswordType        = "settings.password.reset"
)

// FetchSettings loads every settings resource for the signed-in user.
type FetchSettings struct{}

// Type implements command.Message.
func (FetchSettings) Type() string { return fetchSettingsType }

func (FetchSettings) Validate() error { return nil }

// SaveSettings commits Values edited in the form FormID.
type SaveSettings struct {
	FormID string            `json:"form_id"`
	Values translate.Unified `json:"values"`
}

// Type implements command.Message.
func (SaveSettings) Type() string { return saveSettingsType }

// Validate requires a form and at least one value.
func (m SaveSettings) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.FormID, validation.Required),
		validation.Field(&m.Values, validation.Required),
	)
}

// FetchTimeZones loads the time zones of Country. An empty country loads the
// full list.
type FetchTimeZones struct {
	Country string `json:"country"`
}

// Type implements command.Message.
func (FetchTimeZones) Type() string { return fetchTimeZonesType }

// Validate accepts an empty or two letter country code.
func (m FetchTimeZones) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Country, validation.Length(2, 2), is.UpperCase),
	)
}

// FetchSiteLanguages loads the selectable interface languages.
type FetchSiteLanguages struct{}

// Type implements command.Message.
func (FetchSiteLanguages) Type() string { return fetchSiteLanguagesType }

func (FetchSiteLanguages) Validate() error { return nil }

// ChangeSiteLanguage switches the interface language to Code.
type ChangeSiteLanguage struct {
	Code string `json:"code"`
}

// Type implements command.Message.
func (ChangeSiteLanguage) Type() string { return changeSiteLanguageType }

// Validate requires a language code.
func (m ChangeSiteLanguage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Code, validation.Required, validation.By(noSpaces)),
	)
}

// DisconnectAuth unlinks the provider ProviderID through the server supplied
// URL.
type DisconnectAuth struct {
	URL        string `json:"url"`
	ProviderID string `json:"provider_id"`
}

// Type implements command.Message.
func (DisconnectAuth) Type() string { return disconnectAuthType }

// Validate requires both the URL and the provider.
func (m DisconnectAuth) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.URL, validation.Required),
		validation.Field(&m.ProviderID, validation.Required),
	)
}

// ConfirmDeleteAccount opens the deletion confirmation step.
type ConfirmDeleteAccount struct{}

// Type implements command.Message.
func (ConfirmDeleteAccount) Type() string { return confirmDeleteAccountType }

func (ConfirmDeleteAccount) Validate() error { return nil }

// CancelDeleteAccount abandons the deletion flow.
type CancelDeleteAccount struct{}

// Type implements command.Message.
func (CancelDeleteAccount) Type() string { return cancelDeleteAccountType }

func (CancelDeleteAccount) Validate() error { return nil }

// DeleteAccount deactivates the account after confirming Password. An empty
// password is reported through the deletion state rather than rejected here.
type DeleteAccount struct {
	Password string `json:"-"`
}

// Type implements command.Message.
func (DeleteAccount) Type() string { return deleteAccountType }

func (DeleteAccount) Validate() error { return nil }

// ResetPassword emails a reset link to Email.
type ResetPassword struct {
	Email string `json:"email"`
}

// Type implements command.Message.
func (ResetPassword) Type() string { return resetPasswordType }

// Validate requires a well formed email.
func (m ResetPassword) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.EmailFormat),
	)
}

func noSpaces(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, " \t\n") {
		return validation.NewError("settings.site_language.code_invalid", "code must not contain spaces")
	}
	return nil
}

func isDemographicsForm(formID string) bool {
	return strings.HasPrefix(formID, FormDemographicsPrefix)
}
