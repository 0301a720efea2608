package activity

import (
	"sort"
	"strings"
	"time"
)

// Verbs emitted for settings activity.
const (
	VerbSettingsFetched        = "settings.fetched"
	VerbSettingsSaved          = "settings.saved"
	VerbAuthDisconnected       = "auth.disconnected"
	VerbAccountDeleted         = "account.deleted"
	VerbPasswordResetRequested = "password.reset_requested"
	VerbSiteLanguageChanged    = "site_language.changed"
)

// ObjectTypeAccountSettings is the object type of every settings event.
const ObjectTypeAccountSettings = "account_settings"

// SettingsEventInput describes the common fields for settings events.
type SettingsEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	Username       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	// FormID names the form that was saved, if any.
	FormID string
	// Fields lists the changed field names.
	Fields []string
	// ProviderID names the auth provider for disconnect events.
	ProviderID string
	OccurredAt time.Time
}

// BuildSettingsFetchedEvent constructs an event for a completed settings fetch.
func BuildSettingsFetchedEvent(input SettingsEventInput) Event {
	return buildSettingsEvent(VerbSettingsFetched, input)
}

// BuildSettingsSavedEvent constructs an event for a committed save.
func BuildSettingsSavedEvent(input SettingsEventInput) Event {
	return buildSettingsEvent(VerbSettingsSaved, input)
}

// BuildAuthDisconnectedEvent constructs an event for a provider disconnect.
func BuildAuthDisconnectedEvent(input SettingsEventInput) Event {
	return buildSettingsEvent(VerbAuthDisconnected, input)
}

// BuildAccountDeletedEvent constructs an event for an account deletion.
func BuildAccountDeletedEvent(input SettingsEventInput) Event {
	return buildSettingsEvent(VerbAccountDeleted, input)
}

// BuildPasswordResetRequestedEvent constructs an event for a reset email.
func BuildPasswordResetRequestedEvent(input SettingsEventInput) Event {
	return buildSettingsEvent(VerbPasswordResetRequested, input)
}

// BuildSiteLanguageChangedEvent constructs an event for a language change.
func BuildSiteLanguageChangedEvent(input SettingsEventInput) Event {
	return buildSettingsEvent(VerbSiteLanguageChanged, input)
}

func buildSettingsEvent(verb string, input SettingsEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.FormID != "" {
		metadata = ensureMetadata(metadata)
		metadata["form_id"] = input.FormID
	}
	if len(input.Fields) > 0 {
		fields := append([]string{}, input.Fields...)
		sort.Strings(fields)
		metadata = ensureMetadata(metadata)
		metadata["fields"] = fields
	}
	if input.ProviderID != "" {
		metadata = ensureMetadata(metadata)
		metadata["provider_id"] = input.ProviderID
	}

	recipients := input.Recipients
	if len(recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	objectID := strings.TrimSpace(input.Username)
	if objectID == "" {
		objectID = strings.TrimSpace(input.UserID)
	}
	if objectID == "" {
		objectID = ObjectTypeAccountSettings
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     ObjectTypeAccountSettings,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
