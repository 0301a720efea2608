package translate

import (
	"errors"

	"github.com/goliatone/go-account-settings/internal/hydrate"
	"github.com/goliatone/go-account-settings/internal/transport"
)

// AuthProvider is the connection status of one third-party auth provider.
type AuthProvider struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Connected     bool   `json:"connected"`
	AcceptsLogins bool   `json:"accepts_logins"`
	ConnectURL    string `json:"connect_url"`
	DisconnectURL string `json:"disconnect_url"`
}

// TimeZone is one entry of a time zone reference list.
type TimeZone struct {
	TimeZone    string `json:"time_zone"`
	Description string `json:"description"`
}

type enterpriseLearners struct {
	Results []struct {
		EnterpriseCustomer struct {
			Name                   string `json:"name"`
			SyncLearnerProfileData bool   `json:"sync_learner_profile_data"`
		} `json:"enterprise_customer"`
	} `json:"results"`
}

// ProvidersFromWire decodes the provider status list and resolves the connect
// and disconnect URLs against the LMS base URL.
func ProvidersFromWire(lmsBaseURL string, raw []byte) ([]AuthProvider, error) {
	decoder := hydrate.NewDecoder[[]AuthProvider](
		hydrate.WithPostHook[[]AuthProvider](func(_ hydrate.Context, providers *[]AuthProvider) error {
			if providers == nil {
				return errors.New("providers is nil")
			}
			for i := range *providers {
				p := &(*providers)[i]
				p.ConnectURL = transport.AbsoluteURL(lmsBaseURL, p.ConnectURL)
				p.DisconnectURL = transport.AbsoluteURL(lmsBaseURL, p.DisconnectURL)
			}
			return nil
		}),
	)
	providers, err := decoder.DecodeBytes(hydrate.Context{Resource: "third_party_auth"}, raw)
	if err != nil {
		return nil, err
	}
	if providers == nil {
		providers = []AuthProvider{}
	}
	return providers, nil
}

// TimeZonesFromWire decodes a time zone list.
func TimeZonesFromWire(raw []byte) ([]TimeZone, error) {
	zones, err := hydrate.NewDecoder[[]TimeZone]().DecodeBytes(hydrate.Context{Resource: "time_zones"}, raw)
	if err != nil {
		return nil, err
	}
	if zones == nil {
		zones = []TimeZone{}
	}
	return zones, nil
}

// ProfileDataManagerFromWire returns the name of the first enterprise customer
// that syncs learner profile data, or nil when none does.
func ProfileDataManagerFromWire(raw []byte) (*string, error) {
	learners, err := hydrate.NewDecoder[enterpriseLearners]().DecodeBytes(hydrate.Context{Resource: "enterprise_learner"}, raw)
	if err != nil {
		return nil, err
	}
	for _, result := range learners.Results {
		if result.EnterpriseCustomer.SyncLearnerProfileData {
			name := result.EnterpriseCustomer.Name
			return &name, nil
		}
	}
	return nil, nil
}
