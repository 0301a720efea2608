package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-account-settings/pkg/apierror"
	"github.com/goliatone/go-account-settings/translate"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Type   string
	Body   string
}

type fakeBackend struct {
	t        *testing.T
	mu       sync.Mutex
	requests []recordedRequest
	routes   map[string]http.HandlerFunc
	server   *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{t: t, routes: map[string]http.HandlerFunc{}}
	fb.server = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.server.Close)
	return fb
}

func (fb *fakeBackend) handle(method, path string, fn http.HandlerFunc) {
	fb.routes[method+" "+path] = fn
}

func (fb *fakeBackend) json(method, path string, status int, body string) {
	fb.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	fb.mu.Lock()
	fb.requests = append(fb.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Type:   r.Header.Get("Content-Type"),
		Body:   string(raw),
	})
	fn, ok := fb.routes[r.Method+" "+r.URL.Path]
	fb.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	fn(w, r)
}

func (fb *fakeBackend) calls(method, path string) []recordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	var out []recordedRequest
	for _, req := range fb.requests {
		if req.Method == method && req.Path == path {
			out = append(out, req)
		}
	}
	return out
}

func (fb *fakeBackend) gateway() *Gateway {
	return New(Config{
		AccountsAPIBaseURL:    fb.server.URL + "/api/user/v1/accounts",
		PreferencesAPIBaseURL: fb.server.URL + "/api/user/v1/preferences",
		LMSBaseURL:            fb.server.URL,
		DeleteAccountURL:      fb.server.URL + "/api/user/v1/accounts/deactivate_logout/",
		PasswordResetURL:      fb.server.URL + "/password_reset/",
		SiteLanguages:         []SiteLanguage{{Code: "en", Name: "English"}},
	})
}

const (
	accountPath     = "/api/user/v1/accounts/jane"
	preferencesPath = "/api/user/v1/preferences/jane"
)

func seedReads(fb *fakeBackend) {
	fb.json(http.MethodGet, accountPath, http.StatusOK, `{"username":"jane","name":"Jane","time_zone":"America/Lima","social_links":[{"platform":"twitter","social_link":"x"}],"language_proficiencies":[]}`)
	fb.json(http.MethodGet, preferencesPath, http.StatusOK, `{"time_zone":"UTC","pref-lang":"en"}`)
	fb.json(http.MethodGet, thirdPartyAuthPath, http.StatusOK, `[{"id":"oa2-github","name":"GitHub","connected":true,"disconnect_url":"/auth/disconnect/github/"}]`)
	fb.json(http.MethodGet, timeZonesPath, http.StatusOK, `[{"time_zone":"UTC","description":"UTC"}]`)
}

func TestFetchAllSettingsMergesResources(t *testing.T) {
	fb := newFakeBackend(t)
	seedReads(fb)

	settings, err := fb.gateway().FetchAllSettings(context.Background(), "jane", nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if settings.Values["time_zone"] != "UTC" {
		t.Fatalf("expected preferences time_zone, got %#v", settings.Values["time_zone"])
	}
	if source, _ := settings.Source("time_zone"); source != ScopePreferences {
		t.Fatalf("expected time_zone from preferences, got %q", source)
	}
	if source, _ := settings.Source("name"); source != ScopeAccount {
		t.Fatalf("expected name from account, got %q", source)
	}
	if settings.Values["social_link_twitter"] != "x" || settings.Values["social_link_facebook"] != "" {
		t.Fatalf("unexpected social links %#v", settings.Values)
	}
	if len(settings.AuthProviders) != 1 || !strings.HasPrefix(settings.AuthProviders[0].DisconnectURL, fb.server.URL) {
		t.Fatalf("expected absolute disconnect url, got %#v", settings.AuthProviders)
	}
	if settings.ProfileDataManager != nil {
		t.Fatalf("expected no profile data manager without enterprise role")
	}
	if calls := fb.calls(http.MethodGet, enterpriseLearnerPath); len(calls) != 0 {
		t.Fatalf("enterprise lookup must be skipped without the role, got %d calls", len(calls))
	}

	unified := settings.Unified()
	if unified[translate.FieldProfileDataManager] != nil {
		t.Fatalf("expected nil profileDataManager, got %#v", unified[translate.FieldProfileDataManager])
	}
	if zones, ok := unified[translate.FieldTimeZones].([]translate.TimeZone); !ok || len(zones) != 1 {
		t.Fatalf("unexpected time zones %#v", unified[translate.FieldTimeZones])
	}
}

func TestFetchAllSettingsProfileDataManager(t *testing.T) {
	fb := newFakeBackend(t)
	seedReads(fb)
	fb.json(http.MethodGet, enterpriseLearnerPath, http.StatusOK, `{"results":[{"enterprise_customer":{"name":"Globex","sync_learner_profile_data":true}}]}`)

	settings, err := fb.gateway().FetchAllSettings(context.Background(), "jane", []string{"enterprise_learner:1234"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if settings.ProfileDataManager == nil || *settings.ProfileDataManager != "Globex" {
		t.Fatalf("expected Globex, got %v", settings.ProfileDataManager)
	}
	calls := fb.calls(http.MethodGet, enterpriseLearnerPath)
	if len(calls) != 1 || calls[0].Query != "username=jane" {
		t.Fatalf("unexpected enterprise lookup %#v", calls)
	}
}

func TestFetchAllSettingsReadsConcurrently(t *testing.T) {
	fb := newFakeBackend(t)

	reads := []struct {
		path string
		body string
	}{
		{accountPath, `{"username":"jane","name":"Jane","social_links":[],"language_proficiencies":[]}`},
		{preferencesPath, `{"time_zone":"UTC"}`},
		{thirdPartyAuthPath, `[]`},
		{enterpriseLearnerPath, `{"results":[{"enterprise_customer":{"name":"Globex","sync_learner_profile_data":true}}]}`},
		{timeZonesPath, `[{"time_zone":"UTC","description":"UTC"}]`},
	}

	var arrived sync.WaitGroup
	arrived.Add(len(reads))
	all := make(chan struct{})
	go func() {
		arrived.Wait()
		close(all)
	}()

	for _, read := range reads {
		body := read.body
		fb.handle(http.MethodGet, read.path, func(w http.ResponseWriter, _ *http.Request) {
			arrived.Done()
			select {
			case <-all:
			case <-time.After(2 * time.Second):
				w.WriteHeader(http.StatusGatewayTimeout)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, body)
		})
	}

	settings, err := fb.gateway().FetchAllSettings(context.Background(), "jane", []string{"enterprise_learner:1234"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if settings.ProfileDataManager == nil || *settings.ProfileDataManager != "Globex" {
		t.Fatalf("every read must complete together, got manager %v", settings.ProfileDataManager)
	}
	if settings.Values["time_zone"] != "UTC" || len(settings.TimeZones) != 1 {
		t.Fatalf("unexpected settings %#v", settings.Values)
	}
}

func TestFetchAllSettingsProfileDataManagerFailureDegrades(t *testing.T) {
	fb := newFakeBackend(t)
	seedReads(fb)
	fb.json(http.MethodGet, enterpriseLearnerPath, http.StatusInternalServerError, `{}`)

	settings, err := fb.gateway().FetchAllSettings(context.Background(), "jane", []string{"enterprise_learner:1234"})
	if err != nil {
		t.Fatalf("profile data manager failure must not fail the fetch: %v", err)
	}
	if settings.ProfileDataManager != nil {
		t.Fatalf("expected nil manager, got %v", *settings.ProfileDataManager)
	}
}

func TestFetchAllSettingsFatalReads(t *testing.T) {
	fb := newFakeBackend(t)
	seedReads(fb)
	fb.json(http.MethodGet, timeZonesPath, http.StatusServiceUnavailable, `{}`)

	_, err := fb.gateway().FetchAllSettings(context.Background(), "jane", nil)
	if !apierror.Is(err, apierror.KindServer) {
		t.Fatalf("expected server error from time zone read, got %v", err)
	}
}

func TestSaveSettingsAccountOnly(t *testing.T) {
	fb := newFakeBackend(t)
	fb.json(http.MethodPatch, accountPath, http.StatusOK, `{"username":"jane","name":"Jane","social_links":[]}`)

	got, err := fb.gateway().SaveSettings(context.Background(), "jane", translate.Unified{"name": "Jane"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if got["name"] != "Jane" {
		t.Fatalf("unexpected result %#v", got)
	}
	patches := fb.calls(http.MethodPatch, accountPath)
	if len(patches) != 1 {
		t.Fatalf("expected exactly one account patch, got %d", len(patches))
	}
	if patches[0].Type != "application/merge-patch+json" || patches[0].Body != `{"name":"Jane"}` {
		t.Fatalf("unexpected patch %#v", patches[0])
	}
	if calls := fb.calls(http.MethodPatch, preferencesPath); len(calls) != 0 {
		t.Fatalf("preferences must not be patched, got %d calls", len(calls))
	}
}

func TestSaveSettingsSplitsPartitionsConcurrently(t *testing.T) {
	fb := newFakeBackend(t)

	var arrived sync.WaitGroup
	arrived.Add(2)
	both := make(chan struct{})
	go func() {
		arrived.Wait()
		close(both)
	}()
	barrier := func(w http.ResponseWriter) bool {
		arrived.Done()
		select {
		case <-both:
			return true
		case <-time.After(2 * time.Second):
			w.WriteHeader(http.StatusGatewayTimeout)
			return false
		}
	}

	fb.handle(http.MethodPatch, accountPath, func(w http.ResponseWriter, _ *http.Request) {
		if !barrier(w) {
			return
		}
		_, _ = io.WriteString(w, `{"name":"Jane","time_zone":"America/Lima","social_links":[]}`)
	})
	fb.handle(http.MethodPatch, preferencesPath, func(w http.ResponseWriter, _ *http.Request) {
		if !barrier(w) {
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	got, err := fb.gateway().SaveSettings(context.Background(), "jane", translate.Unified{"time_zone": "UTC", "name": "Jane"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if got["time_zone"] != "UTC" || got["name"] != "Jane" {
		t.Fatalf("unexpected combined result %#v", got)
	}

	prefPatch := fb.calls(http.MethodPatch, preferencesPath)
	if len(prefPatch) != 1 || prefPatch[0].Body != `{"time_zone":"UTC"}` {
		t.Fatalf("unexpected preferences patch %#v", prefPatch)
	}
	accountPatch := fb.calls(http.MethodPatch, accountPath)
	if len(accountPatch) != 1 || strings.Contains(accountPatch[0].Body, "time_zone") {
		t.Fatalf("account patch must not carry time_zone: %#v", accountPatch)
	}
}

func TestSaveSettingsReportsFailedPartitionOnly(t *testing.T) {
	fb := newFakeBackend(t)
	fb.json(http.MethodPatch, accountPath, http.StatusBadRequest, `{"field_errors":{"social_links":{"user_message":"Enter a valid URL."}}}`)
	fb.json(http.MethodPatch, preferencesPath, http.StatusNoContent, ``)

	_, err := fb.gateway().SaveSettings(context.Background(), "jane", translate.Unified{"time_zone": "UTC", "social_link_twitter": "nope"})

	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *apierror.Error, got %T %v", err, err)
	}
	if apiErr.Kind != apierror.KindValidation {
		t.Fatalf("expected validation kind, got %s", apiErr.Kind)
	}
	for _, field := range translate.SocialLinkFields() {
		if got := apiErr.FieldErrors[field]; len(got) != 1 || got[0] != "Enter a valid URL." {
			t.Fatalf("expected %s error, got %#v", field, apiErr.FieldErrors)
		}
	}
	if _, ok := apiErr.FieldErrors["time_zone"]; ok {
		t.Fatalf("successful partition must not report errors")
	}
	if len(fb.calls(http.MethodPatch, preferencesPath)) != 1 {
		t.Fatalf("preferences patch should still have been issued")
	}
}

func TestSaveSettingsServerFailureKeepsKind(t *testing.T) {
	fb := newFakeBackend(t)
	fb.json(http.MethodPatch, preferencesPath, http.StatusInternalServerError, `{}`)

	_, err := fb.gateway().SaveSettings(context.Background(), "jane", translate.Unified{"time_zone": "UTC"})
	if !apierror.Is(err, apierror.KindServer) {
		t.Fatalf("expected server kind, got %v", err)
	}
	if len(apierror.FieldErrorsOf(err)) != 0 {
		t.Fatalf("server failures carry no field errors")
	}
}

func TestSaveSettingsEmptyChangeSendsNothing(t *testing.T) {
	fb := newFakeBackend(t)
	got, err := fb.gateway().SaveSettings(context.Background(), "jane", translate.Unified{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(got) != 0 || len(fb.requests) != 0 {
		t.Fatalf("expected no requests, got %d (%#v)", len(fb.requests), got)
	}
}

func TestDisconnectAuthProvider(t *testing.T) {
	fb := newFakeBackend(t)
	seedReads(fb)
	fb.json(http.MethodPost, "/auth/disconnect/github/", http.StatusOK, `{}`)

	providers, err := fb.gateway().DisconnectAuthProvider(context.Background(), fb.server.URL+"/auth/disconnect/github/", "oa2-github")
	if err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if len(providers) != 1 {
		t.Fatalf("expected refreshed providers, got %#v", providers)
	}

	_, err = fb.gateway().DisconnectAuthProvider(context.Background(), fb.server.URL+"/auth/disconnect/missing/", "oa2-missing")
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) || providerErr.ProviderID != "oa2-missing" {
		t.Fatalf("expected provider tagged error, got %v", err)
	}
	if !apierror.Is(err, apierror.KindNotFound) {
		t.Fatalf("expected classified cause, got %v", err)
	}
}

func TestDeleteAccountReasons(t *testing.T) {
	fb := newFakeBackend(t)
	fb.json(http.MethodPost, "/api/user/v1/accounts/deactivate_logout/", http.StatusForbidden, `{}`)
	gw := fb.gateway()

	err := gw.DeleteAccount(context.Background(), "")
	if DeleteAccountReason(err) != DeleteReasonEmptyPassword {
		t.Fatalf("expected empty-password, got %v", err)
	}
	if len(fb.requests) != 0 {
		t.Fatalf("empty password must not reach the server")
	}

	err = gw.DeleteAccount(context.Background(), "wrong")
	if DeleteAccountReason(err) != DeleteReasonInvalidPassword {
		t.Fatalf("expected invalid-password, got %v", err)
	}
	calls := fb.calls(http.MethodPost, "/api/user/v1/accounts/deactivate_logout/")
	if len(calls) != 1 || calls[0].Body != "password=wrong" {
		t.Fatalf("unexpected delete request %#v", calls)
	}

	if DeleteAccountReason(errors.New("boom")) != DeleteReasonServer {
		t.Fatalf("unknown errors default to server")
	}
}

func TestSetSiteLanguage(t *testing.T) {
	fb := newFakeBackend(t)
	fb.json(http.MethodPatch, preferencesPath, http.StatusNoContent, ``)
	fb.json(http.MethodPost, setLanguagePath, http.StatusOK, ``)

	if err := fb.gateway().SetSiteLanguage(context.Background(), "jane", "es-419"); err != nil {
		t.Fatalf("set site language: %v", err)
	}

	patch := fb.calls(http.MethodPatch, preferencesPath)
	var body map[string]any
	if len(patch) != 1 || json.Unmarshal([]byte(patch[0].Body), &body) != nil || body[PreferenceSiteLanguage] != "es-419" {
		t.Fatalf("unexpected preference patch %#v", patch)
	}
	post := fb.calls(http.MethodPost, setLanguagePath)
	if len(post) != 1 || post[0].Body != "language=es-419" {
		t.Fatalf("unexpected setlang request %#v", post)
	}
}

func TestRequestPasswordReset(t *testing.T) {
	fb := newFakeBackend(t)
	fb.json(http.MethodPost, "/password_reset/", http.StatusOK, `{"success":true}`)

	if err := fb.gateway().RequestPasswordReset(context.Background(), "jane@example.com"); err != nil {
		t.Fatalf("password reset: %v", err)
	}
	calls := fb.calls(http.MethodPost, "/password_reset/")
	if len(calls) != 1 || calls[0].Body != "email=jane%40example.com" {
		t.Fatalf("unexpected reset request %#v", calls)
	}
}

func TestSiteLanguagesCopy(t *testing.T) {
	fb := newFakeBackend(t)
	gw := fb.gateway()
	langs := gw.SiteLanguages()
	langs[0].Name = "mutated"
	if gw.SiteLanguages()[0].Name != "English" {
		t.Fatalf("SiteLanguages must return a copy")
	}
}
