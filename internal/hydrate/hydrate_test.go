package hydrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDecoderFromFixtures(t *testing.T) {
	fx := loadFixture(t, "hydrate_providers.json")

	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			decoder := NewDecoder[[]providerStatus](buildOptions(tc)...)

			ctx := Context{
				Resource: tc.Resource,
				Subject:  tc.Subject,
			}

			result, err := decoder.Decode(ctx, tc.Input)

			if tc.ExpectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.ExpectErr)
				}
				if !strings.Contains(err.Error(), tc.ExpectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.ExpectErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}

			if !reflect.DeepEqual(tc.Expect, result) {
				t.Fatalf("decoded payload mismatch:\nwant: %#v\n got: %#v", tc.Expect, result)
			}
		})
	}
}

func TestDecodeDoesNotMutateInput(t *testing.T) {
	input := map[string]any{"results": []any{map[string]any{"id": "oa2-github"}}}
	decoder := NewDecoder[[]providerStatus](WithPreHook[[]providerStatus](unwrapResultsPreHook))

	if _, err := decoder.Decode(Context{Resource: "third_party_auth"}, input); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := input["results"]; !ok {
		t.Fatalf("expected caller payload untouched, got %#v", input)
	}
}

func TestDecodeBytes(t *testing.T) {
	decoder := NewDecoder[timeZone]()

	got, err := decoder.DecodeBytes(Context{Resource: "time_zones"}, []byte(`{"time_zone":"America/Lima","description":"America/Lima (PET, UTC-0500)"}`))
	if err != nil {
		t.Fatalf("decode bytes: %v", err)
	}
	if got.TimeZone != "America/Lima" {
		t.Fatalf("unexpected time zone %+v", got)
	}

	if _, err := decoder.DecodeBytes(Context{Resource: "time_zones"}, nil); err == nil || !strings.Contains(err.Error(), "empty body for time_zones") {
		t.Fatalf("expected empty body error, got %v", err)
	}
	if _, err := decoder.DecodeBytes(Context{Resource: "time_zones", Subject: "PE"}, []byte("{")); err == nil || !strings.Contains(err.Error(), "time_zones/PE") {
		t.Fatalf("expected parse error naming the resource, got %v", err)
	}
}

func TestDecodeNilPayload(t *testing.T) {
	decoder := NewDecoder[timeZone]()
	if _, err := decoder.Decode(Context{Resource: "time_zones"}, nil); err == nil {
		t.Fatalf("expected nil payload error")
	}
}

func buildOptions(tc fixtureCase) []DecoderOption[[]providerStatus] {
	options := []DecoderOption[[]providerStatus]{}

	for _, optName := range tc.Options {
		switch optName {
		case "use_number":
			options = append(options, WithUseNumber[[]providerStatus]())
		case "disallow_unknown":
			options = append(options, WithDisallowUnknownFields[[]providerStatus]())
		}
	}

	for _, hookName := range tc.PreHooks {
		switch hookName {
		case "unwrap_results":
			options = append(options, WithPreHook[[]providerStatus](unwrapResultsPreHook))
		}
	}

	for _, hookName := range tc.PostHooks {
		switch hookName {
		case "absolute_urls":
			options = append(options, WithPostHook[[]providerStatus](absoluteURLsPostHook))
		}
	}

	if tc.CustomDecoder == "connected_only" {
		options = append(options, WithCustomDecoder[[]providerStatus](connectedOnlyDecoder))
	}

	return options
}

func unwrapResultsPreHook(_ Context, payload any) (any, error) {
	envelope, ok := payload.(map[string]any)
	if !ok {
		return payload, nil
	}
	results, ok := envelope["results"].([]any)
	if !ok {
		return nil, errors.New("envelope without results")
	}
	delete(envelope, "results")
	return results, nil
}

func absoluteURLsPostHook(_ Context, providers *[]providerStatus) error {
	if providers == nil {
		return errors.New("providers is nil")
	}
	for i := range *providers {
		p := &(*providers)[i]
		if strings.HasPrefix(p.ConnectURL, "/") {
			p.ConnectURL = "https://lms.example.com" + p.ConnectURL
		}
		if strings.HasPrefix(p.DisconnectURL, "/") {
			p.DisconnectURL = "https://lms.example.com" + p.DisconnectURL
		}
	}
	return nil
}

func connectedOnlyDecoder(ctx Context, payload any) ([]providerStatus, error) {
	items, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("expected list for %s", ctx)
	}
	out := []providerStatus{}
	for _, item := range items {
		entry, _ := item.(map[string]any)
		if connected, _ := entry["connected"].(bool); !connected {
			continue
		}
		raw, err := json.Marshal(entry)
		if err != nil {
			return nil, err
		}
		var status providerStatus
		if err := json.Unmarshal(raw, &status); err != nil {
			return nil, err
		}
		out = append(out, status)
	}
	return out, nil
}

type fixture struct {
	Description string        `json:"description"`
	Cases       []fixtureCase `json:"cases"`
}

type fixtureCase struct {
	Name          string           `json:"name"`
	Resource      string           `json:"resource"`
	Subject       string           `json:"subject"`
	Input         any              `json:"input"`
	Expect        []providerStatus `json:"expect"`
	ExpectErr     string           `json:"expectErr"`
	PreHooks      []string         `json:"preHooks"`
	PostHooks     []string         `json:"postHooks"`
	Options       []string         `json:"options"`
	CustomDecoder string           `json:"customDecoder"`
}

type providerStatus struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Connected     bool   `json:"connected"`
	AcceptsLogins bool   `json:"accepts_logins"`
	ConnectURL    string `json:"connect_url"`
	DisconnectURL string `json:"disconnect_url"`
}

type timeZone struct {
	TimeZone    string `json:"time_zone"`
	Description string `json:"description"`
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	path := filepath.Join("..", "..", "testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read hydrate fixture %q: %v", name, err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal hydrate fixture %q: %v", name, err)
	}
	return fx
}
