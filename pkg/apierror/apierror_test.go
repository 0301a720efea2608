package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestFromResponseClassifiesStatus(t *testing.T) {
	cases := []struct {
		status int
		want   Kind
	}{
		{http.StatusBadRequest, KindValidation},
		{http.StatusUnprocessableEntity, KindValidation},
		{http.StatusConflict, KindValidation},
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusNotFound, KindNotFound},
		{http.StatusInternalServerError, KindServer},
		{http.StatusBadGateway, KindServer},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.status), func(t *testing.T) {
			err := FromResponse(tc.status, nil)
			if err.Kind != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, err.Kind)
			}
			if err.Status != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, err.Status)
			}
			if err.Message == "" {
				t.Fatalf("expected default message")
			}
		})
	}
}

func TestFromResponseUnpacksFieldErrors(t *testing.T) {
	body := []byte(`{"field_errors":{"name":{"developer_message":"dev","user_message":"Name is too long."},"bio":"Too long."}}`)
	err := FromResponse(http.StatusBadRequest, body)

	want := FieldErrors{"name": {"Name is too long."}, "bio": {"Too long."}}
	if !reflect.DeepEqual(err.FieldErrors, want) {
		t.Fatalf("unexpected field errors: %#v", err.FieldErrors)
	}
	if !err.HasFieldErrors() {
		t.Fatalf("expected HasFieldErrors")
	}
}

func TestFromResponseUnpacksListBodies(t *testing.T) {
	body := []byte(`{"demographics_gender":["\"x\" is not a valid choice."]}`)
	err := FromResponse(http.StatusBadRequest, body)

	want := FieldErrors{"demographics_gender": {"\"x\" is not a valid choice."}}
	if !reflect.DeepEqual(err.FieldErrors, want) {
		t.Fatalf("unexpected field errors: %#v", err.FieldErrors)
	}
}

func TestFromResponseKeepsSummaryMessage(t *testing.T) {
	err := FromResponse(http.StatusForbidden, []byte(`{"detail":"Authentication credentials were not provided."}`))
	if err.Message != "Authentication credentials were not provided." {
		t.Fatalf("unexpected message %q", err.Message)
	}
	if err.HasFieldErrors() {
		t.Fatalf("auth failures carry no field errors")
	}
}

func TestKindOfFollowsWrapping(t *testing.T) {
	base := Network(errors.New("dial tcp: refused"))
	wrapped := fmt.Errorf("gateway: fetch account: %w", base)

	if KindOf(wrapped) != KindNetwork {
		t.Fatalf("expected network kind, got %q", KindOf(wrapped))
	}
	if !Is(wrapped, KindNetwork) || Is(wrapped, KindServer) {
		t.Fatalf("Is mismatch for %v", wrapped)
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("plain errors have no kind")
	}
}

func TestErrorCarriesCategory(t *testing.T) {
	err := FromResponse(http.StatusBadRequest, []byte(`{"field_errors":{"name":"bad"}}`))
	if !goerrors.IsCategory(err.Err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err.Err)
	}
	notFound := FromResponse(http.StatusNotFound, nil)
	if !goerrors.IsCategory(notFound.Err, goerrors.CategoryNotFound) {
		t.Fatalf("expected not found category, got %v", notFound.Err)
	}
}

func TestFieldErrorsFanOut(t *testing.T) {
	errs := FieldErrors{"social_links": {"Invalid URL."}, "name": {"Required."}}
	out := errs.FanOut("social_links", "social_link_twitter", "social_link_facebook")

	if _, ok := out["social_links"]; ok {
		t.Fatalf("expected source key removed")
	}
	if !reflect.DeepEqual(out["social_link_twitter"], []string{"Invalid URL."}) {
		t.Fatalf("unexpected fan-out: %#v", out)
	}
	if !reflect.DeepEqual(out["social_link_facebook"], []string{"Invalid URL."}) {
		t.Fatalf("unexpected fan-out: %#v", out)
	}
	if _, ok := errs["social_links"]; !ok {
		t.Fatalf("FanOut must not mutate the receiver")
	}
}

func TestFieldErrorsMergeAndMessages(t *testing.T) {
	merged := FieldErrors{"a": {"one"}}.Merge(FieldErrors{"b": {"two", "three"}})
	msgs := merged.Messages()
	if msgs["a"] != "one" || msgs["b"] != "two three" {
		t.Fatalf("unexpected messages: %#v", msgs)
	}
	if got := merged.Fields(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected fields: %v", got)
	}
	if FieldErrors(nil).Merge(nil) != nil {
		t.Fatalf("expected nil merge of empty maps")
	}
}

func TestWithFieldErrorsCopies(t *testing.T) {
	base := New(KindValidation, http.StatusBadRequest, "", nil)
	fields := FieldErrors{"name": {"bad"}}
	withFields := base.WithFieldErrors(fields)
	fields["name"][0] = "mutated"

	if base.HasFieldErrors() {
		t.Fatalf("original must stay untouched")
	}
	if withFields.FieldErrors["name"][0] != "bad" {
		t.Fatalf("expected copy, got %#v", withFields.FieldErrors)
	}
	if FieldErrorsOf(fmt.Errorf("wrap: %w", withFields))["name"][0] != "bad" {
		t.Fatalf("FieldErrorsOf should unwrap")
	}
}
