// Package demographics reads and writes the learner demographics record.
// A missing record is created on first read.
package demographics

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/goliatone/go-account-settings/internal/logging"
	"github.com/goliatone/go-account-settings/internal/transport"
	"github.com/goliatone/go-account-settings/pkg/apierror"
	"github.com/goliatone/go-account-settings/pkg/interfaces"
	"github.com/goliatone/go-account-settings/translate"
)

const resourcePath = "/demographics/api/v1/demographics/"

// FieldDemographicsError is the synthetic field every write failure is
// reported under, so callers can show one connectivity warning.
const FieldDemographicsError = "demographicsError"

// Config locates the demographics service.
type Config struct {
	BaseURL string
}

// Option configures a Resource.
type Option func(*Resource)

// WithClient sets the transport client.
func WithClient(client *transport.Client) Option {
	return func(r *Resource) {
		if client != nil {
			r.client = client
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Resource) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resource is the demographics gateway.
type Resource struct {
	cfg    Config
	client *transport.Client
	logger interfaces.Logger
}

// New builds a Resource.
func New(cfg Config, opts ...Option) *Resource {
	r := &Resource{
		cfg:    cfg,
		client: transport.New(),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Read fetches the record for userID. A 404 triggers exactly one Create
// whose result is returned. Any other failure falls back to the default
// record and is logged, never returned.
func (r *Resource) Read(ctx context.Context, userID int) (translate.Unified, error) {
	logger := logging.FromContext(ctx, r.logger)

	var wire map[string]any
	err := r.client.GetJSON(ctx, r.recordURL(userID), &wire)
	switch {
	case err == nil:
		return translate.DemographicsToUnified(wire), nil
	case apierror.Is(err, apierror.KindNotFound):
		logger.Info("demographics.read.missing", "user", userID)
		return r.Create(ctx, userID)
	default:
		logger.Warn("demographics.read.fallback", "user", userID, "kind", apierror.KindOf(err), "error", err)
		return translate.DefaultDemographics(userID), nil
	}
}

// Create registers an empty record for userID.
func (r *Resource) Create(ctx context.Context, userID int) (translate.Unified, error) {
	resp, err := r.client.PostJSON(ctx, r.collectionURL(), map[string]any{"user": userID})
	if err != nil {
		return nil, demographicsError("create", err)
	}
	return r.decode(resp, userID, "create")
}

// Update merge-patches fields onto the record. Changing gender to anything
// other than self-describe clears gender_description in the same request.
func (r *Resource) Update(ctx context.Context, userID int, fields translate.Unified) (translate.Unified, error) {
	wire := translate.DemographicsToWire(fields)
	if gender, ok := wire["gender"]; ok && gender != translate.SelfDescribeGender {
		wire["gender_description"] = nil
	}
	resp, err := r.client.PatchMerge(ctx, r.recordURL(userID), wire)
	if err != nil {
		return nil, demographicsError("update", err)
	}
	return r.decode(resp, userID, "update")
}

func (r *Resource) decode(resp *transport.Response, userID int, op string) (translate.Unified, error) {
	var wire map[string]any
	if err := resp.Decode(&wire); err != nil {
		return nil, demographicsError(op, err)
	}
	if wire == nil {
		wire = map[string]any{"user": userID}
	}
	return translate.DemographicsToUnified(wire), nil
}

func (r *Resource) collectionURL() string {
	return transport.JoinURL(r.cfg.BaseURL, resourcePath)
}

func (r *Resource) recordURL(userID int) string {
	return r.collectionURL() + strconv.Itoa(userID) + "/"
}

// demographicsError replaces whatever the server said with the single
// synthetic demographicsError field, keeping the kind for logging.
func demographicsError(op string, err error) error {
	kind := apierror.KindOf(err)
	status := 0
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		status = apiErr.Status
	}
	if kind == "" {
		kind = apierror.KindServer
	}
	wrapped := apierror.New(kind, status, fmt.Sprintf("demographics %s failed", op), err).
		WithFieldErrors(apierror.FieldErrors{FieldDemographicsError: {string(kind)}})
	return wrapped
}
