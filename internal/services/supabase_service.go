package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/blazehunter/internal/models"
)

const (
	restPrefix        = "rest/v1"
	defaultRPCTimeout = 15 * time.Second
)

// SupabaseRequestOpts captures inputs for a PostgREST call.
type SupabaseRequestOpts struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Headers map[string]string
}

// SupabaseResponse bundles the HTTP response metadata.
type SupabaseResponse struct {
	Status int
	Body   []byte
	Header http.Header
}

// SupabaseGateway talks to the hosted data service through its REST and RPC
// endpoints using the service-role key. The key never leaves the server.
type SupabaseGateway struct {
	baseURL    string
	serviceKey string
	client     *http.Client
	log        zerolog.Logger
}

// NewSupabaseGateway builds a gateway for baseURL. A zero timeout uses the
// default.
func NewSupabaseGateway(baseURL, serviceKey string, timeout time.Duration, log zerolog.Logger) (*SupabaseGateway, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || strings.TrimSpace(serviceKey) == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse data service URL: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultRPCTimeout
	}
	return &SupabaseGateway{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: timeout},
		log:        log,
	}, nil
}

// Do performs a generic PostgREST request.
func (g *SupabaseGateway) Do(ctx context.Context, opts SupabaseRequestOpts) (*SupabaseResponse, error) {
	if opts.Method == "" {
		return nil, errors.New("request method is required")
	}
	path := strings.Trim(opts.Path, "/")
	if path == "" {
		return nil, errors.New("request path is required")
	}

	target := g.baseURL + "/" + restPrefix + "/" + path
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("apikey", g.serviceKey)
	req.Header.Set("Authorization", "Bearer "+g.serviceKey)
	req.Header.Set("Accept", "application/json")
	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: opts.Method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "read " + path, Err: err}
	}

	return &SupabaseResponse{
		Status: resp.StatusCode,
		Body:   respBody,
		Header: resp.Header.Clone(),
	}, nil
}

type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// call runs a request and decodes a 2xx JSON body into out. out may be nil.
func (g *SupabaseGateway) call(ctx context.Context, opts SupabaseRequestOpts, out any) error {
	resp, err := g.Do(ctx, opts)
	if err != nil {
		g.log.Error().Err(err).Str("path", opts.Path).Msg("data service request failed")
		return err
	}

	if resp.Status < 200 || resp.Status >= 300 {
		var pgErr postgrestError
		if jsonErr := json.Unmarshal(resp.Body, &pgErr); jsonErr != nil {
			return &NetworkError{Op: opts.Path, Err: fmt.Errorf("status %d with non-JSON body", resp.Status)}
		}
		apiErr := &APIError{Status: resp.Status, Code: pgErr.Code, Message: pgErr.Message}
		g.log.Warn().Int("status", resp.Status).Str("code", pgErr.Code).Str("path", opts.Path).Msg(pgErr.Message)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &NetworkError{Op: "decode " + opts.Path, Err: err}
	}
	return nil
}

func (g *SupabaseGateway) rpc(ctx context.Context, name string, params map[string]any, out any) error {
	return g.call(ctx, SupabaseRequestOpts{
		Method: http.MethodPost,
		Path:   "rpc/" + name,
		Body:   params,
	}, out)
}

func credentialParams(creds Credentials) map[string]any {
	creds = creds.Normalized()
	return map[string]any{"p_email": creds.Email, "p_key": creds.Key}
}

func (g *SupabaseGateway) VerifyAdminKey(ctx context.Context, creds Credentials) (bool, error) {
	if err := creds.Validate(); err != nil {
		return false, err
	}
	var ok bool
	if err := g.rpc(ctx, ActionVerifyAdminKey, credentialParams(creds), &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (g *SupabaseGateway) List(ctx context.Context, category string) ([]models.ContentItem, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", "created_at.desc")
	if category = strings.TrimSpace(category); category != "" {
		query.Set("nation_key", "eq."+category)
	}

	items := []models.ContentItem{}
	err := g.call(ctx, SupabaseRequestOpts{
		Method: http.MethodGet,
		Path:   models.ContentItem{}.TableName(),
		Query:  query,
	}, &items)
	return items, err
}

func (g *SupabaseGateway) Upsert(ctx context.Context, item models.ContentItem, creds Credentials) (models.ContentItem, error) {
	if err := creds.Validate(); err != nil {
		return models.ContentItem{}, err
	}
	if err := validateItem(item); err != nil {
		return models.ContentItem{}, err
	}

	params := credentialParams(creds)
	params["p_id"] = nil
	if item.ID > 0 {
		params["p_id"] = item.ID
	}
	params["p_title"] = item.Title
	params["p_url"] = item.URL
	params["p_banner_link"] = item.BannerLink
	params["p_nation_key"] = item.NationKey
	params["p_start_date"] = item.StartDate
	params["p_end_date"] = item.EndDate

	var raw json.RawMessage
	if err := g.rpc(ctx, ActionBannerUpsert, params, &raw); err != nil {
		return models.ContentItem{}, err
	}
	return decodeUpserted(raw, item), nil
}

// decodeUpserted reads the row returned by the upsert procedure, which may be
// an object, a one-element array or nothing at all.
func decodeUpserted(raw json.RawMessage, fallback models.ContentItem) models.ContentItem {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return fallback
	}

	var row models.ContentItem
	switch raw[0] {
	case '{':
		if json.Unmarshal(raw, &row) == nil && row.ID != 0 {
			return row
		}
	case '[':
		var rows []models.ContentItem
		if json.Unmarshal(raw, &rows) == nil && len(rows) > 0 {
			return rows[0]
		}
	default:
		var id int64
		if json.Unmarshal(raw, &id) == nil && id > 0 {
			fallback.ID = id
		}
	}
	return fallback
}

func (g *SupabaseGateway) Delete(ctx context.Context, ids []int64, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return NewValidationError("p_ids", "no items selected")
	}
	params := credentialParams(creds)
	params["p_ids"] = ids
	return g.rpc(ctx, ActionBannerDelete, params, nil)
}

func (g *SupabaseGateway) GetHomeSettings(ctx context.Context) (*models.HomeSettings, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("id", fmt.Sprintf("eq.%d", models.HomeSettingsID))
	query.Set("limit", "1")

	var rows []models.HomeSettings
	err := g.call(ctx, SupabaseRequestOpts{
		Method: http.MethodGet,
		Path:   models.HomeSettings{}.TableName(),
		Query:  query,
	}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (g *SupabaseGateway) SetHomeSettings(ctx context.Context, settings models.HomeSettings, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	params := credentialParams(creds)
	params["p_bg_pc_url"] = strings.TrimSpace(settings.BgPcURL)
	params["p_bg_mobile_url"] = strings.TrimSpace(settings.BgMobileURL)
	return g.rpc(ctx, ActionManageHomeSettings, params, nil)
}

// ListAdmins returns the whitelist without access keys. The caller must hold
// valid credentials.
func (g *SupabaseGateway) ListAdmins(ctx context.Context, creds Credentials) ([]models.AdminAccount, error) {
	ok, err := g.VerifyAdminKey(ctx, creds)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorized
	}

	query := url.Values{}
	query.Set("select", "email,role")
	query.Set("order", "email.asc")

	admins := []models.AdminAccount{}
	err = g.call(ctx, SupabaseRequestOpts{
		Method: http.MethodGet,
		Path:   models.AdminAccount{}.TableName(),
		Query:  query,
	}, &admins)
	return admins, err
}

func (g *SupabaseGateway) ManageAdmin(ctx context.Context, action AdminAction, target AdminTarget, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := validateTarget(action, target); err != nil {
		return err
	}

	params := credentialParams(creds)
	params["p_action"] = string(action)
	params["p_target_email"] = strings.TrimSpace(target.Email)
	if action != AdminDelete {
		params["p_target_role"] = target.Role
	}
	if target.Password != "" {
		params["p_target_password"] = target.Password
	}
	return g.rpc(ctx, ActionManageAdminAccess, params, nil)
}
