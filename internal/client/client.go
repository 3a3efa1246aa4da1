// Package client is the typed HTTP client for the cheathub API. It carries
// no business logic: it encodes calls, attaches the bearer token and maps
// error responses back to apperror sentinels.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/victorlut/cheathub/internal/apperror"
	"github.com/victorlut/cheathub/internal/model"
)

const (
	defaultBaseURL   = "http://127.0.0.1:8080"
	defaultUserAgent = "cheathub-cli/0.1"
	defaultTimeout   = 10 * time.Second

	// RequestIDHeader is sent on every call so server logs can be matched
	// to a client action.
	RequestIDHeader = "X-Request-ID"
)

// TokenSource supplies the bearer credential. The client treats the token
// as opaque and never stores or refreshes it.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource that always returns itself. The empty
// string means anonymous.
type StaticToken string

func (t StaticToken) Token() (string, error) { return string(t), nil }

// Options configures New.
type Options struct {
	BaseURL    string
	Tokens     TokenSource
	Timeout    time.Duration
	HTTPClient *http.Client // overrides Timeout when set
	Logger     *slog.Logger
}

// Client talks to the cheathub HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenSource
	userAgent string
	logger    *slog.Logger
}

// ListOptions narrows List.
type ListOptions struct {
	Limit    int
	Offset   int
	Language string
	Tag      string
}

// Credentials is what register and login return.
type Credentials struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// New builds a Client for opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	tokens := opts.Tokens
	if tokens == nil {
		tokens = StaticToken("")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:   base,
		http:      httpClient,
		tokens:    tokens,
		userAgent: defaultUserAgent,
		logger:    logger,
	}, nil
}

// snippetBody is the request shape for create and update. Tags leave the
// draft's delimited form here and nowhere else.
type snippetBody struct {
	Title       string   `json:"title"`
	Value       string   `json:"value"`
	Description string   `json:"description"`
	Language    string   `json:"language"`
	Tags        []string `json:"tags"`
	Source      string   `json:"source"`
	Private     bool     `json:"private"`
}

func bodyFromDraft(d model.Draft) snippetBody {
	return snippetBody{
		Title:       d.Title,
		Value:       d.Value,
		Description: d.Description,
		Language:    d.Language,
		Tags:        model.SplitTags(d.Tags),
		Source:      d.Source,
		Private:     d.Private,
	}
}

type likesBody struct {
	LikedBy []string `json:"likedBy"`
}

// Fetch returns one snippet.
func (c *Client) Fetch(ctx context.Context, id string) (*model.Snippet, error) {
	var snippet model.Snippet
	if err := c.do(ctx, http.MethodGet, snippetPath(id), nil, &snippet); err != nil {
		return nil, err
	}
	return &snippet, nil
}

// Create stores d as a new snippet and returns it with its assigned id.
func (c *Client) Create(ctx context.Context, d model.Draft) (*model.Snippet, error) {
	var snippet model.Snippet
	if err := c.do(ctx, http.MethodPost, "/api/snippets", bodyFromDraft(d), &snippet); err != nil {
		return nil, err
	}
	return &snippet, nil
}

// Update replaces the editable fields of snippet id.
func (c *Client) Update(ctx context.Context, id string, d model.Draft) (*model.Snippet, error) {
	var snippet model.Snippet
	if err := c.do(ctx, http.MethodPut, snippetPath(id), bodyFromDraft(d), &snippet); err != nil {
		return nil, err
	}
	return &snippet, nil
}

// Remove deletes snippet id.
func (c *Client) Remove(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, snippetPath(id), nil, nil)
}

// AddFavorite puts user into the like-set of id. The server takes the
// identity from the token; user only guards against anonymous calls.
func (c *Client) AddFavorite(ctx context.Context, id, user string) ([]string, error) {
	return c.fave(ctx, http.MethodPost, id, user)
}

// RemoveFavorite takes user out of the like-set of id.
func (c *Client) RemoveFavorite(ctx context.Context, id, user string) ([]string, error) {
	return c.fave(ctx, http.MethodDelete, id, user)
}

func (c *Client) fave(ctx context.Context, method, id, user string) ([]string, error) {
	if strings.TrimSpace(user) == "" {
		return nil, apperror.Unauthorized("log in to favorite snippets")
	}
	var payload likesBody
	if err := c.do(ctx, method, snippetPath(id)+"/fave", nil, &payload); err != nil {
		return nil, err
	}
	if payload.LikedBy == nil {
		payload.LikedBy = []string{}
	}
	return payload.LikedBy, nil
}

// List returns a page of snippets visible to the caller.
func (c *Client) List(ctx context.Context, opts ListOptions) ([]model.Snippet, error) {
	values := url.Values{}
	if opts.Limit > 0 {
		values.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		values.Set("offset", strconv.Itoa(opts.Offset))
	}
	if lang := strings.TrimSpace(opts.Language); lang != "" {
		values.Set("language", lang)
	}
	if tag := strings.TrimSpace(opts.Tag); tag != "" {
		values.Set("tag", tag)
	}

	rel := &url.URL{Path: "/api/snippets", RawQuery: values.Encode()}
	var snippets []model.Snippet
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &snippets); err != nil {
		return nil, err
	}
	return snippets, nil
}

// Register creates an account and returns its first token.
func (c *Client) Register(ctx context.Context, username, password string) (*Credentials, error) {
	return c.credentials(ctx, "/api/auth/register", username, password)
}

// Login exchanges a username and password for a token.
func (c *Client) Login(ctx context.Context, username, password string) (*Credentials, error) {
	return c.credentials(ctx, "/api/auth/login", username, password)
}

func (c *Client) credentials(ctx context.Context, path, username, password string) (*Credentials, error) {
	body := map[string]string{"username": username, "password": password}
	var creds Credentials
	if err := c.do(ctx, http.MethodPost, path, body, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func snippetPath(id string) string {
	return "/api/snippets/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	// Path is already escaped by snippetPath; keep it verbatim.
	rel := &url.URL{Path: path, RawPath: path}
	if unescaped, err := url.PathUnescape(path); err == nil {
		rel.Path = unescaped
	}
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("client: obtain token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			slog.String("request_id", requestID),
			slog.String("method", method),
			slog.String("path", rel.Path),
			slog.String("error", err.Error()),
		)
		return apperror.Network("cannot reach the snippet server", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("request completed",
		slog.String("request_id", requestID),
		slog.String("method", method),
		slog.String("path", rel.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return apperror.Network("unreadable response from the snippet server", err)
	}
	return nil
}

// apiError mirrors the server's error body.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// decodeError turns an error response into an *apperror.AppError whose
// sentinel matches the server's error code, falling back to the status.
func decodeError(resp *http.Response) error {
	var payload apiError
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Message == "" {
		payload.Message = fmt.Sprintf("server returned %s", resp.Status)
	}

	sentinel := sentinelFor(resp.StatusCode, payload.Error)
	appErr := &apperror.AppError{Err: sentinel, Message: payload.Message}
	if errors.Is(sentinel, apperror.ErrNetwork) {
		appErr.Cause = fmt.Errorf("status %d", resp.StatusCode)
	}
	return appErr
}

func sentinelFor(status int, code string) error {
	switch code {
	case "validation_error":
		return apperror.ErrValidation
	case "not_found":
		return apperror.ErrNotFound
	case "unauthorized":
		return apperror.ErrUnauthorized
	case "forbidden":
		return apperror.ErrForbidden
	case "already_favorited":
		return apperror.ErrAlreadyFavorited
	case "not_favorited":
		return apperror.ErrNotFavorited
	case "conflict":
		return apperror.ErrConflict
	}

	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return apperror.ErrValidation
	case status == http.StatusNotFound:
		return apperror.ErrNotFound
	case status == http.StatusUnauthorized:
		return apperror.ErrUnauthorized
	case status == http.StatusForbidden:
		return apperror.ErrForbidden
	case status == http.StatusConflict:
		return apperror.ErrConflict
	}
	return apperror.ErrNetwork
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = ""
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
