// Backend API client for the shelfplay audiobook service
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelfplay/internal/models"
	"github.com/desertthunder/shelfplay/internal/shared"
	"golang.org/x/oauth2"
)

// Client implements [Library] against the shelfplay backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
	hasToken   bool
}

var _ Library = (*Client)(nil)

// NewClient creates a backend client. When token is non-empty, all requests
// carry it as a bearer header via [oauth2.Transport].
func NewClient(baseURL, token string, base *http.Client, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	if base == nil {
		base = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	httpClient := base
	if token != "" {
		httpClient = &http.Client{
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
				Base:   base.Transport,
			},
			Timeout: base.Timeout,
		}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		hasToken:   token != "",
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Authenticated reports whether the client was constructed with a token.
func (c *Client) Authenticated() bool { return c.hasToken }

// doRequest performs an HTTP request and decodes the JSON response into result.
// Non-2xx statuses map to sentinel errors: 401 becomes shared.ErrTokenExpired
// so the caller can clear the stored token, 404 becomes a not-found sentinel.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: status 401", shared.ErrTokenExpired)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrBookNotFound, path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Login exchanges credentials for a bearer token and user profile.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", shared.ErrInvalidInput)
	}

	body := map[string]string{"email": email, "password": password}

	var result LoginResult
	if err := c.doRequest(ctx, http.MethodPost, "/user/login", body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("%w: no token in response", shared.ErrAuthFailed)
	}

	return &result, nil
}

// Me validates the current token and returns the user profile.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	if !c.hasToken {
		return nil, shared.ErrNotAuthenticated
	}

	var user models.User
	if err := c.doRequest(ctx, http.MethodGet, "/user/me", nil, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// Books retrieves all books available to the authenticated user.
func (c *Client) Books(ctx context.Context) ([]models.Book, error) {
	var envelope struct {
		Books []models.Book `json:"books"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/booksManagement/books", nil, &envelope); err != nil {
		return nil, err
	}

	return envelope.Books, nil
}

// Chapters retrieves the chapter listing for a book.
func (c *Client) Chapters(ctx context.Context, bookID string) ([]models.Chapter, error) {
	if bookID == "" {
		return nil, fmt.Errorf("%w: book id required", shared.ErrMissingArgument)
	}

	var envelope struct {
		Chapters []models.Chapter `json:"chapters"`
	}
	path := fmt.Sprintf("/booksManagement/books/%s/chapters", url.PathEscape(bookID))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}

	return envelope.Chapters, nil
}

// progressPath returns the progress endpoint for a resource.
func progressPath(ref ResourceRef) string {
	id := url.PathEscape(ref.ID)
	if ref.Kind == KindChapter {
		return fmt.Sprintf("/audioStreaming/chapters/%s/progress", id)
	}
	return fmt.Sprintf("/audioStreaming/books/%s/progress", id)
}

// Progress fetches the saved progress record for a resource.
// Returns shared.ErrNoProgress when the backend has nothing saved.
func (c *Client) Progress(ctx context.Context, ref ResourceRef) (*ProgressRecord, error) {
	var envelope progressEnvelope
	if err := c.doRequest(ctx, http.MethodGet, progressPath(ref), nil, &envelope); err != nil {
		return nil, err
	}
	if envelope.Progress == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoProgress, ref)
	}

	return envelope.Progress, nil
}

// PushProgress writes the current position/status/speed for a resource.
func (c *Client) PushProgress(ctx context.Context, ref ResourceRef, update ProgressUpdate) error {
	var result pushResponse
	if err := c.doRequest(ctx, http.MethodPost, progressPath(ref), update, &result); err != nil {
		return err
	}
	if !bool(result.Success) {
		return fmt.Errorf("%w: push rejected for %s", shared.ErrAPIRequest, ref)
	}

	return nil
}

// StreamPath returns the streaming endpoint for a resource. A resumed book
// introduction goes through the books endpoint with the resume flag; a fresh
// start uses the bookintro endpoint. Chapters have a single endpoint.
func StreamPath(ref ResourceRef, resume bool) string {
	id := url.PathEscape(ref.ID)
	switch ref.Kind {
	case KindChapter:
		return fmt.Sprintf("/audioStreaming/chapters/%s/audio", id)
	default:
		if resume {
			return fmt.Sprintf("/audioStreaming/books/%s/audio?resume=true", id)
		}
		return fmt.Sprintf("/audioStreaming/bookintro/%s/audio", id)
	}
}

// StreamURL returns the absolute streaming URL for a resource.
func (c *Client) StreamURL(ref ResourceRef, resume bool) string {
	return c.baseURL + StreamPath(ref, resume)
}

// FetchStream downloads the full resource bytes with credentials attached.
// Used by the materialized streaming mode; callers should prefer StreamURL
// when the backend allows direct range requests.
func (c *Client) FetchStream(ctx context.Context, ref ResourceRef, resume bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.StreamURL(ref, resume), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: status 401", shared.ErrTokenExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream body: %w", err)
	}

	return data, nil
}

// RawResponse represents a raw API response with status and body. Used by the
// api debug commands.
type RawResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs a GET request to the specified path and returns the raw response.
func (c *Client) Get(ctx context.Context, path string) (*RawResponse, error) {
	return c.raw(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (c *Client) Post(ctx context.Context, path string, data []byte) (*RawResponse, error) {
	return c.raw(ctx, http.MethodPost, path, data)
}

func (c *Client) raw(ctx context.Context, method, path string, data []byte) (*RawResponse, error) {
	var reader io.Reader
	if data != nil {
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	raw := &RawResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		raw.IsJSON = true
		raw.JSONData = jsonData
	}

	return raw, nil
}
