// Package client provides a typed Gateway client for the notes service and
// the incremental paginated search/list controller used by the note
// homepage feed and search pages.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"notehub-api/models"
	"notehub-api/types"
)

// defaultTimeout bounds every Gateway request; expiry surfaces as an
// ordinary network error.
const defaultTimeout = 10 * time.Second

// Client talks to the notes service over JSON/HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer token used for authenticated endpoints.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken updates the bearer token, e.g. after login.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// APIError is a backend failure carrying the server's message.
type APIError struct {
	StatusCode int
	Message    string
	Issues     []string
}

func (e *APIError) Error() string {
	if len(e.Issues) > 0 {
		return fmt.Sprintf("server returned %d: %s (%d issues)", e.StatusCode, e.Message, len(e.Issues))
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	var envelope struct {
		Error interface{} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != nil {
		switch v := envelope.Error.(type) {
		case string:
			apiErr.Message = v
		case map[string]interface{}:
			if msg, ok := v["message"].(string); ok {
				apiErr.Message = msg
			}
			if issues, ok := v["issues"].([]interface{}); ok {
				for _, issue := range issues {
					if s, ok := issue.(string); ok {
						apiErr.Issues = append(apiErr.Issues, s)
					}
				}
			}
		}
	}
	return apiErr
}

// HomepageFeed fetches one page of the published feed starting at offset.
func (c *Client) HomepageFeed(ctx context.Context, offset int) (*types.HomepageResponse, error) {
	var out types.HomepageResponse
	path := "/home/notes?offset=" + strconv.Itoa(offset)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchNotes fetches one page of search results. A nil offset starts from
// the beginning; the response's search_offset is nil on the last page.
func (c *Client) SearchNotes(ctx context.Context, query string, offset *int) (*types.SearchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	if offset != nil {
		params.Set("offset", strconv.Itoa(*offset))
	}
	var out types.SearchResponse
	if err := c.do(ctx, http.MethodGet, "/home/search?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NoteByURL fetches the public single-note page payload.
func (c *Client) NoteByURL(ctx context.Context, urlFragment string) (*types.NotePageResponse, error) {
	var out types.NotePageResponse
	if err := c.do(ctx, http.MethodGet, "/home/notes/"+url.PathEscape(urlFragment), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthorPage fetches one page of an author's published notes.
func (c *Client) AuthorPage(ctx context.Context, username string, offset int) (*types.AuthorPageResponse, error) {
	var out types.AuthorPageResponse
	path := "/home/authors/" + url.PathEscape(username) + "?offset=" + strconv.Itoa(offset)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Dashboard fetches the caller's draft and published summaries with counts.
func (c *Client) Dashboard(ctx context.Context) (*types.DashboardResponse, error) {
	var out types.DashboardResponse
	if err := c.do(ctx, http.MethodGet, "/notes", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateDraft creates an empty draft and returns its id.
func (c *Client) CreateDraft(ctx context.Context) (string, error) {
	var out types.CreateNoteResponse
	if err := c.do(ctx, http.MethodPost, "/notes", nil, &out); err != nil {
		return "", err
	}
	return out.NoteID, nil
}

// GetNote fetches a note for the editor page.
func (c *Client) GetNote(ctx context.Context, noteID string) (*models.Note, error) {
	var out types.NoteDataResponse
	if err := c.do(ctx, http.MethodGet, "/notes/"+noteID, nil, &out); err != nil {
		return nil, err
	}
	return &out.NoteDict, nil
}

// UpdateNote applies a change dict and publish-status transition and returns
// the updated note.
func (c *Client) UpdateNote(ctx context.Context, noteID string, publish bool, change models.NoteChange) (*models.Note, error) {
	req := types.UpdateNoteRequest{NewPublishStatus: publish, ChangeDict: change}
	var out types.UpdateNoteResponse
	if err := c.do(ctx, http.MethodPut, "/notes/"+noteID, req, &out); err != nil {
		return nil, err
	}
	return &out.Note, nil
}

// DeleteNote removes a note.
func (c *Client) DeleteNote(ctx context.Context, noteID string) error {
	var out types.DeleteNoteResponse
	return c.do(ctx, http.MethodDelete, "/notes/"+noteID, nil, &out)
}

// TitleExists reports whether another note already uses the given title.
func (c *Client) TitleExists(ctx context.Context, noteID, title string) (bool, error) {
	params := url.Values{}
	params.Set("title", title)
	var out types.TitleExistsResponse
	if err := c.do(ctx, http.MethodGet, "/notes/"+noteID+"/title-exists?"+params.Encode(), nil, &out); err != nil {
		return false, err
	}
	return out.NoteExists, nil
}
