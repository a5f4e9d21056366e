package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"mindcanvas/internal/apperr"
	"mindcanvas/internal/mindmap"
)

// Remote is the persistence service as the adapter sees it.
type Remote interface {
	List(ctx context.Context) ([]mindmap.MindMap, error)
	Get(ctx context.Context, id string) (mindmap.MindMap, error)
	Create(ctx context.Context, req CreateRequest) (mindmap.MindMap, error)
	Update(ctx context.Context, m mindmap.MindMap) (mindmap.MindMap, error)
	Delete(ctx context.Context, id string) error
}

// CreateRequest is the body of POST /mindmaps.
type CreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	IsPublic    bool     `json:"isPublic,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	TemplateID  string   `json:"templateId,omitempty"`
}

// UpdateRequest is the body of PUT /mindmaps/:id. Nil fields are left
// unchanged by the server.
type UpdateRequest struct {
	Title       *string              `json:"title,omitempty"`
	Description *string              `json:"description,omitempty"`
	IsPublic    *bool                `json:"isPublic,omitempty"`
	Tags        []string             `json:"tags"`
	Nodes       []mindmap.Node       `json:"nodes"`
	Connections []mindmap.Connection `json:"connections"`
	Canvas      *mindmap.CanvasState `json:"canvas,omitempty"`
}

// FullUpdate is an UpdateRequest carrying every editable field of m.
func FullUpdate(m mindmap.MindMap) UpdateRequest {
	canvas := m.Canvas
	title, desc, public := m.Title, m.Description, m.IsPublic
	nodes := m.Nodes
	if nodes == nil {
		nodes = []mindmap.Node{}
	}
	conns := m.Connections
	if conns == nil {
		conns = []mindmap.Connection{}
	}
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return UpdateRequest{
		Title:       &title,
		Description: &desc,
		IsPublic:    &public,
		Tags:        tags,
		Nodes:       nodes,
		Connections: conns,
		Canvas:      &canvas,
	}
}

// User is the account returned by the auth endpoints.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResult is the payload of a successful login or registration.
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// envelope is the response wrapper every API route uses.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

// HTTPRemote talks to the persistence service over HTTP with a bearer token.
type HTTPRemote struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPRemote(baseURL, token string) *HTTPRemote {
	return &HTTPRemote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		token:      token,
	}
}

// WithHTTPClient replaces the client used for requests.
func (r *HTTPRemote) WithHTTPClient(c *http.Client) *HTTPRemote {
	r.httpClient = c
	return r
}

func (r *HTTPRemote) SetToken(token string) {
	r.mu.Lock()
	r.token = token
	r.mu.Unlock()
}

func (r *HTTPRemote) Token() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.token
}

func (r *HTTPRemote) List(ctx context.Context) ([]mindmap.MindMap, error) {
	var out []mindmap.MindMap
	if err := r.do(ctx, http.MethodGet, "/mindmaps", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *HTTPRemote) Get(ctx context.Context, id string) (mindmap.MindMap, error) {
	var out mindmap.MindMap
	err := r.do(ctx, http.MethodGet, "/mindmaps/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (r *HTTPRemote) Create(ctx context.Context, req CreateRequest) (mindmap.MindMap, error) {
	var out mindmap.MindMap
	err := r.do(ctx, http.MethodPost, "/mindmaps", req, &out)
	return out, err
}

func (r *HTTPRemote) Update(ctx context.Context, m mindmap.MindMap) (mindmap.MindMap, error) {
	var out mindmap.MindMap
	err := r.do(ctx, http.MethodPut, "/mindmaps/"+url.PathEscape(m.ID), FullUpdate(m), &out)
	return out, err
}

func (r *HTTPRemote) Delete(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodDelete, "/mindmaps/"+url.PathEscape(id), nil, nil)
}

// Login exchanges credentials for a token and starts using it.
func (r *HTTPRemote) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := r.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return AuthResult{}, err
	}
	r.SetToken(out.Token)
	return out, nil
}

// Register creates an account and starts using its token.
func (r *HTTPRemote) Register(ctx context.Context, name, email, password string) (AuthResult, error) {
	var out AuthResult
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := r.do(ctx, http.MethodPost, "/auth/register", body, &out); err != nil {
		return AuthResult{}, err
	}
	r.SetToken(out.Token)
	return out, nil
}

// Logout revokes the current token on the server and forgets it locally.
func (r *HTTPRemote) Logout(ctx context.Context) error {
	err := r.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	r.SetToken("")
	return err
}

// SearchResult is one hit of GET /mindmaps/search.
type SearchResult struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Score       float64   `json:"score"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type searchPage struct {
	Results []SearchResult `json:"results"`
}

// Search runs a relevance search over the caller's maps.
func (r *HTTPRemote) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	var out searchPage
	if err := r.do(ctx, http.MethodGet, "/mindmaps/search?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (r *HTTPRemote) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := r.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return apperr.Network(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Network(err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode >= 300 {
				return apperr.FromStatus(resp.StatusCode, http.StatusText(resp.StatusCode))
			}
			return apperr.Network(fmt.Errorf("decode response: %w", err))
		}
	}

	if resp.StatusCode >= 300 || (len(raw) > 0 && !env.Success) {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		e := apperr.FromStatus(resp.StatusCode, msg)
		if len(env.Details) > 0 {
			e.Details = env.Details
		}
		return e
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperr.Network(fmt.Errorf("decode data: %w", err))
	}
	return nil
}
