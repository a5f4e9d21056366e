package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindcanvas/internal/auth"
	"mindcanvas/internal/events"
	"mindcanvas/internal/export"
	"mindcanvas/internal/logger"
	"mindcanvas/internal/mindmap"
	"mindcanvas/internal/store"
	"mindcanvas/internal/syncer"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.SetOutput(io.Discard)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

type testEnv struct {
	t      *testing.T
	router *gin.Engine
	events *events.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	rec := &events.Recorder{}
	srv := New(Deps{
		Store:    st,
		Issuer:   auth.NewIssuer("test-secret", time.Hour),
		Events:   rec,
		Exporter: export.NewService("/nonexistent/chromium"),
	})
	return &testEnv{t: t, router: srv.Router(), events: rec}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	env := decode(t, w)
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
}

type authData struct {
	User  store.User `json:"user"`
	Token string     `json:"token"`
}

func (e *testEnv) register(name, email string) authData {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": name, "email": email, "password": "secret123"})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	var out authData
	decodeData(e.t, w, &out)
	return out
}

func (e *testEnv) createMap(token string, body gin.H) mindmap.MindMap {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/mindmaps", token, body)
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	var m mindmap.MindMap
	decodeData(e.t, w, &m)
	return m
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	ada := env.register("Ada", "ada@example.com")
	assert.NotEmpty(t, ada.Token)
	assert.Equal(t, "ada@example.com", ada.User.Email)

	w := env.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": "Ada", "email": "ADA@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists with this email", decode(t, w).Error)

	w = env.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": "Bo", "email": "bo@example.com", "password": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Contains(t, string(body.Details), "password")

	w = env.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "x@example.com"})
	assert.Equal(t, "Name, email and password are required", decode(t, w).Error)

	w = env.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w).Error)

	w = env.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "nobody@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	var login authData
	decodeData(t, w, &login)
	assert.Equal(t, ada.User.ID, login.User.ID)
	assert.NotContains(t, w.Body.String(), "passwordHash")

	w = env.do(http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		User store.User `json:"user"`
	}
	decodeData(t, w, &me)
	assert.Equal(t, "Ada", me.User.Name)
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/mindmaps", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode(t, w)
	assert.False(t, body.Success)
	assert.Equal(t, "UNAUTHORIZED", body.Code)

	w = env.do(http.MethodGet, "/api/mindmaps", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", decode(t, w).Error)

	expired, _, err := auth.NewIssuer("test-secret", -time.Minute).Issue("u1", "u1@example.com")
	require.NoError(t, err)
	w = env.do(http.MethodGet, "/api/mindmaps", expired, nil)
	assert.Equal(t, "Token has expired", decode(t, w).Error)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	ada := env.register("Ada", "ada@example.com")

	w := env.do(http.MethodPost, "/api/auth/logout", ada.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/api/auth/me", ada.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token has been revoked", decode(t, w).Error)
}

func TestMindMapLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ada := env.register("Ada", "ada@example.com")
	bob := env.register("Bob", "bob@example.com")

	w := env.do(http.MethodPost, "/api/mindmaps", ada.Token, gin.H{"title": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Title is required", decode(t, w).Error)

	m := env.createMap(ada.Token, gin.H{"title": "Roadmap", "description": "2025 plans", "tags": []string{"work"}})
	assert.Equal(t, ada.User.ID, m.OwnerID)
	assert.Equal(t, 1, m.Version)
	assert.Empty(t, m.Nodes, "the client seeds the root")
	assert.Equal(t, []string{"work"}, m.Tags)

	w = env.do(http.MethodGet, "/api/mindmaps", ada.Token, nil)
	var list []mindmap.MindMap
	decodeData(t, w, &list)
	require.Len(t, list, 1)

	w = env.do(http.MethodGet, "/api/mindmaps/"+m.ID, bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	e := mindmap.NewEngine()
	doc, _ := e.SeedRoot(m, "Roadmap")
	w = env.do(http.MethodPut, "/api/mindmaps/"+m.ID, ada.Token, gin.H{"title": "Roadmap v2", "nodes": doc.Nodes})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated mindmap.MindMap
	decodeData(t, w, &updated)
	assert.Equal(t, "Roadmap v2", updated.Title)
	assert.Equal(t, "2025 plans", updated.Description, "absent fields are kept")
	assert.Equal(t, 2, updated.Version)
	assert.Len(t, updated.Nodes, 1)

	w = env.do(http.MethodPut, "/api/mindmaps/"+m.ID, ada.Token, gin.H{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(decode(t, w).Details), "title")

	w = env.do(http.MethodPut, "/api/mindmaps/"+m.ID, bob.Token, gin.H{"title": "mine"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(http.MethodDelete, "/api/mindmaps/"+m.ID, bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodDelete, "/api/mindmaps/"+m.ID, ada.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/api/mindmaps/"+m.ID, ada.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var types []events.Type
	for _, ev := range env.events.Events() {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []events.Type{events.MindMapCreated, events.MindMapUpdated, events.MindMapDeleted}, types)
}

func TestSaveThroughAdapterKeepsDeletions(t *testing.T) {
	env := newTestEnv(t)
	ada := env.register("Ada", "ada@example.com")
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx := context.Background()
	a := syncer.New(syncer.NewHTTPRemote(srv.URL+"/api/", ada.Token), nil)
	doc, err := a.Create(ctx, syncer.CreateRequest{Title: "Plans", Tags: []string{"work"}})
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 1)

	e := mindmap.NewEngine()
	root := doc.Nodes[0].ID
	doc, child := e.AddChild(doc, root, "Child")
	doc, conn, ok := e.CreateConnection(doc, root, child.ID)
	require.True(t, ok)
	doc, err = a.Save(ctx, doc)
	require.NoError(t, err)

	server := func() mindmap.MindMap {
		t.Helper()
		w := env.do(http.MethodGet, "/api/mindmaps/"+doc.ID, ada.Token, nil)
		var m mindmap.MindMap
		decodeData(t, w, &m)
		return m
	}
	got := server()
	assert.Len(t, got.Nodes, 2)
	assert.Len(t, got.Connections, 1)

	doc = e.DeleteConnection(doc, conn.ID)
	doc.Tags = nil
	doc, err = a.Save(ctx, doc)
	require.NoError(t, err)
	assert.Empty(t, doc.Connections)
	got = server()
	assert.Len(t, got.Nodes, 2)
	assert.Empty(t, got.Connections, "last connection removed")
	assert.Empty(t, got.Tags, "last tag removed")

	doc = e.DeleteNodes(doc, []string{root, child.ID})
	require.Empty(t, doc.Nodes)
	doc, err = a.Save(ctx, doc)
	require.NoError(t, err)
	assert.Empty(t, doc.Nodes)
	got = server()
	assert.Empty(t, got.Nodes, "every node removed")
	assert.Empty(t, got.Connections)
}

func TestPublicMapIsReadOnlyForOthers(t *testing.T) {
	env := newTestEnv(t)
	ada := env.register("Ada", "ada@example.com")
	bob := env.register("Bob", "bob@example.com")
	m := env.createMap(ada.Token, gin.H{"title": "Shared", "isPublic": true})

	w := env.do(http.MethodGet, "/api/mindmaps/"+m.ID, bob.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodPut, "/api/mindmaps/"+m.ID, bob.Token, gin.H{"title": "Hijacked"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateFromTemplate(t *testing.T) {
	env := newTestEnv(t)
	ada := env.register("Ada", "ada@example.com")

	m := env.createMap(ada.Token, gin.H{"title": "Launch", "templateId": "project-planning"})
	assert.Equal(t, "Launch", m.Title)
	assert.Len(t, m.Nodes, 8)
	assert.Len(t, m.Connections, 7)
	assert.Contains(t, m.Tags, "from-template")

	w := env.do(http.MethodPost, "/api/mindmaps", ada.Token, gin.H{"title": "x", "templateId": "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportOutline(t *testing.T) {
	env := newTestEnv(t)
	ada := env.register("Ada", "ada@example.com")

	w := env.do(http.MethodPost, "/api/mindmaps/import", ada.Token, gin.H{"outline": "Trip\n  Flights\n  Hotel\n    Booking\n"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var m mindmap.MindMap
	decodeData(t, w, &m)
	assert.Equal(t, "Trip", m.Title)
	assert.Len(t, m.Nodes, 4)
	assert.Equal(t, ada.User.ID, m.OwnerID)

	w = env.do(http.MethodPost, "/api/mindmaps/import", ada.Token, gin.H{"title": "Empty", "outline": "\n\n"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCollaborators(t *testing.T) {
	env := newTestEnv(t)
	ada := env.register("Ada", "ada@example.com")
	bob := env.register("Bob", "bob@example.com")
	m := env.createMap(ada.Token, gin.H{"title": "Team"})
	path := "/api/mindmaps/" + m.ID + "/collaborators"

	tests := []struct {
		name   string
		token  string
		body   gin.H
		status int
		error  string
	}{
		{"missing email", ada.Token, gin.H{}, http.StatusBadRequest, "Email is required"},
		{"not the owner", bob.Token, gin.H{"email": "ada@example.com"}, http.StatusNotFound, "Mind map not found or you do not have permission to add collaborators"},
		{"unknown user", ada.Token, gin.H{"email": "zed@example.com"}, http.StatusNotFound, "User not found with this email"},
		{"self", ada.Token, gin.H{"email": "ada@example.com"}, http.StatusBadRequest, "You cannot add yourself as a collaborator"},
		{"added", ada.Token, gin.H{"email": "bob@example.com"}, http.StatusOK, ""},
		{"duplicate", ada.Token, gin.H{"email": "BOB@example.com"}, http.StatusBadRequest, "User is already a collaborator"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, path, tt.token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.error, decode(t, w).Error)
		})
	}

	w := env.do(http.MethodGet, "/api/mindmaps/"+m.ID, bob.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, path, bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var members struct {
		Owner         store.User   `json:"owner"`
		Collaborators []store.User `json:"collaborators"`
	}
	decodeData(t, w, &members)
	assert.Equal(t, "Ada", members.Owner.Name)
	require.Len(t, members.Collaborators, 1)
	assert.Equal(t, bob.User.ID, members.Collaborators[0].ID)

	w = env.do(http.MethodDelete, path+"/"+ada.User.ID, ada.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodDelete, path+"/"+bob.User.ID, ada.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodDelete, path+"/"+bob.User.ID, ada.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(http.MethodGet, "/api/mindmaps/"+m.ID, bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var subjects []string
	for _, ev := range env.events.Events() {
		if ev.Type == events.CollaboratorAdded || ev.Type == events.CollaboratorRemoved {
			subjects = append(subjects, ev.Subject)
		}
	}
	assert.Equal(t, []string{bob.User.ID, bob.User.ID}, subjects)
}

func TestSearchEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ada := env.register("Ada", "ada@example.com")
	bob := env.register("Bob", "bob@example.com")
	env.createMap(ada.Token, gin.H{"title": "Beta", "description": "launch checklist"})
	env.createMap(ada.Token, gin.H{"title": "Alpha launch"})
	env.createMap(ada.Token, gin.H{"title": "Unrelated"})
	env.createMap(bob.Token, gin.H{"title": "Bob's launch"})

	w := env.do(http.MethodGet, "/api/mindmaps/search?q=LAUNCH", ada.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Results []struct {
			Title string  `json:"title"`
			Score float64 `json:"score"`
		} `json:"results"`
		Pagination struct {
			TotalResults int `json:"totalResults"`
		} `json:"pagination"`
		Query struct {
			SortBy string `json:"sortBy"`
		} `json:"query"`
	}
	decodeData(t, w, &res)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "Alpha launch", res.Results[0].Title)
	assert.Equal(t, float64(10), res.Results[0].Score)
	assert.Equal(t, float64(5), res.Results[1].Score)
	assert.Equal(t, 2, res.Pagination.TotalResults)
	assert.Equal(t, "relevance", res.Query.SortBy)

	w = env.do(http.MethodGet, "/api/mindmaps/search?limit=abc", ada.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ada := env.register("Ada", "ada@example.com")
	full := env.createMap(ada.Token, gin.H{"title": "Plan A", "templateId": "brainstorming"})
	empty := env.createMap(ada.Token, gin.H{"title": "Empty"})

	w := env.do(http.MethodGet, "/api/mindmaps/"+full.ID+"/export/svg", ada.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Plan-A.svg"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "<svg")

	w = env.do(http.MethodGet, "/api/mindmaps/"+full.ID+"/export/JSON", ada.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc mindmap.MindMap
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, full.ID, doc.ID)

	w = env.do(http.MethodGet, "/api/mindmaps/"+empty.ID+"/export/png", ada.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No nodes to export", decode(t, w).Error)

	w = env.do(http.MethodGet, "/api/mindmaps/"+full.ID+"/export/pdf", ada.Token, nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "NOT_IMPLEMENTED", decode(t, w).Code)

	w = env.do(http.MethodGet, "/api/mindmaps/"+full.ID+"/export/docx", ada.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTemplateRoutes(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/templates", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Templates  []struct{ ID string } `json:"templates"`
		Categories []string              `json:"categories"`
	}
	decodeData(t, w, &list)
	assert.Len(t, list.Templates, 4)
	assert.Contains(t, list.Categories, "Business")

	w = env.do(http.MethodGet, "/api/templates?category=Business", "", nil)
	decodeData(t, w, &list)
	assert.Len(t, list.Templates, 2)

	w = env.do(http.MethodGet, "/api/templates/swot-analysis", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/api/templates/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndCORS(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "OK", health["status"])
	assert.Equal(t, Version, health["version"])

	w = env.do(http.MethodOptions, "/api/mindmaps", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
