package search

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindcanvas/internal/mindmap"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func mapOf(id, title, desc string, updated int, nodes []string, tags ...string) mindmap.MindMap {
	m := mindmap.MindMap{
		ID:          id,
		Title:       title,
		Description: desc,
		Tags:        tags,
		CreatedAt:   base,
		UpdatedAt:   base.Add(time.Duration(updated) * time.Hour),
	}
	for i, text := range nodes {
		m.Nodes = append(m.Nodes, mindmap.Node{ID: id + "-n" + string(rune('a'+i)), Text: text})
	}
	return m
}

func TestScore(t *testing.T) {
	m := mapOf("1", "Go Planning", "plan the go rewrite", 0, []string{"Go", "golang", "rust"}, "go", "Cargo", "misc")
	assert.Equal(t, float64(10+5+3*2+2*2), Score(m, "GO"))
	assert.Zero(t, Score(m, "python"))
	assert.Zero(t, Score(m, "   "))
}

func TestRankFiltersAndOrdersByRelevance(t *testing.T) {
	maps := []mindmap.MindMap{
		mapOf("tag-only", "Other", "", 5, nil, "ideas"),
		mapOf("title", "Ideas", "", 1, nil),
		mapOf("none", "Groceries", "", 9, []string{"milk"}),
		mapOf("node", "Misc", "", 3, []string{"more ideas", "ideas again"}),
	}

	resp := Rank(maps, Query{Text: "ideas"})
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "title", resp.Results[0].ID)
	assert.Equal(t, "node", resp.Results[1].ID)
	assert.Equal(t, "tag-only", resp.Results[2].ID)
	assert.Equal(t, float64(10), resp.Results[0].Score)
	assert.Equal(t, 2, resp.Results[1].NodeCount)
	assert.Equal(t, QueryInfo{SearchTerm: "ideas", SortBy: SortRelevance, SortOrder: "desc"}, resp.Query)
}

func TestRankSorts(t *testing.T) {
	maps := []mindmap.MindMap{
		mapOf("b", "beta", "", 2, nil),
		mapOf("a", "Alpha", "", 1, nil),
		mapOf("c", "gamma", "", 3, nil),
	}
	ids := func(r Response) []string {
		out := make([]string, len(r.Results))
		for i, res := range r.Results {
			out[i] = res.ID
		}
		return out
	}

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"empty query defaults to newest first", Query{}, []string{"c", "b", "a"}},
		{"title ascending ignores case", Query{SortBy: SortTitle, SortOrder: "asc"}, []string{"a", "b", "c"}},
		{"title descending", Query{SortBy: SortTitle}, []string{"c", "b", "a"}},
		{"updated ascending", Query{SortBy: SortUpdatedAt, SortOrder: "asc"}, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Rank(maps, tt.q)))
		})
	}
}

func TestRankPaginates(t *testing.T) {
	var maps []mindmap.MindMap
	for i := 0; i < 5; i++ {
		maps = append(maps, mapOf(string(rune('a'+i)), "map", "", i, nil))
	}

	resp := Rank(maps, Query{Page: 2, Limit: 2})
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "c", resp.Results[0].ID)
	assert.Equal(t, Pagination{CurrentPage: 2, TotalPages: 3, TotalResults: 5, Limit: 2, HasNextPage: true, HasPrevPage: true}, resp.Pagination)

	resp = Rank(maps, Query{Page: 9, Limit: 2})
	assert.Empty(t, resp.Results)
	assert.False(t, resp.Pagination.HasNextPage)

	resp = Rank(nil, Query{Text: "x"})
	assert.NotNil(t, resp.Results)
	assert.Zero(t, resp.Pagination.TotalPages)
}

func TestNormalizeClampsLimit(t *testing.T) {
	q := Query{Limit: 1000, SortBy: "bogus", Text: "x"}.Normalize()
	assert.Equal(t, MaxLimit, q.Limit)
	assert.Equal(t, SortRelevance, q.SortBy)
}

type fakeIndex struct {
	mu      sync.Mutex
	healthy bool
	ids     []string
	err     error
	indexed []string
	deleted []string
}

func (f *fakeIndex) Healthy() bool { return f.healthy }

func (f *fakeIndex) Candidates(text, userID string) ([]string, error) {
	return f.ids, f.err
}

func (f *fakeIndex) Index(r Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, r.ID)
	return nil
}

func (f *fakeIndex) IndexAll(rs []Record) error {
	for _, r := range rs {
		_ = f.Index(r)
	}
	return nil
}

func (f *fakeIndex) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) snapshot() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.indexed...), append([]string(nil), f.deleted...)
}

func TestServiceUsesIndexCandidates(t *testing.T) {
	visible := []mindmap.MindMap{
		mapOf("1", "Roadmap", "", 1, nil),
		mapOf("2", "Road trip", "", 2, nil),
	}
	idx := &fakeIndex{healthy: true, ids: []string{"1", "hidden"}}
	s := NewService(idx)

	resp := s.Search("u1", visible, Query{Text: "roadmpa"})
	require.Len(t, resp.Results, 1, "typo hit from the index is kept")
	assert.Equal(t, "1", resp.Results[0].ID)
}

func TestServiceFallsBackToScan(t *testing.T) {
	visible := []mindmap.MindMap{mapOf("1", "Roadmap", "", 1, nil), mapOf("2", "Other", "", 2, nil)}

	for name, s := range map[string]*Service{
		"no index":     NewService(nil),
		"unhealthy":    NewService(&fakeIndex{healthy: false}),
		"index errors": NewService(&fakeIndex{healthy: true, err: errors.New("boom")}),
	} {
		t.Run(name, func(t *testing.T) {
			resp := s.Search("u1", visible, Query{Text: "road"})
			require.Len(t, resp.Results, 1)
			assert.Equal(t, "1", resp.Results[0].ID)
		})
	}
}

func TestServiceIndexing(t *testing.T) {
	idx := &fakeIndex{healthy: true}
	s := NewService(idx)

	s.IndexMap(mapOf("1", "A", "", 0, nil))
	s.RemoveMap("2")
	s.Reindex([]mindmap.MindMap{mapOf("3", "C", "", 0, nil)})

	require.Eventually(t, func() bool {
		indexed, deleted := idx.snapshot()
		return len(indexed) == 2 && len(deleted) == 1
	}, time.Second, 5*time.Millisecond)

	idx.healthy = false
	s.IndexMap(mapOf("4", "D", "", 0, nil))
	s.Reindex([]mindmap.MindMap{mapOf("5", "E", "", 0, nil)})
	indexed, _ := idx.snapshot()
	assert.NotContains(t, indexed, "5")
}

func TestRecordOf(t *testing.T) {
	m := mapOf("1", "T", "D", 0, []string{"a", "", "b"}, "x")
	m.OwnerID = "u1"
	m.Collaborators = []string{"u2"}
	r := RecordOf(m)
	assert.Equal(t, []string{"a", "b"}, r.NodeText)
	assert.Equal(t, "u1", r.OwnerID)
	assert.Equal(t, base.Unix(), r.UpdatedAt)
}

func TestMeiliUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := newMeili(srv.URL, "key", time.Hour)
	defer m.Close()

	assert.False(t, m.Healthy())
	_, err := m.Candidates("x", "u1")
	assert.ErrorIs(t, err, errUnhealthy)

	resp := NewService(m).Search("u1", []mindmap.MindMap{mapOf("1", "x marks", "", 0, nil)}, Query{Text: "x"})
	assert.Len(t, resp.Results, 1)
}
