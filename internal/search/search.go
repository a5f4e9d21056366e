// Package search ranks a user's mind maps against a text query. A
// Meilisearch index narrows the candidates when it is reachable; scoring and
// pagination always happen here so both paths order results the same way.
package search

import (
	"time"

	"mindcanvas/internal/mindmap"
)

type SortBy string

const (
	SortRelevance SortBy = "relevance"
	SortTitle     SortBy = "title"
	SortCreatedAt SortBy = "createdAt"
	SortUpdatedAt SortBy = "updatedAt"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Query describes a search request.
type Query struct {
	Text      string
	SortBy    SortBy
	SortOrder string // "asc" or "desc"
	Page      int
	Limit     int
}

// Normalize fills defaults: relevance ordering when there is text,
// updatedAt otherwise, descending, page 1 and DefaultLimit.
func (q Query) Normalize() Query {
	switch q.SortBy {
	case SortRelevance, SortTitle, SortCreatedAt, SortUpdatedAt:
	default:
		if q.Text != "" {
			q.SortBy = SortRelevance
		} else {
			q.SortBy = SortUpdatedAt
		}
	}
	if q.SortOrder != "asc" {
		q.SortOrder = "desc"
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// Result is a single hit returned to the caller.
type Result struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     string    `json:"ownerId"`
	Tags        []string  `json:"tags"`
	NodeCount   int       `json:"nodeCount"`
	Score       float64   `json:"score"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalResults int  `json:"totalResults"`
	Limit        int  `json:"limit"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
}

type QueryInfo struct {
	SearchTerm string `json:"searchTerm"`
	SortBy     SortBy `json:"sortBy"`
	SortOrder  string `json:"sortOrder"`
}

// Response is the body of the search endpoint.
type Response struct {
	Results    []Result   `json:"results"`
	Pagination Pagination `json:"pagination"`
	Query      QueryInfo  `json:"query"`
}

// Record is what gets pushed into the external index for one map.
type Record struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	NodeText      []string `json:"nodeText"`
	Tags          []string `json:"tags"`
	OwnerID       string   `json:"ownerId"`
	Collaborators []string `json:"collaborators"`
	UpdatedAt     int64    `json:"updatedAt"`
}

func RecordOf(m mindmap.MindMap) Record {
	text := make([]string, 0, len(m.Nodes))
	for _, n := range m.Nodes {
		if n.Text != "" {
			text = append(text, n.Text)
		}
	}
	return Record{
		ID:            m.ID,
		Title:         m.Title,
		Description:   m.Description,
		NodeText:      text,
		Tags:          m.Tags,
		OwnerID:       m.OwnerID,
		Collaborators: m.Collaborators,
		UpdatedAt:     m.UpdatedAt.Unix(),
	}
}
