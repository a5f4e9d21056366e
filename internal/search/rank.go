package search

import (
	"sort"
	"strings"

	"mindcanvas/internal/mindmap"
)

const (
	weightTitle       = 10
	weightDescription = 5
	weightNode        = 3
	weightTag         = 2
)

// Score weighs case-insensitive substring matches of text in m: the title
// counts 10, the description 5, each matching node 3 and each matching tag 2.
func Score(m mindmap.MindMap, text string) float64 {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return 0
	}
	contains := func(s string) bool { return strings.Contains(strings.ToLower(s), needle) }

	score := 0
	if contains(m.Title) {
		score += weightTitle
	}
	if contains(m.Description) {
		score += weightDescription
	}
	for _, n := range m.Nodes {
		if contains(n.Text) {
			score += weightNode
		}
	}
	for _, tag := range m.Tags {
		if contains(tag) {
			score += weightTag
		}
	}
	return float64(score)
}

// Rank filters maps to those matching q.Text (all of them when it is empty),
// orders them and cuts out the requested page.
func Rank(maps []mindmap.MindMap, q Query) Response {
	return rank(maps, q, true)
}

func rank(maps []mindmap.MindMap, q Query, filter bool) Response {
	q = q.Normalize()
	text := strings.TrimSpace(q.Text)

	hits := make([]Result, 0, len(maps))
	for _, m := range maps {
		score := Score(m, text)
		if filter && text != "" && score == 0 {
			continue
		}
		hits = append(hits, resultOf(m, score))
	}
	sortResults(hits, q.SortBy, q.SortOrder == "asc")
	return paginate(hits, q)
}

func resultOf(m mindmap.MindMap, score float64) Result {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return Result{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		OwnerID:     m.OwnerID,
		Tags:        tags,
		NodeCount:   len(m.Nodes),
		Score:       score,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func sortResults(hits []Result, by SortBy, asc bool) {
	less := func(a, b Result) bool {
		switch by {
		case SortRelevance:
			if a.Score != b.Score {
				return a.Score < b.Score
			}
			return a.UpdatedAt.Before(b.UpdatedAt)
		case SortTitle:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		case SortCreatedAt:
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.UpdatedAt.Before(b.UpdatedAt)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if asc {
			return less(hits[i], hits[j])
		}
		return less(hits[j], hits[i])
	})
}

func paginate(hits []Result, q Query) Response {
	total := len(hits)
	pages := (total + q.Limit - 1) / q.Limit
	start := (q.Page - 1) * q.Limit
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return Response{
		Results: hits[start:end],
		Pagination: Pagination{
			CurrentPage:  q.Page,
			TotalPages:   pages,
			TotalResults: total,
			Limit:        q.Limit,
			HasNextPage:  q.Page < pages,
			HasPrevPage:  q.Page > 1,
		},
		Query: QueryInfo{SearchTerm: q.Text, SortBy: q.SortBy, SortOrder: q.SortOrder},
	}
}
