package search

import (
	"mindcanvas/internal/logger"
	"mindcanvas/internal/mindmap"
)

// Index is the external full-text index. *Meili implements it.
type Index interface {
	Healthy() bool
	Candidates(text, userID string) ([]string, error)
	Index(r Record) error
	IndexAll(rs []Record) error
	Delete(id string) error
}

// Service tries the index first and falls back to scanning the maps it is
// handed.
type Service struct {
	index Index
	log   *logger.Logger
}

// NewService creates a search service. index may be nil.
func NewService(index Index) *Service {
	return &Service{index: index, log: logger.New("search")}
}

func (s *Service) ready() bool {
	return s.index != nil && s.index.Healthy()
}

// Search ranks visible, the maps userID may see, against q.
func (s *Service) Search(userID string, visible []mindmap.MindMap, q Query) Response {
	if q.Text != "" && s.ready() {
		ids, err := s.index.Candidates(q.Text, userID)
		if err == nil {
			// The index may match typos the substring scorer misses, so its
			// hits are kept even when they score zero.
			return rank(restrict(visible, ids), q, false)
		}
		s.log.Warn("index search failed, falling back to scan", map[string]interface{}{"error": err})
	}
	return Rank(visible, q)
}

func restrict(maps []mindmap.MindMap, ids []string) []mindmap.MindMap {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	out := make([]mindmap.MindMap, 0, len(ids))
	for _, m := range maps {
		if keep[m.ID] {
			out = append(out, m)
		}
	}
	return out
}

// IndexMap pushes m to the index in the background.
func (s *Service) IndexMap(m mindmap.MindMap) {
	if !s.ready() {
		return
	}
	r := RecordOf(m)
	go func() {
		if err := s.index.Index(r); err != nil {
			s.log.Warn("index mind map", map[string]interface{}{"id": r.ID, "error": err})
		}
	}()
}

// RemoveMap drops id from the index in the background.
func (s *Service) RemoveMap(id string) {
	if !s.ready() {
		return
	}
	go func() {
		if err := s.index.Delete(id); err != nil {
			s.log.Warn("remove mind map from index", map[string]interface{}{"id": id, "error": err})
		}
	}()
}

// Reindex pushes every map synchronously. Used at startup.
func (s *Service) Reindex(maps []mindmap.MindMap) {
	if !s.ready() {
		return
	}
	rs := make([]Record, len(maps))
	for i, m := range maps {
		rs[i] = RecordOf(m)
	}
	if err := s.index.IndexAll(rs); err != nil {
		s.log.Warn("reindex", map[string]interface{}{"count": len(rs), "error": err})
	}
}
