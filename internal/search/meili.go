package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"mindcanvas/internal/logger"
)

const (
	idxMindMaps   = "mindcanvas_mindmaps"
	candidateSize = 1000
)

var errUnhealthy = errors.New("meilisearch unhealthy")

// Meili keeps the mind map index in Meilisearch and answers which map ids
// match a query.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
	log     *logger.Logger
}

// NewMeili creates a client and configures the index. A server that is down
// at startup is retried by the health loop; callers fall back meanwhile.
func NewMeili(url, apiKey string) *Meili {
	return newMeili(url, apiKey, 10*time.Second)
}

func newMeili(url, apiKey string, every time.Duration) *Meili {
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		done:   make(chan struct{}),
		log:    logger.New("search"),
	}

	if _, err := m.client.Health(); err != nil {
		m.log.Warn("meilisearch unavailable", map[string]interface{}{"url": url, "error": err})
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop(every)
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: idxMindMaps, PrimaryKey: "id"}); err != nil {
		m.log.Debug("create index (may already exist)", map[string]interface{}{"error": err})
	}
	index := m.client.Index(idxMindMaps)
	filterable := []interface{}{"ownerId", "collaborators"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		m.log.Warn("update filterable attributes", map[string]interface{}{"error": err})
	}
	searchable := []string{"title", "description", "nodeText", "tags"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		m.log.Warn("update searchable attributes", map[string]interface{}{"error": err})
	}
}

func (m *Meili) healthLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				m.log.Info("meilisearch recovered, reconfiguring index", nil)
				m.configureIndex()
			}
		}
	}
}

// Close stops the health loop.
func (m *Meili) Close() {
	close(m.done)
}

func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Candidates returns the ids of maps visible to userID that match text.
func (m *Meili) Candidates(text, userID string) ([]string, error) {
	if !m.healthy.Load() {
		return nil, errUnhealthy
	}
	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{{
			IndexUID:             idxMindMaps,
			Query:                text,
			Limit:                candidateSize,
			AttributesToRetrieve: []string{"id"},
			Filter:               fmt.Sprintf("ownerId = %q OR collaborators = %q", userID, userID),
		}},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	var ids []string
	for _, sr := range resp.Results {
		for _, hit := range sr.Hits {
			var id string
			if raw, ok := hit["id"]; ok && json.Unmarshal(raw, &id) == nil {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (m *Meili) Index(r Record) error {
	_, err := m.client.Index(idxMindMaps).AddDocuments([]Record{r}, nil)
	return err
}

func (m *Meili) IndexAll(rs []Record) error {
	if len(rs) == 0 {
		return nil
	}
	_, err := m.client.Index(idxMindMaps).AddDocuments(rs, nil)
	return err
}

func (m *Meili) Delete(id string) error {
	_, err := m.client.Index(idxMindMaps).DeleteDocument(id, nil)
	return err
}
