// Package search keeps document titles in Meilisearch and serves scoped
// title searches from it.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"serwer-dokumentow/internal/models"

	meili "github.com/meilisearch/meilisearch-go"
)

var (
	ErrUnavailable = errors.New("meilisearch unavailable")
	// ErrStale is returned by Search while writes dropped during an outage
	// have not been replayed yet.
	ErrStale = errors.New("meilisearch index out of date")
)

const resyncBatch = 500

// Source lists every document in id order, in batches after afterID.
type Source interface {
	ListAllDocuments(ctx context.Context, afterID string, limit int) ([]models.Document, error)
}

type record struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	OrganizationID string `json:"organizationId"`
	OwnerID        string `json:"ownerId"`
}

func toRecord(doc models.Document) record {
	return record{
		ID:             doc.ID,
		Title:          doc.Title,
		OrganizationID: doc.OrganizationID,
		OwnerID:        doc.OwnerID,
	}
}

// Meili implements tree.SearchIndex. Writes are fire-and-forget; a failed
// search marks the index unhealthy until the health loop sees it recover.
// Writes that cannot reach Meilisearch mark the index stale, and searches
// report ErrStale until a resync from the Source has replayed them.
type Meili struct {
	client   meili.ServiceManager
	indexUID string
	logger   *slog.Logger
	source   Source
	healthy  atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	interval time.Duration

	mu       sync.Mutex
	stale    bool
	dropped  uint64
	removals map[string]struct{}
}

type Option func(*Meili)

// WithHealthInterval ignores non-positive durations.
func WithHealthInterval(d time.Duration) Option {
	return func(m *Meili) {
		if d > 0 {
			m.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Meili) { m.logger = logger }
}

// WithSource lets the index rebuild itself after an outage.
func WithSource(src Source) Option {
	return func(m *Meili) { m.source = src }
}

func NewMeili(url, apiKey, indexUID string, opts ...Option) *Meili {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Meili{
		client:   meili.New(url, meili.WithAPIKey(apiKey)),
		indexUID: indexUID,
		logger:   slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
		interval: 10 * time.Second,
		removals: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	if _, err := m.client.Health(); err != nil {
		m.logger.Warn("meilisearch unavailable", "url", url, "error", err)
		m.healthy.Store(false)
		// Writes may have been missed while nothing was watching.
		m.markStale()
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        m.indexUID,
		PrimaryKey: "id",
	}); err != nil {
		m.logger.Debug("create index (may already exist)", "index", m.indexUID, "error", err)
	}

	index := m.client.Index(m.indexUID)
	filterable := []interface{}{"organizationId", "ownerId"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		m.logger.Warn("update filterable attributes", "index", m.indexUID, "error", err)
	}
	searchable := []string{"title"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		m.logger.Warn("update searchable attributes", "index", m.indexUID, "error", err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err != nil {
				continue
			}
			if !wasHealthy {
				m.logger.Info("meilisearch recovered, reconfiguring index", "index", m.indexUID)
				m.configureIndex()
			}
			if m.Stale() && m.source != nil {
				count, err := m.Resync(m.ctx)
				if err != nil {
					m.logger.Warn("resync search index", "index", m.indexUID, "error", err)
					continue
				}
				m.logger.Info("search index resynced", "index", m.indexUID, "documents", count)
			}
		}
	}
}

func (m *Meili) Close() {
	m.cancel()
}

func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Stale reports whether some write never reached Meilisearch.
func (m *Meili) Stale() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stale
}

func (m *Meili) markStale(removedIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stale = true
	m.dropped++
	for _, id := range removedIDs {
		m.removals[id] = struct{}{}
	}
}

// Search returns ids of documents in scope whose title matches text.
func (m *Meili) Search(ctx context.Context, scope, text string, offset, limit int) ([]string, error) {
	if !m.healthy.Load() {
		return nil, ErrUnavailable
	}
	if m.Stale() {
		return nil, ErrStale
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scopeFilter, err := json.Marshal(scope)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{{
			IndexUID:             m.indexUID,
			Query:                text,
			Limit:                int64(limit),
			Offset:               int64(offset),
			Filter:               []string{"organizationId = " + string(scopeFilter)},
			AttributesToRetrieve: []string{"id"},
		}},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var ids []string
	for _, result := range resp.Results {
		for _, hit := range result.Hits {
			raw, ok := hit["id"]
			if !ok {
				continue
			}
			var id string
			if err := json.Unmarshal(raw, &id); err == nil && id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (m *Meili) Index(docs ...models.Document) {
	if len(docs) == 0 {
		return
	}
	if !m.healthy.Load() {
		m.markStale()
		return
	}
	records := make([]record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, toRecord(doc))
	}

	go func() {
		if err := m.indexBatch(records); err != nil {
			m.logger.Warn("index documents", "count", len(records), "error", err)
			m.markStale()
		}
	}()
}

func (m *Meili) Remove(ids ...string) {
	if len(ids) == 0 {
		return
	}
	if !m.healthy.Load() {
		m.markStale(ids...)
		return
	}

	go func() {
		var failed []string
		for _, id := range ids {
			if err := m.removeOne(id); err != nil {
				m.logger.Warn("delete document from index", "document_id", id, "error", err)
				failed = append(failed, id)
			}
		}
		if len(failed) > 0 {
			m.markStale(failed...)
		}
	}()
}

func (m *Meili) removeOne(id string) error {
	_, err := m.client.Index(m.indexUID).DeleteDocument(id, nil)
	return err
}

// indexBatch pushes records synchronously.
func (m *Meili) indexBatch(records []record) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(m.indexUID).AddDocuments(records, nil)
	return err
}

// Resync replays removals dropped while Meilisearch was unreachable, then
// pushes every document from the source. The index leaves the stale state
// only if no further write was dropped while the resync ran.
func (m *Meili) Resync(ctx context.Context) (int, error) {
	if m.source == nil {
		return 0, errors.New("search index has no document source")
	}
	if !m.healthy.Load() {
		return 0, ErrUnavailable
	}

	m.mu.Lock()
	generation := m.dropped
	removals := m.removals
	m.removals = make(map[string]struct{})
	m.mu.Unlock()

	for id := range removals {
		if err := m.removeOne(id); err != nil {
			m.requeueRemovals(removals)
			return 0, fmt.Errorf("remove %s: %w", id, err)
		}
		delete(removals, id)
	}

	total := 0
	after := ""
	for {
		batch, err := m.source.ListAllDocuments(ctx, after, resyncBatch)
		if err != nil {
			return total, fmt.Errorf("listing documents: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		records := make([]record, 0, len(batch))
		for _, doc := range batch {
			records = append(records, toRecord(doc))
		}
		if err := m.indexBatch(records); err != nil {
			return total, fmt.Errorf("indexing batch after %q: %w", after, err)
		}
		total += len(batch)
		after = batch[len(batch)-1].ID
	}

	m.mu.Lock()
	if m.dropped == generation {
		m.stale = false
	}
	m.mu.Unlock()
	return total, nil
}

func (m *Meili) requeueRemovals(ids map[string]struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range ids {
		m.removals[id] = struct{}{}
	}
}
