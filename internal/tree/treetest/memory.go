// Package treetest provides an in-memory tree.Backend for tests.
package treetest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"serwer-dokumentow/internal/models"
	"serwer-dokumentow/internal/tree"
)

// Memory keeps folders and documents in maps. Write transactions run
// against a copy that replaces the live state only when fn succeeds.
type Memory struct {
	mu    sync.Mutex
	state *state

	// FailOn makes a repository method return this error when the named
	// operation runs, e.g. "DeleteDocument". Used to test rollback.
	FailOn map[string]error
}

type state struct {
	folders   map[string]models.Folder
	documents map[string]models.Document
	events    []models.Event
	seq       int
}

func NewMemory() *Memory {
	return &Memory{
		state: &state{
			folders:   map[string]models.Folder{},
			documents: map[string]models.Document{},
		},
		FailOn: map[string]error{},
	}
}

func (s *state) clone() *state {
	c := &state{
		folders:   make(map[string]models.Folder, len(s.folders)),
		documents: make(map[string]models.Document, len(s.documents)),
		events:    append([]models.Event(nil), s.events...),
		seq:       s.seq,
	}
	for k, v := range s.folders {
		c.folders[k] = v
	}
	for k, v := range s.documents {
		c.documents[k] = v
	}
	return c
}

func (m *Memory) ReadTx(ctx context.Context, fn func(tree.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&repo{m: m, st: m.state.clone()})
}

func (m *Memory) WriteTx(ctx context.Context, fn func(tree.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := &repo{m: m, st: m.state.clone()}
	if err := fn(r); err != nil {
		return err
	}
	m.state = r.st
	return nil
}

// Folder returns the stored folder, bypassing any authorization.
func (m *Memory) Folder(id string) (models.Folder, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.state.folders[id]
	return f, ok
}

func (m *Memory) Document(id string) (models.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.state.documents[id]
	return d, ok
}

func (m *Memory) Folders() []models.Folder {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Folder, 0, len(m.state.folders))
	for _, f := range m.state.folders {
		out = append(out, f)
	}
	return out
}

func (m *Memory) Documents() []models.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Document, 0, len(m.state.documents))
	for _, d := range m.state.documents {
		out = append(out, d)
	}
	return out
}

func (m *Memory) Events() []models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Event(nil), m.state.events...)
}

// PutFolder stores f as is. Tests use it to seed states the service would
// never produce, such as cycles.
func (m *Memory) PutFolder(f models.Folder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.folders[f.ID] = f
}

func (m *Memory) PutDocument(d models.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.documents[d.ID] = d
}

type repo struct {
	m  *Memory
	st *state
}

func (r *repo) fail(op string) error {
	return r.m.FailOn[op]
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *repo) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	if err := r.fail("GetFolder"); err != nil {
		return nil, err
	}
	f, ok := r.st.folders[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (r *repo) InsertFolder(ctx context.Context, folder *models.Folder) error {
	if err := r.fail("InsertFolder"); err != nil {
		return err
	}
	r.st.folders[folder.ID] = *folder
	return nil
}

func (r *repo) PatchFolder(ctx context.Context, id string, patch tree.FolderPatch) error {
	if err := r.fail("PatchFolder"); err != nil {
		return err
	}
	f, ok := r.st.folders[id]
	if !ok {
		return nil
	}
	if patch.Name != nil {
		f.Name = *patch.Name
	}
	if patch.ParentFolderID.Present {
		f.ParentFolderID = patch.ParentFolderID.Value
	}
	r.st.folders[id] = f
	return nil
}

func (r *repo) DeleteFolder(ctx context.Context, id string) error {
	if err := r.fail("DeleteFolder"); err != nil {
		return err
	}
	delete(r.st.folders, id)
	return nil
}

func (r *repo) ListFoldersByParent(ctx context.Context, parentID *string, scope string) ([]models.Folder, error) {
	var out []models.Folder
	for _, f := range r.st.folders {
		if sameParent(f.ParentFolderID, parentID) && f.OrganizationID == scope {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *repo) ListChildFolderIDs(ctx context.Context, parentID string) ([]string, error) {
	var out []string
	for _, f := range r.st.folders {
		if f.ParentFolderID != nil && *f.ParentFolderID == parentID {
			out = append(out, f.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *repo) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	if err := r.fail("GetDocument"); err != nil {
		return nil, err
	}
	d, ok := r.st.documents[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *repo) InsertDocument(ctx context.Context, doc *models.Document) error {
	if err := r.fail("InsertDocument"); err != nil {
		return err
	}
	r.st.documents[doc.ID] = *doc
	return nil
}

func (r *repo) PatchDocument(ctx context.Context, id string, patch tree.DocumentPatch) error {
	if err := r.fail("PatchDocument"); err != nil {
		return err
	}
	d, ok := r.st.documents[id]
	if !ok {
		return nil
	}
	if patch.Title != nil {
		d.Title = *patch.Title
	}
	if patch.UpdateTime != nil {
		d.UpdateTime = patch.UpdateTime
	}
	if patch.ParentFolderID.Present {
		d.ParentFolderID = patch.ParentFolderID.Value
	}
	r.st.documents[id] = d
	return nil
}

func (r *repo) DeleteDocument(ctx context.Context, id string) error {
	if err := r.fail("DeleteDocument"); err != nil {
		return err
	}
	delete(r.st.documents, id)
	return nil
}

func (r *repo) ListDocumentsByParent(ctx context.Context, parentID *string, scope string) ([]models.Document, error) {
	var out []models.Document
	for _, d := range r.st.documents {
		if sameParent(d.ParentFolderID, parentID) && d.OrganizationID == scope {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *repo) ListChildDocumentIDs(ctx context.Context, parentID string) ([]string, error) {
	var out []string
	for _, d := range r.st.documents {
		if d.ParentFolderID != nil && *d.ParentFolderID == parentID {
			out = append(out, d.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *repo) scoped(scope string, keep func(models.Document) bool) []models.Document {
	var out []models.Document
	for _, d := range r.st.documents {
		if d.OrganizationID == scope && keep(d) {
			out = append(out, d)
		}
	}
	return out
}

func window(docs []models.Document, offset, limit int) []models.Document {
	if offset >= len(docs) {
		return nil
	}
	end := min(offset+limit, len(docs))
	return docs[offset:end]
}

func (r *repo) ListDocuments(ctx context.Context, scope string, offset, limit int) ([]models.Document, error) {
	docs := r.scoped(scope, func(models.Document) bool { return true })
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return window(docs, offset, limit), nil
}

func (r *repo) ListRecentDocuments(ctx context.Context, scope string, offset, limit int) ([]models.Document, error) {
	docs := r.scoped(scope, func(models.Document) bool { return true })
	updateTime := func(d models.Document) int64 {
		if d.UpdateTime == nil {
			return -1
		}
		return *d.UpdateTime
	}
	sort.Slice(docs, func(i, j int) bool {
		ti, tj := updateTime(docs[i]), updateTime(docs[j])
		if ti != tj {
			return ti > tj
		}
		return docs[i].ID < docs[j].ID
	})
	return window(docs, offset, limit), nil
}

// SearchDocuments matches documents whose title contains every term of
// text, case-insensitively.
func (r *repo) SearchDocuments(ctx context.Context, scope, text string, offset, limit int) ([]models.Document, error) {
	terms := strings.Fields(strings.ToLower(text))
	docs := r.scoped(scope, func(d models.Document) bool {
		title := strings.ToLower(d.Title)
		for _, term := range terms {
			if !strings.Contains(title, term) {
				return false
			}
		}
		return true
	})
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return window(docs, offset, limit), nil
}

func (r *repo) AppendEvent(ctx context.Context, event *models.Event) error {
	if err := r.fail("AppendEvent"); err != nil {
		return err
	}
	r.st.seq++
	event.ID = int64(r.st.seq)
	r.st.events = append(r.st.events, *event)
	return nil
}

func (r *repo) ListEvents(ctx context.Context, scope string, since int64, limit int) ([]models.Event, error) {
	var out []models.Event
	for _, e := range r.st.events {
		if e.Scope == scope && e.ID > since {
			out = append(out, e)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
