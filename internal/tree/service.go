// Package tree implements the folder/document tree store: scoped reads,
// owner-only writes, cycle-free moves and cascading deletes. Every operation
// runs inside a single backend transaction.
package tree

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"serwer-dokumentow/internal/models"

	"github.com/jaevor/go-nanoid"
	"golang.org/x/text/language"
)

// Repository is the set of primitives the tree needs from the backing store.
// Get methods return (nil, nil) when the id does not resolve.
type Repository interface {
	GetFolder(ctx context.Context, id string) (*models.Folder, error)
	InsertFolder(ctx context.Context, folder *models.Folder) error
	PatchFolder(ctx context.Context, id string, patch FolderPatch) error
	DeleteFolder(ctx context.Context, id string) error
	ListFoldersByParent(ctx context.Context, parentID *string, scope string) ([]models.Folder, error)
	ListChildFolderIDs(ctx context.Context, parentID string) ([]string, error)

	GetDocument(ctx context.Context, id string) (*models.Document, error)
	InsertDocument(ctx context.Context, doc *models.Document) error
	PatchDocument(ctx context.Context, id string, patch DocumentPatch) error
	DeleteDocument(ctx context.Context, id string) error
	ListDocumentsByParent(ctx context.Context, parentID *string, scope string) ([]models.Document, error)
	ListChildDocumentIDs(ctx context.Context, parentID string) ([]string, error)
	ListDocuments(ctx context.Context, scope string, offset, limit int) ([]models.Document, error)
	ListRecentDocuments(ctx context.Context, scope string, offset, limit int) ([]models.Document, error)
	SearchDocuments(ctx context.Context, scope, text string, offset, limit int) ([]models.Document, error)

	AppendEvent(ctx context.Context, event *models.Event) error
	ListEvents(ctx context.Context, scope string, since int64, limit int) ([]models.Event, error)
}

// Backend runs a function against a Repository bound to one transaction.
// An error returned by fn rolls the whole transaction back.
type Backend interface {
	ReadTx(ctx context.Context, fn func(Repository) error) error
	WriteTx(ctx context.Context, fn func(Repository) error) error
}

// FolderPatch lists the columns to change; nil pointers and absent
// OptionalIDs are left untouched.
type FolderPatch struct {
	Name           *string
	ParentFolderID models.OptionalID
}

type DocumentPatch struct {
	Title          *string
	UpdateTime     *int64
	ParentFolderID models.OptionalID
}

// SearchIndex is an external full-text index. Returning an error makes the
// service fall back to the backend's own search.
type SearchIndex interface {
	Search(ctx context.Context, scope, text string, offset, limit int) ([]string, error)
	Index(docs ...models.Document)
	Remove(ids ...string)
}

// Publisher receives committed events.
type Publisher interface {
	Publish(event models.Event)
}

type Service struct {
	backend   Backend
	search    SearchIndex
	publisher Publisher
	collation language.Tag
	newID     func() string
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*Service)

func WithSearchIndex(idx SearchIndex) Option {
	return func(s *Service) { s.search = idx }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithCollation sets the locale used to order listings by name.
func WithCollation(tag language.Tag) Option {
	return func(s *Service) { s.collation = tag }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

func New(backend Backend, opts ...Option) (*Service, error) {
	generateID, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}

	s := &Service{
		backend:   backend,
		collation: language.English,
		newID:     generateID,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func requireAuth(caller models.AuthContext) error {
	if !caller.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// write runs fn in a write transaction and publishes the events it recorded
// once the transaction has committed.
func (s *Service) write(ctx context.Context, fn func(repo Repository, rec *recorder) error) error {
	var rec *recorder
	err := s.backend.WriteTx(ctx, func(repo Repository) error {
		rec = &recorder{repo: repo, now: s.now}
		return fn(repo, rec)
	})
	if err != nil {
		return err
	}

	if s.publisher != nil {
		for _, event := range rec.events {
			s.publisher.Publish(event)
		}
	}
	return nil
}
