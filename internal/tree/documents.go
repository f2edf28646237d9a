package tree

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"serwer-dokumentow/internal/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CreateDocumentInput fields left nil take their defaults: the default
// title, empty content, regular content type and the drive root.
type CreateDocumentInput struct {
	Title          *string
	InitialContent *string
	ContentType    *models.ContentType
	ParentFolderID *string
	RoomID         *string
}

func (in CreateDocumentInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Length(0, 255)),
		validation.Field(&in.ContentType, validation.By(func(value any) error {
			ct, _ := value.(*models.ContentType)
			if ct != nil && !ct.Valid() {
				return errors.New("must be regular or markdown")
			}
			return nil
		})),
		validation.Field(&in.ParentFolderID, validation.NilOrNotEmpty),
	)
}

type UpdateDocumentInput struct {
	Title          *string
	UpdateTime     *int64
	ParentFolderID models.OptionalID
}

func (in UpdateDocumentInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Length(0, 255)),
		validation.Field(&in.UpdateTime, validation.Min(int64(0))),
		validation.Field(&in.ParentFolderID, validation.By(notBlankID)),
	)
}

// visibleTo reports whether caller may read doc: same scope, or its owner.
func visibleTo(doc *models.Document, caller models.AuthContext) bool {
	return doc.OrganizationID == caller.Scope() || doc.OwnerID == caller.UserID
}

// GetDocument fails with ErrDocumentNotFound when id does not resolve.
func (s *Service) GetDocument(ctx context.Context, caller models.AuthContext, id string) (*models.Document, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	var doc *models.Document
	err := s.backend.ReadTx(ctx, func(repo Repository) error {
		d, err := repo.GetDocument(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get document: %w", err)
		}
		if d == nil {
			return ErrDocumentNotFound
		}
		if !visibleTo(d, caller) {
			return ErrForbidden
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocumentRefs resolves ids to names in input order. Ids that do not
// resolve, or resolve outside the caller's visibility, get the removed
// placeholder instead of failing the batch.
func (s *Service) GetDocumentRefs(ctx context.Context, caller models.AuthContext, ids []string) ([]models.DocumentRef, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	refs := make([]models.DocumentRef, 0, len(ids))
	err := s.backend.ReadTx(ctx, func(repo Repository) error {
		refs = refs[:0]
		for _, id := range ids {
			doc, err := repo.GetDocument(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get document %s: %w", id, err)
			}
			if doc == nil || !visibleTo(doc, caller) {
				refs = append(refs, models.DocumentRef{ID: id, Name: models.RemovedDocumentName})
				continue
			}
			refs = append(refs, models.DocumentRef{ID: doc.ID, Name: doc.Title})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// ListDocuments pages through the caller's scope. A non-blank search runs a
// full-text title search instead, through the search index when one is
// configured and healthy, otherwise through the backend.
func (s *Service) ListDocuments(ctx context.Context, caller models.AuthContext, search string, page PageRequest) (models.DocumentPage, error) {
	if err := requireAuth(caller); err != nil {
		return models.DocumentPage{}, err
	}
	offset, limit, err := page.normalize()
	if err != nil {
		return models.DocumentPage{}, err
	}

	search = strings.TrimSpace(search)
	scope := caller.Scope()

	if search != "" && s.search != nil {
		result, err := s.searchIndexed(ctx, scope, search, offset, limit)
		if err == nil {
			return result, nil
		}
		searchFallbackTotal.Inc()
		s.logger.Warn("search index unavailable, falling back to database", "error", err)
	}

	var docs []models.Document
	err = s.backend.ReadTx(ctx, func(repo Repository) error {
		var err error
		if search != "" {
			docs, err = repo.SearchDocuments(ctx, scope, search, offset, limit+1)
		} else {
			docs, err = repo.ListDocuments(ctx, scope, offset, limit+1)
		}
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.DocumentPage{}, err
	}
	return buildPage(docs, offset, limit), nil
}

// searchIndexed pages through index hits, resolving each against the
// backend so stale entries and out-of-scope records never reach the caller.
// Offsets and the continue cursor count index positions, not returned
// documents, so skipped hits do not shift later pages.
func (s *Service) searchIndexed(ctx context.Context, scope, text string, offset, limit int) (models.DocumentPage, error) {
	page := models.DocumentPage{Page: make([]models.Document, 0, limit)}
	next := offset
	batch := limit + 1

	for round := 0; round < maxSearchRounds; round++ {
		ids, err := s.search.Search(ctx, scope, text, next, batch)
		if err != nil {
			return models.DocumentPage{}, err
		}

		docs, err := s.resolveHits(ctx, scope, ids)
		if err != nil {
			return models.DocumentPage{}, err
		}
		for i, doc := range docs {
			if doc == nil {
				continue
			}
			if len(page.Page) == limit {
				// Another live hit exists; the next page starts at it.
				page.ContinueCursor = encodeCursor(next + i)
				return page, nil
			}
			page.Page = append(page.Page, *doc)
		}

		next += len(ids)
		if len(ids) < batch {
			page.IsDone = true
			page.ContinueCursor = encodeCursor(next)
			return page, nil
		}
	}

	// Too many stale hits in a row; let the client continue past them.
	page.ContinueCursor = encodeCursor(next)
	return page, nil
}

// resolveHits returns one entry per id, nil where the id is stale or outside
// scope.
func (s *Service) resolveHits(ctx context.Context, scope string, ids []string) ([]*models.Document, error) {
	docs := make([]*models.Document, len(ids))
	err := s.backend.ReadTx(ctx, func(repo Repository) error {
		for i, id := range ids {
			doc, err := repo.GetDocument(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get document %s: %w", id, err)
			}
			if doc != nil && doc.OrganizationID == scope {
				docs[i] = doc
			} else {
				docs[i] = nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// ListRecentDocuments pages through the caller's scope, most recently edited
// first.
func (s *Service) ListRecentDocuments(ctx context.Context, caller models.AuthContext, page PageRequest) (models.DocumentPage, error) {
	if err := requireAuth(caller); err != nil {
		return models.DocumentPage{}, err
	}
	offset, limit, err := page.normalize()
	if err != nil {
		return models.DocumentPage{}, err
	}

	var docs []models.Document
	err = s.backend.ReadTx(ctx, func(repo Repository) error {
		var err error
		docs, err = repo.ListRecentDocuments(ctx, caller.Scope(), offset, limit+1)
		if err != nil {
			return fmt.Errorf("failed to list recent documents: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.DocumentPage{}, err
	}
	return buildPage(docs, offset, limit), nil
}

func (s *Service) ListDocumentsByParent(ctx context.Context, caller models.AuthContext, parentID *string) ([]models.Document, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	var docs []models.Document
	err := s.backend.ReadTx(ctx, func(repo Repository) error {
		var err error
		docs, err = repo.ListDocumentsByParent(ctx, parentID, caller.Scope())
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if docs == nil {
		docs = []models.Document{}
	}
	sortDocuments(s.collation, docs)
	return docs, nil
}

// CreateDocument stores a new document owned by the caller. When a parent
// folder is given it must exist and share the caller's scope.
func (s *Service) CreateDocument(ctx context.Context, caller models.AuthContext, in CreateDocumentInput) (string, error) {
	if err := requireAuth(caller); err != nil {
		return "", err
	}
	if err := in.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	doc := models.Document{
		ID:             s.newID(),
		Title:          models.DefaultDocumentTitle,
		OwnerID:        caller.UserID,
		OrganizationID: caller.Scope(),
		ParentFolderID: in.ParentFolderID,
		RoomID:         in.RoomID,
		ContentType:    models.ContentTypeRegular,
		CreatedAt:      s.now().UTC(),
	}
	if in.Title != nil {
		doc.Title = *in.Title
	}
	if in.InitialContent != nil {
		doc.InitialContent = *in.InitialContent
	}
	if in.ContentType != nil {
		doc.ContentType = *in.ContentType
	}

	err := s.write(ctx, func(repo Repository, rec *recorder) error {
		if doc.ParentFolderID != nil {
			parent, err := repo.GetFolder(ctx, *doc.ParentFolderID)
			if err != nil {
				return fmt.Errorf("failed to get parent folder: %w", err)
			}
			if parent == nil {
				return ErrFolderNotFound
			}
			if parent.OrganizationID != doc.OrganizationID {
				return ErrForbidden
			}
		}

		if err := repo.InsertDocument(ctx, &doc); err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}
		return rec.record(ctx, caller, doc.OrganizationID, models.EventDocumentCreated, doc)
	})
	if err != nil {
		return "", err
	}

	if s.search != nil {
		s.search.Index(doc)
	}
	s.logger.Info("document created", "document_id", doc.ID, "owner_id", doc.OwnerID)
	return doc.ID, nil
}

// UpdateDocument checks ownership of the document only. The destination
// folder of a move is not checked.
func (s *Service) UpdateDocument(ctx context.Context, caller models.AuthContext, id string, in UpdateDocumentInput) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	var updated *models.Document
	err := s.write(ctx, func(repo Repository, rec *recorder) error {
		doc, err := repo.GetDocument(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get document: %w", err)
		}
		if doc == nil {
			return ErrDocumentNotFound
		}
		if doc.OwnerID != caller.UserID {
			return ErrForbidden
		}

		patch := DocumentPatch{Title: in.Title, UpdateTime: in.UpdateTime, ParentFolderID: in.ParentFolderID}
		if patch.Title == nil && patch.UpdateTime == nil && !patch.ParentFolderID.Present {
			return nil
		}
		if err := repo.PatchDocument(ctx, id, patch); err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}

		updated, err = repo.GetDocument(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to reload document: %w", err)
		}
		return rec.record(ctx, caller, doc.OrganizationID, models.EventDocumentUpdated, updated)
	})
	if err != nil {
		return err
	}

	if s.search != nil && updated != nil && in.Title != nil {
		s.search.Index(*updated)
	}
	return nil
}

func (s *Service) RemoveDocument(ctx context.Context, caller models.AuthContext, id string) error {
	return s.RemoveDocuments(ctx, caller, []string{id})
}

// RemoveDocuments deletes every listed document or none of them. The first
// missing or foreign id aborts the transaction.
func (s *Service) RemoveDocuments(ctx context.Context, caller models.AuthContext, ids []string) error {
	if err := requireAuth(caller); err != nil {
		return err
	}

	err := s.write(ctx, func(repo Repository, rec *recorder) error {
		for _, id := range ids {
			doc, err := repo.GetDocument(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get document %s: %w", id, err)
			}
			if doc == nil {
				return fmt.Errorf("document %s: %w", id, ErrDocumentNotFound)
			}
			if doc.OwnerID != caller.UserID {
				return fmt.Errorf("document %s: %w", id, ErrForbidden)
			}
			if err := repo.DeleteDocument(ctx, id); err != nil {
				return fmt.Errorf("failed to delete document %s: %w", id, err)
			}
			if err := rec.record(ctx, caller, doc.OrganizationID, models.EventDocumentRemoved, removedPayload{ID: id}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.search != nil && len(ids) > 0 {
		s.search.Remove(ids...)
	}
	return nil
}

// AuthorizeRoom decides whether caller may join the collaboration room of a
// document. The room id is the document id.
func (s *Service) AuthorizeRoom(ctx context.Context, caller models.AuthContext, roomID string) (*models.Document, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	doc, err := s.GetDocument(ctx, caller, roomID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != caller.UserID && (caller.OrganizationID == "" || doc.OrganizationID != caller.OrganizationID) {
		return nil, ErrForbidden
	}
	return doc, nil
}
