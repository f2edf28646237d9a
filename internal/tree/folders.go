package tree

import (
	"context"
	"fmt"

	"serwer-dokumentow/internal/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type CreateFolderInput struct {
	Name           string
	ParentFolderID *string
}

func (in CreateFolderInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.ParentFolderID, validation.NilOrNotEmpty),
	)
}

// UpdateFolderInput is a partial update. A nil Name and an absent
// ParentFolderID leave the stored values untouched.
type UpdateFolderInput struct {
	Name           *string
	ParentFolderID models.OptionalID
}

func (in UpdateFolderInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&in.ParentFolderID, validation.By(notBlankID)),
	)
}

// notBlankID rejects an OptionalID that points at the empty id. Absent and
// cleared values pass.
func notBlankID(value any) error {
	id, _ := value.(models.OptionalID)
	if id.Present && id.Value != nil && *id.Value == "" {
		return validation.ErrRequired
	}
	return nil
}

// GetFolder returns nil when id does not resolve.
func (s *Service) GetFolder(ctx context.Context, caller models.AuthContext, id string) (*models.Folder, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	var folder *models.Folder
	err := s.backend.ReadTx(ctx, func(repo Repository) error {
		f, err := repo.GetFolder(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get folder: %w", err)
		}
		if f == nil {
			return nil
		}
		if f.OrganizationID != caller.Scope() {
			return ErrForbidden
		}
		folder = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// GetFolderPath returns the breadcrumb for id, root first. The walk stops at
// the root or at the first pointer that no longer resolves.
func (s *Service) GetFolderPath(ctx context.Context, caller models.AuthContext, id string) ([]models.PathEntry, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	var reversed []models.PathEntry
	err := s.backend.ReadTx(ctx, func(repo Repository) error {
		reversed = reversed[:0]
		visited := map[string]struct{}{}
		current := &id
		for current != nil {
			if _, seen := visited[*current]; seen {
				s.logger.Warn("cycle detected while walking folder path", "folder_id", id, "repeated_id", *current)
				break
			}
			visited[*current] = struct{}{}

			folder, err := repo.GetFolder(ctx, *current)
			if err != nil {
				return fmt.Errorf("failed to get folder %s: %w", *current, err)
			}
			if folder == nil {
				break
			}
			if folder.OrganizationID != caller.Scope() {
				return ErrForbidden
			}
			reversed = append(reversed, models.PathEntry{ID: folder.ID, Name: folder.Name})
			current = folder.ParentFolderID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	path := make([]models.PathEntry, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	return path, nil
}

// ListFolders lists the caller-visible children of parentID (nil = root),
// ordered by name for the configured locale.
func (s *Service) ListFolders(ctx context.Context, caller models.AuthContext, parentID *string) ([]models.Folder, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	var folders []models.Folder
	err := s.backend.ReadTx(ctx, func(repo Repository) error {
		var err error
		folders, err = repo.ListFoldersByParent(ctx, parentID, caller.Scope())
		if err != nil {
			return fmt.Errorf("failed to list folders: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if folders == nil {
		folders = []models.Folder{}
	}
	sortFolders(s.collation, folders)
	return folders, nil
}

// CreateFolder does not check that the parent exists; dangling parents are
// tolerated by the read paths.
func (s *Service) CreateFolder(ctx context.Context, caller models.AuthContext, in CreateFolderInput) (string, error) {
	if err := requireAuth(caller); err != nil {
		return "", err
	}
	if err := in.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	folder := models.Folder{
		ID:             s.newID(),
		Name:           in.Name,
		OwnerID:        caller.UserID,
		OrganizationID: caller.Scope(),
		ParentFolderID: in.ParentFolderID,
		CreatedAt:      s.now().UTC(),
	}

	err := s.write(ctx, func(repo Repository, rec *recorder) error {
		if err := repo.InsertFolder(ctx, &folder); err != nil {
			return fmt.Errorf("failed to insert folder: %w", err)
		}
		return rec.record(ctx, caller, folder.OrganizationID, models.EventFolderCreated, folder)
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("folder created", "folder_id", folder.ID, "owner_id", folder.OwnerID)
	return folder.ID, nil
}

// UpdateFolder renames and/or moves a folder. A move runs the cycle check
// first; when it fails nothing is written, including the name.
func (s *Service) UpdateFolder(ctx context.Context, caller models.AuthContext, id string, in UpdateFolderInput) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	return s.write(ctx, func(repo Repository, rec *recorder) error {
		folder, err := repo.GetFolder(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get folder: %w", err)
		}
		if folder == nil {
			return ErrFolderNotFound
		}
		if folder.OwnerID != caller.UserID {
			return ErrForbidden
		}

		if in.ParentFolderID.Present && in.ParentFolderID.Value != nil {
			circular, err := isCircularMove(ctx, repo, id, *in.ParentFolderID.Value)
			if err != nil {
				return err
			}
			if circular {
				circularMovesTotal.Inc()
				return ErrCircularMove
			}
		}

		patch := FolderPatch{Name: in.Name, ParentFolderID: in.ParentFolderID}
		if patch.Name == nil && !patch.ParentFolderID.Present {
			return nil
		}
		if err := repo.PatchFolder(ctx, id, patch); err != nil {
			return fmt.Errorf("failed to update folder: %w", err)
		}

		updated, err := repo.GetFolder(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to reload folder: %w", err)
		}
		return rec.record(ctx, caller, folder.OrganizationID, models.EventFolderUpdated, updated)
	})
}

// RemoveFolder deletes the folder with every subfolder and document below
// it. Only the owner of the top folder is checked.
func (s *Service) RemoveFolder(ctx context.Context, caller models.AuthContext, id string) error {
	if err := requireAuth(caller); err != nil {
		return err
	}

	var removed cascadeResult
	err := s.write(ctx, func(repo Repository, rec *recorder) error {
		folder, err := repo.GetFolder(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get folder: %w", err)
		}
		if folder == nil {
			return ErrFolderNotFound
		}
		if folder.OwnerID != caller.UserID {
			return ErrForbidden
		}

		removed, err = removeSubtree(ctx, repo, id)
		if err != nil {
			return err
		}
		return rec.record(ctx, caller, folder.OrganizationID, models.EventFolderRemoved, cascadePayload{
			ID:          id,
			FolderIDs:   removed.folderIDs,
			DocumentIDs: removed.documentIDs,
		})
	})
	if err != nil {
		return err
	}

	cascadeRemovedTotal.WithLabelValues("folder").Add(float64(len(removed.folderIDs)))
	cascadeRemovedTotal.WithLabelValues("document").Add(float64(len(removed.documentIDs)))
	cascadeSize.Observe(float64(len(removed.folderIDs) + len(removed.documentIDs)))

	if s.search != nil && len(removed.documentIDs) > 0 {
		s.search.Remove(removed.documentIDs...)
	}

	s.logger.Info("folder removed", "folder_id", id,
		"folders", len(removed.folderIDs), "documents", len(removed.documentIDs))
	return nil
}
