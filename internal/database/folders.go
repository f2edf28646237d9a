package database

import (
	"context"
	"errors"

	"serwer-dokumentow/internal/models"
	"serwer-dokumentow/internal/tree"

	"github.com/jackc/pgx/v5"
)

var ErrDuplicateID = errors.New("a record with the same id already exists")

const folderColumns = `id, name, owner_id, organization_id, parent_folder_id, created_at`

func scanFolder(row pgx.Row) (*models.Folder, error) {
	var folder models.Folder
	err := row.Scan(
		&folder.ID,
		&folder.Name,
		&folder.OwnerID,
		&folder.OrganizationID,
		&folder.ParentFolderID,
		&folder.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func (q *Queries) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE id = $1`

	folder, err := scanFolder(q.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return folder, nil
}

func (q *Queries) InsertFolder(ctx context.Context, folder *models.Folder) error {
	query := `
		INSERT INTO folders (id, name, owner_id, organization_id, parent_folder_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.db.Exec(ctx, query,
		folder.ID,
		folder.Name,
		folder.OwnerID,
		folder.OrganizationID,
		folder.ParentFolderID,
		folder.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return err
	}
	return nil
}

// PatchFolder keeps columns whose patch field is absent.
func (q *Queries) PatchFolder(ctx context.Context, id string, patch tree.FolderPatch) error {
	query := `
		UPDATE folders
		SET
			name = COALESCE($2::text, name),
			parent_folder_id = CASE WHEN $3::boolean THEN $4::text ELSE parent_folder_id END
		WHERE id = $1
	`
	_, err := q.db.Exec(ctx, query, id, patch.Name, patch.ParentFolderID.Present, patch.ParentFolderID.Value)
	return err
}

func (q *Queries) DeleteFolder(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM folders WHERE id = $1`, id)
	return err
}

func (q *Queries) ListFoldersByParent(ctx context.Context, parentID *string, scope string) ([]models.Folder, error) {
	var rows pgx.Rows
	var err error

	if parentID == nil {
		query := `SELECT ` + folderColumns + `
				  FROM folders
				  WHERE parent_folder_id IS NULL AND organization_id = $1
				  ORDER BY id`
		rows, err = q.db.Query(ctx, query, scope)
	} else {
		query := `SELECT ` + folderColumns + `
				  FROM folders
				  WHERE parent_folder_id = $1 AND organization_id = $2
				  ORDER BY id`
		rows, err = q.db.Query(ctx, query, *parentID, scope)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, *folder)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if folders == nil {
		return []models.Folder{}, nil
	}
	return folders, nil
}

func (q *Queries) ListChildFolderIDs(ctx context.Context, parentID string) ([]string, error) {
	rows, err := q.db.Query(ctx, `SELECT id FROM folders WHERE parent_folder_id = $1 ORDER BY id`, parentID)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}
