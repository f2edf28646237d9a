package database

import (
	"context"
	"errors"

	"serwer-dokumentow/internal/models"
	"serwer-dokumentow/internal/tree"

	"github.com/jackc/pgx/v5"
)

const documentColumns = `id, title, initial_content, owner_id, organization_id, parent_folder_id,
	room_id, update_time, content_type, created_at`

func scanDocument(row pgx.Row) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.InitialContent,
		&doc.OwnerID,
		&doc.OrganizationID,
		&doc.ParentFolderID,
		&doc.RoomID,
		&doc.UpdateTime,
		&doc.ContentType,
		&doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func collectDocuments(rows pgx.Rows) ([]models.Document, error) {
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if docs == nil {
		return []models.Document{}, nil
	}
	return docs, nil
}

func (q *Queries) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	doc, err := scanDocument(q.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}

func (q *Queries) InsertDocument(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, title, initial_content, owner_id, organization_id, parent_folder_id,
			room_id, update_time, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := q.db.Exec(ctx, query,
		doc.ID,
		doc.Title,
		doc.InitialContent,
		doc.OwnerID,
		doc.OrganizationID,
		doc.ParentFolderID,
		doc.RoomID,
		doc.UpdateTime,
		doc.ContentType,
		doc.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return err
	}
	return nil
}

func (q *Queries) PatchDocument(ctx context.Context, id string, patch tree.DocumentPatch) error {
	query := `
		UPDATE documents
		SET
			title = COALESCE($2::text, title),
			update_time = COALESCE($3::bigint, update_time),
			parent_folder_id = CASE WHEN $4::boolean THEN $5::text ELSE parent_folder_id END
		WHERE id = $1
	`
	_, err := q.db.Exec(ctx, query, id, patch.Title, patch.UpdateTime, patch.ParentFolderID.Present, patch.ParentFolderID.Value)
	return err
}

func (q *Queries) DeleteDocument(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}

func (q *Queries) ListDocumentsByParent(ctx context.Context, parentID *string, scope string) ([]models.Document, error) {
	var rows pgx.Rows
	var err error

	if parentID == nil {
		query := `SELECT ` + documentColumns + `
				  FROM documents
				  WHERE parent_folder_id IS NULL AND organization_id = $1
				  ORDER BY id`
		rows, err = q.db.Query(ctx, query, scope)
	} else {
		query := `SELECT ` + documentColumns + `
				  FROM documents
				  WHERE parent_folder_id = $1 AND organization_id = $2
				  ORDER BY id`
		rows, err = q.db.Query(ctx, query, *parentID, scope)
	}
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

func (q *Queries) ListChildDocumentIDs(ctx context.Context, parentID string) ([]string, error) {
	rows, err := q.db.Query(ctx, `SELECT id FROM documents WHERE parent_folder_id = $1 ORDER BY id`, parentID)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

func (q *Queries) ListDocuments(ctx context.Context, scope string, offset, limit int) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + `
			  FROM documents
			  WHERE organization_id = $1
			  ORDER BY created_at, id
			  LIMIT $2 OFFSET $3`
	rows, err := q.db.Query(ctx, query, scope, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

// ListRecentDocuments puts never-edited documents last.
func (q *Queries) ListRecentDocuments(ctx context.Context, scope string, offset, limit int) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + `
			  FROM documents
			  WHERE organization_id = $1
			  ORDER BY update_time DESC NULLS LAST, id
			  LIMIT $2 OFFSET $3`
	rows, err := q.db.Query(ctx, query, scope, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

// SearchDocuments runs a full-text query over titles of one scope, best
// matches first.
func (q *Queries) SearchDocuments(ctx context.Context, scope, text string, offset, limit int) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + `
			  FROM documents
			  WHERE organization_id = $1
			    AND to_tsvector('simple', title) @@ websearch_to_tsquery('simple', $2)
			  ORDER BY ts_rank(to_tsvector('simple', title), websearch_to_tsquery('simple', $2)) DESC, id
			  LIMIT $3 OFFSET $4`
	rows, err := q.db.Query(ctx, query, scope, text, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

// ListAllDocuments walks every document in id order regardless of scope.
// Pass the last id of the previous batch as afterID.
func (q *Queries) ListAllDocuments(ctx context.Context, afterID string, limit int) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + `
			  FROM documents
			  WHERE id > $1
			  ORDER BY id
			  LIMIT $2`
	rows, err := q.db.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}
