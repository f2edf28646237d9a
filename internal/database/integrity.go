package database

import (
	"context"
)

// IntegrityReport lists records that break the tree invariants. The service
// never produces them; they show up after manual edits or restores.
type IntegrityReport struct {
	CyclicFolderIDs   []string `json:"cyclic_folder_ids"`
	DanglingFolderIDs []string `json:"dangling_folder_ids"`
	OrphanDocumentIDs []string `json:"orphan_document_ids"`
}

func (r IntegrityReport) Clean() bool {
	return len(r.CyclicFolderIDs) == 0 && len(r.DanglingFolderIDs) == 0 && len(r.OrphanDocumentIDs) == 0
}

// FindFolderCycles returns folders that are their own ancestor.
func (q *Queries) FindFolderCycles(ctx context.Context) ([]string, error) {
	query := `
		WITH RECURSIVE ancestors AS (
			SELECT f.id AS start_id, f.parent_folder_id AS current_id, ARRAY[f.id] AS path, false AS is_cycle
			FROM folders f
			WHERE f.parent_folder_id IS NOT NULL

			UNION ALL

			SELECT a.start_id, p.parent_folder_id, a.path || p.id, p.id = ANY(a.path)
			FROM ancestors a
			JOIN folders p ON p.id = a.current_id
			WHERE NOT a.is_cycle AND a.current_id IS NOT NULL
		)
		SELECT DISTINCT start_id
		FROM ancestors
		WHERE is_cycle AND path[array_length(path, 1)] = start_id
		ORDER BY start_id
	`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

func (q *Queries) FindDanglingFolders(ctx context.Context) ([]string, error) {
	query := `
		SELECT f.id
		FROM folders f
		LEFT JOIN folders p ON p.id = f.parent_folder_id
		WHERE f.parent_folder_id IS NOT NULL AND p.id IS NULL
		ORDER BY f.id
	`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

func (q *Queries) FindOrphanDocuments(ctx context.Context) ([]string, error) {
	query := `
		SELECT d.id
		FROM documents d
		LEFT JOIN folders p ON p.id = d.parent_folder_id
		WHERE d.parent_folder_id IS NOT NULL AND p.id IS NULL
		ORDER BY d.id
	`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

func (q *Queries) CheckIntegrity(ctx context.Context) (IntegrityReport, error) {
	var report IntegrityReport
	var err error

	if report.CyclicFolderIDs, err = q.FindFolderCycles(ctx); err != nil {
		return report, err
	}
	if report.DanglingFolderIDs, err = q.FindDanglingFolders(ctx); err != nil {
		return report, err
	}
	if report.OrphanDocumentIDs, err = q.FindOrphanDocuments(ctx); err != nil {
		return report, err
	}
	return report, nil
}
