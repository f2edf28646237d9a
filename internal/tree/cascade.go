package tree

import (
	"context"
	"fmt"
)

type cascadeResult struct {
	folderIDs   []string
	documentIDs []string
}

type cascadeFrame struct {
	folderID string
	expanded bool
}

// removeSubtree deletes rootID and everything below it. Traversal uses an
// explicit stack: a folder is expanded the first time it is popped and
// deleted the second time, after all of its subfolders are gone. Documents
// in a folder are removed right before the folder itself.
func removeSubtree(ctx context.Context, repo Repository, rootID string) (cascadeResult, error) {
	var result cascadeResult

	visited := map[string]struct{}{}
	stack := []cascadeFrame{{folderID: rootID}}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if frame.expanded {
			docIDs, err := repo.ListChildDocumentIDs(ctx, frame.folderID)
			if err != nil {
				return result, fmt.Errorf("failed to list documents of %s: %w", frame.folderID, err)
			}
			for _, docID := range docIDs {
				if err := repo.DeleteDocument(ctx, docID); err != nil {
					return result, fmt.Errorf("failed to delete document %s: %w", docID, err)
				}
			}
			result.documentIDs = append(result.documentIDs, docIDs...)

			if err := repo.DeleteFolder(ctx, frame.folderID); err != nil {
				return result, fmt.Errorf("failed to delete folder %s: %w", frame.folderID, err)
			}
			result.folderIDs = append(result.folderIDs, frame.folderID)
			continue
		}

		if _, seen := visited[frame.folderID]; seen {
			continue
		}
		visited[frame.folderID] = struct{}{}

		stack = append(stack, cascadeFrame{folderID: frame.folderID, expanded: true})

		childIDs, err := repo.ListChildFolderIDs(ctx, frame.folderID)
		if err != nil {
			return result, fmt.Errorf("failed to list subfolders of %s: %w", frame.folderID, err)
		}
		for _, childID := range childIDs {
			if _, seen := visited[childID]; !seen {
				stack = append(stack, cascadeFrame{folderID: childID})
			}
		}
	}

	return result, nil
}
