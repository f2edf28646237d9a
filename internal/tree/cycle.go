package tree

import (
	"context"
	"fmt"
)

// isCircularMove reports whether making targetID the parent of folderID would
// create a cycle. The walk starts at targetID and follows parent pointers to
// the root. A dangling pointer ends the walk like a root does. An id seen
// twice means the stored tree is already cyclic, which is reported as
// circular instead of looping.
func isCircularMove(ctx context.Context, repo Repository, folderID, targetID string) (bool, error) {
	if folderID == targetID {
		return true, nil
	}

	visited := map[string]struct{}{}
	current := targetID
	for {
		if current == folderID {
			return true, nil
		}
		if _, seen := visited[current]; seen {
			return true, nil
		}
		visited[current] = struct{}{}

		folder, err := repo.GetFolder(ctx, current)
		if err != nil {
			return false, fmt.Errorf("failed to load ancestor %s: %w", current, err)
		}
		if folder == nil || folder.ParentFolderID == nil {
			return false, nil
		}
		current = *folder.ParentFolderID
	}
}
