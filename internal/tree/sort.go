package tree

import (
	"sort"

	"serwer-dokumentow/internal/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// A Collator keeps internal buffers and is not safe for concurrent use, so a
// fresh one is built for every listing.
func newCollator(tag language.Tag) *collate.Collator {
	return collate.New(tag)
}

func sortFolders(tag language.Tag, folders []models.Folder) {
	c := newCollator(tag)
	sort.SliceStable(folders, func(i, j int) bool {
		if cmp := c.CompareString(folders[i].Name, folders[j].Name); cmp != 0 {
			return cmp < 0
		}
		return folders[i].ID < folders[j].ID
	})
}

func sortDocuments(tag language.Tag, docs []models.Document) {
	c := newCollator(tag)
	sort.SliceStable(docs, func(i, j int) bool {
		if cmp := c.CompareString(docs[i].Title, docs[j].Title); cmp != 0 {
			return cmp < 0
		}
		return docs[i].ID < docs[j].ID
	})
}
