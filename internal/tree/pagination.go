package tree

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"serwer-dokumentow/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	cursorPrefix = "off:"

	// maxSearchRounds bounds index round trips for one page of search hits.
	maxSearchRounds = 5
)

// PageRequest mirrors the "load more" options a client sends. An empty
// Cursor asks for the first page.
type PageRequest struct {
	Cursor   string
	NumItems int
}

func (p PageRequest) normalize() (offset, limit int, err error) {
	limit = p.NumItems
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	offset, err = decodeCursor(p.Cursor)
	if err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

func decodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed cursor", ErrInvalidArgument)
	}
	value, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, fmt.Errorf("%w: malformed cursor", ErrInvalidArgument)
	}
	offset, err := strconv.Atoi(value)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("%w: malformed cursor", ErrInvalidArgument)
	}
	return offset, nil
}

// buildPage turns a fetch of limit+1 rows into a page. The extra row only
// signals that another page exists.
func buildPage(docs []models.Document, offset, limit int) models.DocumentPage {
	page := models.DocumentPage{Page: docs, IsDone: true}
	if len(docs) > limit {
		page.Page = docs[:limit]
		page.IsDone = false
	}
	if page.Page == nil {
		page.Page = []models.Document{}
	}
	page.ContinueCursor = encodeCursor(offset + len(page.Page))
	return page
}
