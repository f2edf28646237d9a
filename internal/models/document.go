package models

import "time"

type ContentType string

const (
	ContentTypeRegular  ContentType = "regular"
	ContentTypeMarkdown ContentType = "markdown"
)

const (
	DefaultDocumentTitle = "Untitled Document"
	RemovedDocumentName  = "[Removed Document]"
)

func (c ContentType) Valid() bool {
	return c == ContentTypeRegular || c == ContentTypeMarkdown
}

type Document struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	InitialContent string      `json:"initial_content"`
	OwnerID        string      `json:"owner_id"`
	OrganizationID string      `json:"organization_id"`
	ParentFolderID *string     `json:"parent_folder_id"`
	RoomID         *string     `json:"room_id,omitempty"`
	UpdateTime     *int64      `json:"update_time,omitempty"`
	ContentType    ContentType `json:"content_type"`
	CreatedAt      time.Time   `json:"created_at"`
}

// DocumentRef is the name-only view used by collaboration room lists.
type DocumentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DocumentPage is one slice of a paginated listing. ContinueCursor is opaque
// to clients and is passed back unchanged to fetch the next page.
type DocumentPage struct {
	Page           []Document `json:"page"`
	IsDone         bool       `json:"is_done"`
	ContinueCursor string     `json:"continue_cursor"`
}
