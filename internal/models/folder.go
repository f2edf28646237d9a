package models

import "time"

type Folder struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OwnerID        string    `json:"owner_id"`
	OrganizationID string    `json:"organization_id"`
	ParentFolderID *string   `json:"parent_folder_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// PathEntry is one element of a breadcrumb returned by folders.getPath.
type PathEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
