package models

import (
	"encoding/json"
	"time"
)

const (
	EventFolderCreated   = "folder_created"
	EventFolderUpdated   = "folder_updated"
	EventFolderRemoved   = "folder_removed"
	EventDocumentCreated = "document_created"
	EventDocumentUpdated = "document_updated"
	EventDocumentRemoved = "document_removed"
)

type Event struct {
	ID        int64           `json:"id"`
	Scope     string          `json:"-"`
	ActorID   string          `json:"actor_id"`
	EventType string          `json:"event_type"`
	EventTime time.Time       `json:"event_time"`
	Payload   json.RawMessage `json:"payload"`
}
