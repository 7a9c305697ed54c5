package models

import "time"

// SessionInfo describes a connected plugin session.
type SessionInfo struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"documentId"`
	StartedAt    time.Time `json:"startedAt"`
	LastAccessed time.Time `json:"lastAccessed"`
	Messages     int       `json:"messages"`
}
