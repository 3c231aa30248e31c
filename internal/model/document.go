package model

import "time"

// Status is the processing lifecycle of a document.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// Priority ranks action items and reminders.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ActionItem is a task the analyzer derived from a document.
// DueDate is free-form text, normally YYYY-MM-DD.
type ActionItem struct {
	Task     string   `json:"task"`
	DueDate  string   `json:"dueDate,omitempty"`
	Priority Priority `json:"priority,omitempty"`
}

// Document represents an uploaded file and the results of analysing it.
// This is a pure domain model with no database-specific dependencies.
type Document struct {
	ID               int64        `json:"id"`
	OwnerID          string       `json:"userId"`
	Title            string       `json:"title"`
	OriginalFilename string       `json:"originalFilename"`
	MimeType         string       `json:"fileType"`
	StorageKey       string       `json:"storageKey"`
	UploadedAt       time.Time    `json:"uploadedAt"`
	Summary          *string      `json:"summary"`
	ActionItems      []ActionItem `json:"actionItems"`
	Tags             []string     `json:"tags"`
	Status           Status       `json:"status"`
}

// OwnedBy reports whether userID owns the document.
func (d *Document) OwnedBy(userID string) bool {
	return d.OwnerID == userID
}

// AnalysisUpdate is a partial update of a document's analysis fields.
// Nil fields are left unchanged.
type AnalysisUpdate struct {
	Summary     *string
	ActionItems []ActionItem
	Tags        []string
	Status      *Status
}
