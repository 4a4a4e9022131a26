// internal/app/sync/sync.go

// Package sync holds the shapes shared by the external task-service
// adapters. Adapters are stateless request/response translators; tokens and
// OAuth state live in their stores, never in package variables.
package sync

import "time"

// Providers, as persisted in sync_tokens.
const (
	ProviderMicrosoft = "microsoft"
	ProviderClassroom = "classroom"
	ProviderICloud    = "icloud"
)

// RemoteTask is the provider-neutral projection of an external task.
type RemoteTask struct {
	RemoteID    string     `json:"remote_id"`
	Titulo      string     `json:"titulo"`
	Descripcion string     `json:"descripcion,omitempty"`
	VenceEn     *time.Time `json:"vence_en,omitempty"`
	Completada  bool       `json:"completada"`
}

// RemoteCourse is a Google Classroom course.
type RemoteCourse struct {
	RemoteID string `json:"remote_id"`
	Nombre   string `json:"nombre"`
	Seccion  string `json:"seccion,omitempty"`
}
