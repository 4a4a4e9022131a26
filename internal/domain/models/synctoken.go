// internal/domain/models/synctoken.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SyncToken holds a user's credentials for one external task service.
// One document per (usuario_id, provider); tokens are upserted on each
// successful exchange so reconnecting replaces the old credential.
type SyncToken struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UsuarioID    primitive.ObjectID `bson:"usuario_id" json:"usuario_id"`
	Provider     string             `bson:"provider" json:"provider"` // "microsoft" | "classroom" | "icloud"
	AccessToken  string             `bson:"access_token" json:"-"`
	RefreshToken string             `bson:"refresh_token,omitempty" json:"-"`
	ExpiresAt    *time.Time         `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
