// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered Astren account.
//
// NOTE:
//   - Email is stored normalized (lowercase, trimmed) and carries a unique
//     index; lookups always go through the normalized form.
//   - PasswordHash is bcrypt and never serialized to JSON.
//   - Users are never hard-deleted; only password and phone are mutable
//     after registration.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Nombre       string             `bson:"nombre" json:"nombre"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Telefono     string             `bson:"telefono,omitempty" json:"telefono,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
