// internal/domain/models/groupmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupMembership is the authoritative join between users and groups.
// Exactly one document per (grupo_id, usuario_id); rol is a scalar
// ("lider" | "administrador" | "miembro").
type GroupMembership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GrupoID   primitive.ObjectID `bson:"grupo_id" json:"grupo_id"`
	UsuarioID primitive.ObjectID `bson:"usuario_id" json:"usuario_id"`
	Rol       string             `bson:"rol" json:"rol"`
	UnidoEn   time.Time          `bson:"unido_en" json:"unido_en"`
}
