// internal/domain/models/grouparea.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupArea maps a group to one of a member's personal areas, letting each
// member file that group's tasks under their own organization. One document
// per (grupo_id, usuario_id), upsert semantics.
type GroupArea struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GrupoID   primitive.ObjectID `bson:"grupo_id" json:"grupo_id"`
	UsuarioID primitive.ObjectID `bson:"usuario_id" json:"usuario_id"`
	AreaID    primitive.ObjectID `bson:"area_id" json:"area_id"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
