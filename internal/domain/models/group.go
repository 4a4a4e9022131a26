// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a named collection of users sharing tasks.
//
// NOTE:
//   - Member lists are not embedded; all membership lives in the
//     miembros_grupo collection, one document per (grupo, usuario).
//   - Estado is a first-class lifecycle field ("activo" | "archivado" |
//     "eliminado"); groups are soft-deleted by flipping it, never removed.
//   - CreadorID is permanent: the creator's membership is written in the
//     same transaction as the group and can never be removed.
type Group struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	CreadorID   primitive.ObjectID `bson:"creador_id" json:"creador_id"`
	Nombre      string             `bson:"nombre" json:"nombre"`
	Descripcion string             `bson:"descripcion,omitempty" json:"descripcion,omitempty"`
	Color       string             `bson:"color,omitempty" json:"color,omitempty"`
	Icono       string             `bson:"icono,omitempty" json:"icono,omitempty"`

	Estado string `bson:"estado" json:"estado"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
