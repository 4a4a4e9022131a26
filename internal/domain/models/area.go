// internal/domain/models/area.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Area is a user's personal organizational bucket for tasks
// (e.g. "School", "Work"). Soft-deleted via estado.
type Area struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	UsuarioID   primitive.ObjectID `bson:"usuario_id" json:"usuario_id"`
	Nombre      string             `bson:"nombre" json:"nombre"`
	Descripcion string             `bson:"descripcion,omitempty" json:"descripcion,omitempty"`
	Color       string             `bson:"color,omitempty" json:"color,omitempty"`
	Icono       string             `bson:"icono,omitempty" json:"icono,omitempty"`

	Estado string `bson:"estado" json:"estado"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
