// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is an append-only message to a user. Only the read flag is
// mutated; deletion is explicit and user-initiated.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UsuarioID primitive.ObjectID `bson:"usuario_id" json:"usuario_id"`
	Tipo      string             `bson:"tipo" json:"tipo"`
	Titulo    string             `bson:"titulo" json:"titulo"`
	Mensaje   string             `bson:"mensaje" json:"mensaje"`
	Datos     bson.M             `bson:"datos,omitempty" json:"datos,omitempty"`
	Leida     bool               `bson:"leida" json:"leida"`
	CreadaEn  time.Time          `bson:"creada_en" json:"creada_en"`
}
