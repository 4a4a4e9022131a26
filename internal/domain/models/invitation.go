// internal/domain/models/invitation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invitation is a proposal for a user to join a group with a given role.
// Its lifecycle is independent of membership:
//
//	pendiente ⇄ archivada
//	pendiente | archivada → aceptada | rechazada (terminal)
//
// A partial unique index on (grupo_id, usuario_id) where estado=pendiente
// guarantees at most one pending invitation per pair; a fresh invite purges
// terminal rows for the pair and restarts the cycle.
type Invitation struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GrupoID      primitive.ObjectID `bson:"grupo_id" json:"grupo_id"`
	UsuarioID    primitive.ObjectID `bson:"usuario_id" json:"usuario_id"`
	Rol          string             `bson:"rol" json:"rol"`
	Estado       string             `bson:"estado" json:"estado"`
	CreadaEn     time.Time          `bson:"creada_en" json:"creada_en"`
	RespondidaEn *time.Time         `bson:"respondida_en,omitempty" json:"respondida_en,omitempty"`
}
