// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task is a personal or group task.
//
// NOTE:
//   - Estado "vencida" is derived: read paths report any pendiente task
//     whose VenceEn has passed as vencida, and a periodic sweep writes the
//     flip back. The stored column may lag the effective value.
//   - Soft-deleted via estado "eliminada".
type Task struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	UsuarioID   primitive.ObjectID  `bson:"usuario_id" json:"usuario_id"`
	AreaID      *primitive.ObjectID `bson:"area_id,omitempty" json:"area_id,omitempty"`
	GrupoID     *primitive.ObjectID `bson:"grupo_id,omitempty" json:"grupo_id,omitempty"`
	AsignadoAID *primitive.ObjectID `bson:"asignado_a_id,omitempty" json:"asignado_a_id,omitempty"`
	Titulo      string              `bson:"titulo" json:"titulo"`
	Descripcion string              `bson:"descripcion,omitempty" json:"descripcion,omitempty"`
	VenceEn     *time.Time          `bson:"vence_en,omitempty" json:"vence_en,omitempty"`

	Estado string `bson:"estado" json:"estado"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EffectiveEstado reports the task status as read paths must surface it:
// pendiente with a past due timestamp reads as vencida.
func (t Task) EffectiveEstado(now time.Time) string {
	if t.Estado == "pendiente" && t.VenceEn != nil && t.VenceEn.Before(now) {
		return "vencida"
	}
	return t.Estado
}
