// internal/app/notify/notifier.go

// Package notify appends rows to the notification log when group, task and
// invitation events occur. Emission is a side-effect, never a transactional
// participant: failures are logged and swallowed so they cannot roll back
// the business operation that triggered them.
package notify

import (
	"context"

	notificationstore "github.com/astren-app/astren/internal/app/store/notifications"
	"github.com/astren-app/astren/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Notification type tags, matched by the frontend's icon mapping.
const (
	TipoGrupoInvitacion  = "grupo_invitacion"
	TipoInvitacionEstado = "invitacion_estado"
	TipoMiembroRemovido  = "miembro_removido"
	TipoTareaAsignada    = "tarea_asignada"
)

// Notifier writes notifications best-effort.
type Notifier struct {
	store *notificationstore.Store
	log   *zap.Logger
}

// New builds a Notifier over the notification store.
func New(store *notificationstore.Store, logger *zap.Logger) *Notifier {
	return &Notifier{store: store, log: logger}
}

// Notify appends a notification for recipient. Errors are logged, never
// returned.
func (n *Notifier) Notify(ctx context.Context, recipient primitive.ObjectID, tipo, titulo, mensaje string, datos bson.M) {
	_, err := n.store.Insert(ctx, models.Notification{
		UsuarioID: recipient,
		Tipo:      tipo,
		Titulo:    titulo,
		Mensaje:   mensaje,
		Datos:     datos,
	})
	if err != nil {
		n.log.Warn("notification emit failed",
			zap.String("tipo", tipo),
			zap.String("usuario_id", recipient.Hex()),
			zap.Error(err))
	}
}
