// internal/app/membership/manager.go

// Package membership owns the group-membership and invitation lifecycle:
// group creation, invites, responses, member removal and role changes.
// Multi-document writes go through the transaction runner; duplicate-key
// errors from the unique indexes resolve the concurrent-invite and
// concurrent-accept races.
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/astren-app/astren/internal/app/notify"
	areastore "github.com/astren-app/astren/internal/app/store/areas"
	groupareastore "github.com/astren-app/astren/internal/app/store/groupareas"
	groupstore "github.com/astren-app/astren/internal/app/store/groups"
	invitationstore "github.com/astren-app/astren/internal/app/store/invitations"
	membershipstore "github.com/astren-app/astren/internal/app/store/memberships"
	userstore "github.com/astren-app/astren/internal/app/store/users"
	"github.com/astren-app/astren/internal/app/system/status"
	"github.com/astren-app/astren/internal/app/system/txn"
	"github.com/astren-app/astren/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrUserNotFound     = errors.New("usuario no encontrado")
	ErrGroupNotFound    = errors.New("grupo no encontrado")
	ErrAlreadyMember    = errors.New("el usuario ya es miembro de este grupo")
	ErrNotMember        = errors.New("el usuario no es miembro de este grupo")
	ErrCreatorImmutable = errors.New("el creador del grupo no puede ser modificado ni eliminado")
	ErrBadInvitation    = errors.New("la invitación no admite esta operación")
)

// Manager composes the stores behind every membership operation.
type Manager struct {
	Groups      *groupstore.Store
	Members     *membershipstore.Store
	Invitations *invitationstore.Store
	GroupAreas  *groupareastore.Store
	Areas       *areastore.Store
	Users       *userstore.Store
	Txn         *txn.Runner
	Notifier    *notify.Notifier
}

// CreateGroup writes the group and the creator's lider membership in one
// transaction, plus the creator's personal-area mapping when areaID is set.
func (m *Manager) CreateGroup(ctx context.Context, g models.Group, areaID *primitive.ObjectID) (models.Group, error) {
	var created models.Group
	err := m.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = m.Groups.Create(ctx, g)
		if err != nil {
			return err
		}
		if err := m.Members.Add(ctx, created.ID, created.CreadorID, status.RoleLeader); err != nil {
			return err
		}
		if areaID != nil {
			return m.GroupAreas.Upsert(ctx, created.ID, created.CreadorID, *areaID)
		}
		return nil
	})
	if err != nil {
		return models.Group{}, err
	}
	return created, nil
}

// InviteMember invites the user with the given email into the group.
// The partial unique index on pending invitations makes concurrent invites
// for the same pair collapse to one; the loser gets ErrInvitationPending.
func (m *Manager) InviteMember(ctx context.Context, grupoID primitive.ObjectID, email, rol string, invitedBy primitive.ObjectID) (models.Invitation, error) {
	group, err := m.Groups.GetByID(ctx, grupoID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Invitation{}, ErrGroupNotFound
	}
	if err != nil {
		return models.Invitation{}, err
	}

	invitee, err := m.Users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Invitation{}, ErrUserNotFound
	}
	if err != nil {
		return models.Invitation{}, err
	}

	isMember, err := m.Members.Exists(ctx, grupoID, invitee.ID)
	if err != nil {
		return models.Invitation{}, err
	}
	if isMember {
		return models.Invitation{}, ErrAlreadyMember
	}

	pending, err := m.Invitations.HasPending(ctx, grupoID, invitee.ID)
	if err != nil {
		return models.Invitation{}, err
	}
	if pending {
		return models.Invitation{}, invitationstore.ErrInvitationPending
	}

	// Terminal invitations for the pair are history; a new invite
	// restarts the cycle from a clean slate.
	if err := m.Invitations.PurgeTerminal(ctx, grupoID, invitee.ID); err != nil {
		return models.Invitation{}, err
	}

	inv, err := m.Invitations.Create(ctx, grupoID, invitee.ID, rol)
	if err != nil {
		return models.Invitation{}, err
	}

	m.Notifier.Notify(ctx, invitee.ID, notify.TipoGrupoInvitacion,
		"Invitación a grupo",
		fmt.Sprintf("Has sido invitado al grupo %q", group.Nombre),
		bson.M{"grupo_id": grupoID, "invitacion_id": inv.ID, "invitado_por": invitedBy})
	return inv, nil
}

// AcceptInvitation turns the invitation into a membership. Accepting twice,
// or accepting after winning membership through a concurrent accept, is
// idempotent: if the user is already a member the invitation is simply
// marked aceptada. areaID, when set, maps the group into the accepter's
// personal area.
func (m *Manager) AcceptInvitation(ctx context.Context, invID, usuarioID primitive.ObjectID, areaID *primitive.ObjectID) error {
	inv, err := m.Invitations.GetByID(ctx, invID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return mongo.ErrNoDocuments
	}
	if err != nil {
		return err
	}
	if inv.UsuarioID != usuarioID {
		return ErrBadInvitation
	}

	switch inv.Estado {
	case status.InvitationAccepted:
		return nil
	case status.InvitationPending, status.InvitationArchived:
	default:
		return ErrBadInvitation
	}

	alreadyMember, err := m.Members.Exists(ctx, inv.GrupoID, usuarioID)
	if err != nil {
		return err
	}
	if alreadyMember {
		return m.Invitations.Transition(ctx, invID, inv.Estado, status.InvitationAccepted)
	}

	err = m.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		if err := m.Members.Add(ctx, inv.GrupoID, usuarioID, inv.Rol); err != nil {
			return err
		}
		if areaID != nil {
			if err := m.GroupAreas.Upsert(ctx, inv.GrupoID, usuarioID, *areaID); err != nil {
				return err
			}
		}
		return m.Invitations.Transition(ctx, invID, inv.Estado, status.InvitationAccepted)
	})
	if errors.Is(err, membershipstore.ErrDuplicateMembership) {
		// Lost the race to a concurrent accept; membership exists, so
		// the outcome the caller wanted is already true.
		return m.Invitations.Transition(ctx, invID, inv.Estado, status.InvitationAccepted)
	}
	if err != nil {
		return err
	}

	m.notifyResponse(ctx, inv, "aceptada")
	return nil
}

// RejectInvitation flips a pending invitation to rechazada.
func (m *Manager) RejectInvitation(ctx context.Context, invID, usuarioID primitive.ObjectID) error {
	inv, err := m.Invitations.GetByID(ctx, invID)
	if err != nil {
		return err
	}
	if inv.UsuarioID != usuarioID {
		return ErrBadInvitation
	}
	if inv.Estado != status.InvitationPending {
		return ErrBadInvitation
	}
	if err := m.Invitations.Transition(ctx, invID, status.InvitationPending, status.InvitationRejected); err != nil {
		return err
	}
	m.notifyResponse(ctx, inv, "rechazada")
	return nil
}

// ArchiveInvitation parks a pending invitation without answering it.
func (m *Manager) ArchiveInvitation(ctx context.Context, invID, usuarioID primitive.ObjectID) error {
	inv, err := m.Invitations.GetByID(ctx, invID)
	if err != nil {
		return err
	}
	if inv.UsuarioID != usuarioID {
		return ErrBadInvitation
	}
	if err := m.Invitations.Transition(ctx, invID, status.InvitationPending, status.InvitationArchived); err != nil {
		return err
	}
	m.Notifier.Notify(ctx, inv.UsuarioID, notify.TipoInvitacionEstado,
		"Invitación archivada",
		"Has archivado una invitación de grupo",
		bson.M{"grupo_id": inv.GrupoID, "invitacion_id": inv.ID})
	return nil
}

// UnarchiveInvitation returns an archived invitation to pendiente.
func (m *Manager) UnarchiveInvitation(ctx context.Context, invID, usuarioID primitive.ObjectID) error {
	inv, err := m.Invitations.GetByID(ctx, invID)
	if err != nil {
		return err
	}
	if inv.UsuarioID != usuarioID {
		return ErrBadInvitation
	}
	return m.Invitations.Transition(ctx, invID, status.InvitationArchived, status.InvitationPending)
}

// RemoveMember deletes a membership. The group creator can never be removed.
func (m *Manager) RemoveMember(ctx context.Context, grupoID, usuarioID primitive.ObjectID) error {
	group, err := m.Groups.GetByID(ctx, grupoID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrGroupNotFound
	}
	if err != nil {
		return err
	}
	if group.CreadorID == usuarioID {
		return ErrCreatorImmutable
	}
	if err := m.Members.Remove(ctx, grupoID, usuarioID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotMember
		}
		return err
	}
	m.Notifier.Notify(ctx, usuarioID, notify.TipoMiembroRemovido,
		"Removido de grupo",
		fmt.Sprintf("Has sido removido del grupo %q", group.Nombre),
		bson.M{"grupo_id": grupoID})
	return nil
}

// ChangeRole updates a member's role in place. The creator's role is fixed.
func (m *Manager) ChangeRole(ctx context.Context, grupoID, usuarioID primitive.ObjectID, rol string) error {
	group, err := m.Groups.GetByID(ctx, grupoID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrGroupNotFound
	}
	if err != nil {
		return err
	}
	if group.CreadorID == usuarioID {
		return ErrCreatorImmutable
	}
	if err := m.Members.UpdateRole(ctx, grupoID, usuarioID, rol); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotMember
		}
		return err
	}
	return nil
}

func (m *Manager) notifyResponse(ctx context.Context, inv models.Invitation, respuesta string) {
	group, err := m.Groups.GetByID(ctx, inv.GrupoID)
	if err != nil {
		// No group means no creator to address. Skip the notification.
		return
	}
	m.Notifier.Notify(ctx, group.CreadorID, notify.TipoInvitacionEstado,
		"Respuesta a invitación",
		fmt.Sprintf("Tu invitación al grupo %q fue %s", group.Nombre, respuesta),
		bson.M{
			"grupo_id":      inv.GrupoID,
			"invitacion_id": inv.ID,
			"usuario_id":    inv.UsuarioID,
			"respuesta":     respuesta,
			"respondida_en": time.Now().UTC(),
		})
}
