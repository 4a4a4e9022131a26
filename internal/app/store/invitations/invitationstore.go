// internal/app/store/invitations/invitationstore.go
package invitationstore

import (
	"context"
	"errors"
	"time"

	"github.com/astren-app/astren/internal/app/system/status"
	"github.com/astren-app/astren/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("invitaciones_grupo")}
}

var (
	// ErrInvitationPending is returned when a pending invitation already
	// exists for the (grupo, usuario) pair. The pre-check and the partial
	// unique index both surface it, so a concurrent double-invite loses with
	// the same error kind as the synchronous case.
	ErrInvitationPending = errors.New("ya existe una invitación pendiente para este usuario")

	// ErrBadTransition is returned when an estado change is not in the
	// invitation lifecycle table.
	ErrBadTransition = errors.New("transición de invitación no permitida")
)

// GetByID loads an invitation.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Invitation, error) {
	var inv models.Invitation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inv); err != nil {
		return models.Invitation{}, err
	}
	return inv, nil
}

// HasPending reports whether a pendiente invitation exists for the pair.
func (s *Store) HasPending(ctx context.Context, grupoID, usuarioID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"grupo_id":   grupoID,
		"usuario_id": usuarioID,
		"estado":     status.InvitationPending,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PurgeTerminal removes aceptada/rechazada rows for the pair. A fresh
// invite supersedes history.
func (s *Store) PurgeTerminal(ctx context.Context, grupoID, usuarioID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{
		"grupo_id":   grupoID,
		"usuario_id": usuarioID,
		"estado":     bson.M{"$in": []string{status.InvitationAccepted, status.InvitationRejected}},
	})
	return err
}

// Create inserts a pendiente invitation. The partial unique index converts
// a concurrent duplicate into ErrInvitationPending.
func (s *Store) Create(ctx context.Context, grupoID, usuarioID primitive.ObjectID, rol string) (models.Invitation, error) {
	inv := models.Invitation{
		ID:        primitive.NewObjectID(),
		GrupoID:   grupoID,
		UsuarioID: usuarioID,
		Rol:       rol,
		Estado:    status.InvitationPending,
		CreadaEn:  time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Invitation{}, ErrInvitationPending
		}
		return models.Invitation{}, err
	}
	return inv, nil
}

// Transition moves an invitation from one estado to another, stamping
// respondida_en on terminal states. The filter matches the source estado so
// a concurrent transition loses with mongo.ErrNoDocuments instead of
// double-applying.
func (s *Store) Transition(ctx context.Context, id primitive.ObjectID, from, to string) error {
	if !status.InvitationCanTransition(from, to) {
		return ErrBadTransition
	}
	set := bson.M{"estado": to}
	if to == status.InvitationAccepted || to == status.InvitationRejected {
		set["respondida_en"] = time.Now().UTC()
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "estado": from},
		bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByUser returns a user's invitations, newest first, optionally
// filtered to one estado.
func (s *Store) ListByUser(ctx context.Context, usuarioID primitive.ObjectID, estado string) ([]models.Invitation, error) {
	filter := bson.M{"usuario_id": usuarioID}
	if estado != "" {
		filter["estado"] = estado
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "creada_en", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var invs []models.Invitation
	if err := cur.All(ctx, &invs); err != nil {
		return nil, err
	}
	return invs, nil
}
