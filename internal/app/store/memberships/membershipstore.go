// internal/app/store/memberships/membershipstore.go
package membershipstore

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
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("miembros_grupo")}
}

var (
	errBadRole = errors.New(`rol debe ser "lider", "administrador" o "miembro"`)

	// ErrDuplicateMembership is returned when the (grupo, usuario) pair
	// already has a membership row. Concurrent accepts race on the compound
	// unique index and the loser gets this sentinel, which the membership
	// manager treats as "already a member".
	ErrDuplicateMembership = errors.New("el usuario ya es miembro de este grupo")
)

// Add creates a membership after validating the role.
func (s *Store) Add(ctx context.Context, grupoID, usuarioID primitive.ObjectID, rol string) error {
	if !status.ValidRole(rol) {
		return errBadRole
	}

	doc := models.GroupMembership{
		GrupoID:   grupoID,
		UsuarioID: usuarioID,
		Rol:       rol,
		UnidoEn:   time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMembership
		}
		return err
	}
	return nil
}

// Remove deletes the membership document for (grupoID, usuarioID).
// Returns mongo.ErrNoDocuments when there was nothing to remove.
func (s *Store) Remove(ctx context.Context, grupoID, usuarioID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"grupo_id": grupoID, "usuario_id": usuarioID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Exists checks whether a membership exists for (grupoID, usuarioID).
func (s *Store) Exists(ctx context.Context, grupoID, usuarioID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"grupo_id": grupoID, "usuario_id": usuarioID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetRole returns the role for (grupoID, usuarioID), or
// mongo.ErrNoDocuments when the user is not a member.
func (s *Store) GetRole(ctx context.Context, grupoID, usuarioID primitive.ObjectID) (string, error) {
	var m models.GroupMembership
	if err := s.c.FindOne(ctx, bson.M{"grupo_id": grupoID, "usuario_id": usuarioID}).Decode(&m); err != nil {
		return "", err
	}
	return m.Rol, nil
}

// UpdateRole changes the role in place. The membership row must exist.
func (s *Store) UpdateRole(ctx context.Context, grupoID, usuarioID primitive.ObjectID, rol string) error {
	if !status.ValidRole(rol) {
		return errBadRole
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"grupo_id": grupoID, "usuario_id": usuarioID},
		bson.M{"$set": bson.M{"rol": rol}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByGroup returns all memberships for a group.
func (s *Store) ListByGroup(ctx context.Context, grupoID primitive.ObjectID) ([]models.GroupMembership, error) {
	cur, err := s.c.Find(ctx, bson.M{"grupo_id": grupoID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.GroupMembership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// GroupIDsByUser returns the IDs of every group the user belongs to.
func (s *Store) GroupIDsByUser(ctx context.Context, usuarioID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"usuario_id": usuarioID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var m models.GroupMembership
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		ids = append(ids, m.GrupoID)
	}
	return ids, cur.Err()
}

// CountByGroup returns the membership count for a group.
func (s *Store) CountByGroup(ctx context.Context, grupoID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"grupo_id": grupoID})
}
