// internal/app/store/groupareas/groupareastore.go
package groupareastore

import (
	"context"
	"time"

	"github.com/astren-app/astren/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("grupo_areas_usuario")}
}

// Upsert sets the personal area a member files this group's tasks under.
// One mapping per (grupo, usuario); a second call replaces the area.
func (s *Store) Upsert(ctx context.Context, grupoID, usuarioID, areaID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"grupo_id": grupoID, "usuario_id": usuarioID},
		bson.M{"$set": bson.M{
			"area_id":    areaID,
			"updated_at": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true))
	return err
}

// Get returns the member's area mapping for the group, or
// mongo.ErrNoDocuments when none is set.
func (s *Store) Get(ctx context.Context, grupoID, usuarioID primitive.ObjectID) (models.GroupArea, error) {
	var ga models.GroupArea
	if err := s.c.FindOne(ctx, bson.M{"grupo_id": grupoID, "usuario_id": usuarioID}).Decode(&ga); err != nil {
		return models.GroupArea{}, err
	}
	return ga, nil
}

// DeleteByGroup removes every mapping for a group.
func (s *Store) DeleteByGroup(ctx context.Context, grupoID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"grupo_id": grupoID})
	return err
}
