// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	"github.com/astren-app/astren/internal/app/system/htmlsanitize"
	"github.com/astren-app/astren/internal/app/system/normalize"
	"github.com/astren-app/astren/internal/app/system/status"
	"github.com/astren-app/astren/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("grupos")}
}

// ErrBadTransition is returned when an estado change is not in the group
// lifecycle table.
var ErrBadTransition = errors.New("transición de estado no permitida")

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Create inserts the group document only; the creator's membership is
// written by the membership manager in the same transaction.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.Nombre = normalize.Name(g.Nombre)
	g.Descripcion = htmlsanitize.Sanitize(g.Descripcion)
	if g.Estado == "" {
		g.Estado = status.GroupActive
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// UpdateInfo edits name, description and display attributes in place.
// Empty name keeps the current one; description can be cleared.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, nombre, descripcion, color, icono string) error {
	set := bson.M{
		"descripcion": htmlsanitize.Sanitize(descripcion),
		"updated_at":  time.Now().UTC(),
	}
	if n := normalize.Name(nombre); n != "" {
		set["nombre"] = n
	}
	if color != "" {
		set["color"] = color
	}
	if icono != "" {
		set["icono"] = icono
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UpdateEstado flips the lifecycle state after checking the transition
// table. The filter matches on the expected current estado so a concurrent
// flip loses cleanly instead of overwriting.
func (s *Store) UpdateEstado(ctx context.Context, id primitive.ObjectID, from, to string) error {
	if !status.GroupCanTransition(from, to) {
		return ErrBadTransition
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "estado": from},
		bson.M{"$set": bson.M{"estado": to, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByIDs loads the groups for a membership set, filtered to one estado.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID, estado string) ([]models.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}}
	if estado != "" {
		filter["estado"] = estado
	}
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var groups []models.Group
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}
