// internal/app/store/areas/areastore.go
package areastore

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
	return &Store{c: db.Collection("areas")}
}

var (
	// ErrBadTransition is returned when an estado change is not in the area
	// lifecycle table.
	ErrBadTransition = errors.New("transición de estado no permitida")
	errMissingNombre = errors.New("nombre de área obligatorio")
)

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Area, error) {
	var a models.Area
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return models.Area{}, err
	}
	return a, nil
}

func (s *Store) Create(ctx context.Context, a models.Area) (models.Area, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Nombre = normalize.Name(a.Nombre)
	a.Descripcion = htmlsanitize.Sanitize(a.Descripcion)
	if a.Nombre == "" {
		return models.Area{}, errMissingNombre
	}
	if a.Estado == "" {
		a.Estado = status.AreaActive
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Area{}, err
	}
	return a, nil
}

// ListByUser returns the user's areas, excluding logically-gone rows.
func (s *Store) ListByUser(ctx context.Context, usuarioID primitive.ObjectID) ([]models.Area, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"usuario_id": usuarioID,
		"estado":     bson.M{"$ne": status.AreaDeleted},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var areas []models.Area
	if err := cur.All(ctx, &areas); err != nil {
		return nil, err
	}
	return areas, nil
}

// UpdateInfo edits name, description and display attributes in place.
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

// UpdateEstado flips the lifecycle state after checking the transition table.
func (s *Store) UpdateEstado(ctx context.Context, id primitive.ObjectID, from, to string) error {
	if !status.AreaCanTransition(from, to) {
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
