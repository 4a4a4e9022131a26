// internal/app/store/notifications/notificationstore.go
package notificationstore

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
	return &Store{c: db.Collection("notificaciones")}
}

// Insert appends a notification row, unread by default.
func (s *Store) Insert(ctx context.Context, n models.Notification) (models.Notification, error) {
	n.ID = primitive.NewObjectID()
	n.Leida = false
	n.CreadaEn = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// ListByUser returns the user's notifications, newest first. When
// unreadOnly is set, read rows are filtered out.
func (s *Store) ListByUser(ctx context.Context, usuarioID primitive.ObjectID, unreadOnly bool) ([]models.Notification, error) {
	filter := bson.M{"usuario_id": usuarioID}
	if unreadOnly {
		filter["leida"] = false
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "creada_en", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var notifs []models.Notification
	if err := cur.All(ctx, &notifs); err != nil {
		return nil, err
	}
	return notifs, nil
}

// CountUnread returns the user's unread count.
func (s *Store) CountUnread(ctx context.Context, usuarioID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"usuario_id": usuarioID, "leida": false})
}

// MarkRead flips one notification's read flag.
func (s *Store) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"leida": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkAllRead flips every unread notification for the user. Returns the
// number flipped.
func (s *Store) MarkAllRead(ctx context.Context, usuarioID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"usuario_id": usuarioID, "leida": false},
		bson.M{"$set": bson.M{"leida": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Delete removes one notification.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
