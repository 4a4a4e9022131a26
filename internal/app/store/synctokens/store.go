// internal/app/store/synctokens/store.go
package synctokenstore

import (
	"context"
	"time"

	"github.com/astren-app/astren/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists per-user external service credentials, replacing the
// process-global token map the sync glue would otherwise need.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sync_tokens")}
}

// Upsert saves the credential for (usuario, provider), replacing any
// previous one.
func (s *Store) Upsert(ctx context.Context, t models.SyncToken) error {
	set := bson.M{
		"access_token": t.AccessToken,
		"updated_at":   time.Now().UTC(),
	}
	if t.RefreshToken != "" {
		set["refresh_token"] = t.RefreshToken
	}
	if t.ExpiresAt != nil {
		set["expires_at"] = *t.ExpiresAt
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"usuario_id": t.UsuarioID, "provider": t.Provider},
		bson.M{"$set": set},
		options.Update().SetUpsert(true))
	return err
}

// Get returns the stored credential for (usuario, provider), or
// mongo.ErrNoDocuments when the user never connected the service.
func (s *Store) Get(ctx context.Context, usuarioID primitive.ObjectID, provider string) (models.SyncToken, error) {
	var t models.SyncToken
	if err := s.c.FindOne(ctx, bson.M{"usuario_id": usuarioID, "provider": provider}).Decode(&t); err != nil {
		return models.SyncToken{}, err
	}
	return t, nil
}

// Providers returns the provider names the user has stored credentials
// for. The slice is empty when no service was ever connected.
func (s *Store) Providers(ctx context.Context, usuarioID primitive.ObjectID) ([]string, error) {
	cur, err := s.c.Find(ctx, bson.M{"usuario_id": usuarioID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var providers []string
	for cur.Next(ctx) {
		var t models.SyncToken
		if err := cur.Decode(&t); err != nil {
			return nil, err
		}
		providers = append(providers, t.Provider)
	}
	return providers, cur.Err()
}

// Delete removes a stored credential (disconnect).
func (s *Store) Delete(ctx context.Context, usuarioID primitive.ObjectID, provider string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"usuario_id": usuarioID, "provider": provider})
	return err
}
