// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// State is an OAuth2 state token stored for CSRF protection during
// Microsoft/Classroom connect flows. One-time use, TTL-expired.
type State struct {
	State     string             `bson:"state"`
	UsuarioID primitive.ObjectID `bson:"usuario_id"`
	Provider  string             `bson:"provider"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Store manages OAuth2 state tokens.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states")}
}

// Save stores a state token bound to the user and provider initiating the
// flow.
func (s *Store) Save(ctx context.Context, state string, usuarioID primitive.ObjectID, provider string, expiresAt time.Time) error {
	st := State{
		State:     state,
		UsuarioID: usuarioID,
		Provider:  provider,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.c.InsertOne(ctx, st)
	return err
}

// Consume validates a state token and deletes it (one-time use). Returns
// the bound user and provider, or valid=false when the state is unknown or
// expired.
func (s *Store) Consume(ctx context.Context, state string) (usuarioID primitive.ObjectID, provider string, valid bool, err error) {
	var st State
	err = s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&st)

	if err == mongo.ErrNoDocuments {
		return primitive.NilObjectID, "", false, nil
	}
	if err != nil {
		return primitive.NilObjectID, "", false, err
	}
	return st.UsuarioID, st.Provider, true, nil
}
