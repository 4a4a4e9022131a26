// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup from the EnsureSchema hook. Each ensure*
function is idempotent. Errors are aggregated so every problem is visible
and startup can fail fast.

The membership manager depends on three of these for correctness, not just
speed: uniq_usuarios_email, uniq_mg_grupo_usuario and the partial
uniq_ig_pendiente index: duplicate-key failures on them are how concurrent
registration, accept and invite races are resolved (the stores translate
them into typed conflicts).
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsuarios(ctx, db); err != nil {
		problems = append(problems, "usuarios: "+err.Error())
	}
	if err := ensureAreas(ctx, db); err != nil {
		problems = append(problems, "areas: "+err.Error())
	}
	if err := ensureTareas(ctx, db); err != nil {
		problems = append(problems, "tareas: "+err.Error())
	}
	if err := ensureGrupos(ctx, db); err != nil {
		problems = append(problems, "grupos: "+err.Error())
	}
	if err := ensureMiembrosGrupo(ctx, db); err != nil {
		problems = append(problems, "miembros_grupo: "+err.Error())
	}
	if err := ensureInvitacionesGrupo(ctx, db); err != nil {
		problems = append(problems, "invitaciones_grupo: "+err.Error())
	}
	if err := ensureGrupoAreasUsuario(ctx, db); err != nil {
		problems = append(problems, "grupo_areas_usuario: "+err.Error())
	}
	if err := ensureNotificaciones(ctx, db); err != nil {
		problems = append(problems, "notificaciones: "+err.Error())
	}
	if err := ensureSyncTokens(ctx, db); err != nil {
		problems = append(problems, "sync_tokens: "+err.Error())
	}
	if err := ensureOAuthStates(ctx, db); err != nil {
		problems = append(problems, "oauth_states: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// ensureIndexSet creates the desired indexes for one collection. Existing
// indexes with the same keys are reused; an IndexOptionsConflict (same keys,
// different name or options) is resolved by dropping the old index and
// recreating the desired one.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		name := ""
		if m.Options != nil && m.Options.Name != nil {
			name = *m.Options.Name
		}

		_, err := coll.Indexes().CreateOne(ctx, m)
		if err == nil {
			continue
		}
		if isOptionsConflictErr(err) && name != "" {
			zap.L().Info("recreating conflicting index",
				zap.String("collection", coll.Name()),
				zap.String("name", name))
			if _, dropErr := coll.Indexes().DropOne(ctx, name); dropErr != nil {
				errs = append(errs, coll.Name()+"("+name+"): drop failed: "+dropErr.Error())
				continue
			}
			if _, err = coll.Indexes().CreateOne(ctx, m); err == nil {
				continue
			}
		}
		errs = append(errs, coll.Name()+"("+name+"): "+err.Error())
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Mongo/DocDB returns IndexOptionsConflict when an index with the same keys
// already exists under a different name or with different options.
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict") ||
		strings.Contains(err.Error(), "IndexKeySpecsConflict")
}

func ensureUsuarios(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("usuarios")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_usuarios_email"),
		},
	})
}

func ensureAreas(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("areas")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "usuario_id", Value: 1}, {Key: "estado", Value: 1}},
			Options: options.Index().SetName("idx_areas_usuario_estado"),
		},
	})
}

func ensureTareas(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("tareas")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// User task lists, segmented by lifecycle state
		{
			Keys:    bson.D{{Key: "usuario_id", Value: 1}, {Key: "estado", Value: 1}, {Key: "vence_en", Value: 1}},
			Options: options.Index().SetName("idx_tareas_usuario_estado_vence"),
		},
		// Group task lists
		{
			Keys:    bson.D{{Key: "grupo_id", Value: 1}, {Key: "estado", Value: 1}},
			Options: options.Index().SetName("idx_tareas_grupo_estado"),
		},
		// Overdue sweep scans pendiente by due timestamp
		{
			Keys:    bson.D{{Key: "estado", Value: 1}, {Key: "vence_en", Value: 1}},
			Options: options.Index().SetName("idx_tareas_estado_vence"),
		},
	})
}

func ensureGrupos(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("grupos")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "creador_id", Value: 1}, {Key: "estado", Value: 1}},
			Options: options.Index().SetName("idx_grupos_creador_estado"),
		},
	})
}

func ensureMiembrosGrupo(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("miembros_grupo")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Uniqueness: exactly one membership per (grupo, usuario); rol is a
		// scalar, update the document to change it
		{
			Keys:    bson.D{{Key: "grupo_id", Value: 1}, {Key: "usuario_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_mg_grupo_usuario"),
		},
		// Fast: list a user's groups
		{
			Keys:    bson.D{{Key: "usuario_id", Value: 1}, {Key: "grupo_id", Value: 1}},
			Options: options.Index().SetName("idx_mg_usuario_grupo"),
		},
	})
}

func ensureInvitacionesGrupo(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("invitaciones_grupo")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Invariant: at most one pending invitation per (grupo, usuario).
		// Terminal rows (aceptada/rechazada/archivada) are exempt so history
		// can coexist until the next invite purges it.
		{
			Keys: bson.D{{Key: "grupo_id", Value: 1}, {Key: "usuario_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_ig_pendiente").
				SetPartialFilterExpression(bson.M{"estado": "pendiente"}),
		},
		// Fast: a user's invitation inbox
		{
			Keys:    bson.D{{Key: "usuario_id", Value: 1}, {Key: "estado", Value: 1}, {Key: "creada_en", Value: -1}},
			Options: options.Index().SetName("idx_ig_usuario_estado"),
		},
	})
}

func ensureGrupoAreasUsuario(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("grupo_areas_usuario")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "grupo_id", Value: 1}, {Key: "usuario_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_gau_grupo_usuario"),
		},
	})
}

func ensureNotificaciones(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("notificaciones")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "usuario_id", Value: 1}, {Key: "leida", Value: 1}, {Key: "creada_en", Value: -1}},
			Options: options.Index().SetName("idx_notif_usuario_leida"),
		},
	})
}

func ensureSyncTokens(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("sync_tokens")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "usuario_id", Value: 1}, {Key: "provider", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_st_usuario_provider"),
		},
	})
}

func ensureOAuthStates(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("oauth_states")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_oauth_state"),
		},
		// TTL cleanup of abandoned flows
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_oauth_ttl"),
		},
	})
}
