// internal/app/policy/grouppolicy/grouppolicy.go

// Package grouppolicy answers authorization questions against the
// authoritative miembros_grupo collection. Callers distinguish
// "not authorized" (false, nil) from "database error" (false, err).
package grouppolicy

import (
	"context"
	"errors"

	membershipstore "github.com/astren-app/astren/internal/app/store/memberships"
	"github.com/astren-app/astren/internal/app/system/status"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// IsMember reports whether the user belongs to the group.
func IsMember(ctx context.Context, ms *membershipstore.Store, grupoID, usuarioID primitive.ObjectID) (bool, error) {
	return ms.Exists(ctx, grupoID, usuarioID)
}

// IsLeader reports whether the user holds the lider role in the group.
func IsLeader(ctx context.Context, ms *membershipstore.Store, grupoID, usuarioID primitive.ObjectID) (bool, error) {
	rol, err := ms.GetRole(ctx, grupoID, usuarioID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rol == status.RoleLeader, nil
}

// CanManageGroup reports whether the user can administer the group:
// edit its info, invite and remove members, change roles, archive it.
// Only the lider role qualifies.
func CanManageGroup(ctx context.Context, ms *membershipstore.Store, grupoID, usuarioID primitive.ObjectID) (bool, error) {
	return IsLeader(ctx, ms, grupoID, usuarioID)
}

// CanCreateTasks reports whether the user can create and assign tasks in
// the group. Lideres and administradores qualify; plain miembros do not.
func CanCreateTasks(ctx context.Context, ms *membershipstore.Store, grupoID, usuarioID primitive.ObjectID) (bool, error) {
	rol, err := ms.GetRole(ctx, grupoID, usuarioID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rol == status.RoleLeader || rol == status.RoleAdmin, nil
}
