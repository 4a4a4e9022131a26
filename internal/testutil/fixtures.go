package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/astren-app/astren/internal/app/system/normalize"
	"github.com/astren-app/astren/internal/app/system/status"
	"github.com/astren-app/astren/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Stacks: calling it again adds to the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user. The password hash is a throwaway literal;
// login tests that need a real hash build it themselves.
func (f *Fixtures) CreateUser(ctx context.Context, nombre, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Nombre:       nombre,
		Email:        normalize.Email(email),
		PasswordHash: "$2a$12$testonly",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("usuarios").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateGroup creates an active test group owned by creadorID, without any
// membership rows.
func (f *Fixtures) CreateGroup(ctx context.Context, nombre string, creadorID primitive.ObjectID) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	group := models.Group{
		ID:        primitive.NewObjectID(),
		CreadorID: creadorID,
		Nombre:    nombre,
		Estado:    status.GroupActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("grupos").InsertOne(ctx, group); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// CreateMembership creates a membership row linking a user to a group.
func (f *Fixtures) CreateMembership(ctx context.Context, grupoID, usuarioID primitive.ObjectID, rol string) models.GroupMembership {
	f.t.Helper()

	membership := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GrupoID:   grupoID,
		UsuarioID: usuarioID,
		Rol:       rol,
		UnidoEn:   time.Now().UTC(),
	}

	if _, err := f.db.Collection("miembros_grupo").InsertOne(ctx, membership); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return membership
}

// CreateInvitation creates an invitation in the given estado.
func (f *Fixtures) CreateInvitation(ctx context.Context, grupoID, usuarioID primitive.ObjectID, estado string) models.Invitation {
	f.t.Helper()

	inv := models.Invitation{
		ID:        primitive.NewObjectID(),
		GrupoID:   grupoID,
		UsuarioID: usuarioID,
		Rol:       status.RoleMember,
		Estado:    estado,
		CreadaEn:  time.Now().UTC(),
	}

	if _, err := f.db.Collection("invitaciones_grupo").InsertOne(ctx, inv); err != nil {
		f.t.Fatalf("failed to create test invitation: %v", err)
	}
	return inv
}

// CreateArea creates an active personal area for the user.
func (f *Fixtures) CreateArea(ctx context.Context, usuarioID primitive.ObjectID, nombre string) models.Area {
	f.t.Helper()

	now := time.Now().UTC()
	area := models.Area{
		ID:        primitive.NewObjectID(),
		UsuarioID: usuarioID,
		Nombre:    nombre,
		Estado:    status.AreaActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("areas").InsertOne(ctx, area); err != nil {
		f.t.Fatalf("failed to create test area: %v", err)
	}
	return area
}

// CreateTask creates a pendiente task owned by usuarioID.
func (f *Fixtures) CreateTask(ctx context.Context, usuarioID primitive.ObjectID, titulo string, venceEn *time.Time) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:        primitive.NewObjectID(),
		UsuarioID: usuarioID,
		Titulo:    titulo,
		VenceEn:   venceEn,
		Estado:    status.TaskPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("tareas").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateNotification creates an unread notification for the user.
func (f *Fixtures) CreateNotification(ctx context.Context, usuarioID primitive.ObjectID, tipo, titulo string) models.Notification {
	f.t.Helper()

	n := models.Notification{
		ID:        primitive.NewObjectID(),
		UsuarioID: usuarioID,
		Tipo:      tipo,
		Titulo:    titulo,
		Mensaje:   "mensaje de prueba",
		CreadaEn:  time.Now().UTC(),
	}

	if _, err := f.db.Collection("notificaciones").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("failed to create test notification: %v", err)
	}
	return n
}
