// internal/app/store/tasks/taskstore.go
package taskstore

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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tareas")}
}

// DuplicateWindow is the look-back used by the duplicate-creation guard.
// Two near-simultaneous identical creates may both pass the check; that
// imprecision is accepted, the guard targets accidental double-submits.
const DuplicateWindow = time.Minute

var (
	// ErrDuplicateTask is returned when an identical task was created
	// within the last DuplicateWindow.
	ErrDuplicateTask = errors.New("tarea duplicada creada hace menos de un minuto")

	// ErrBadTransition is returned when an estado change is not in the task
	// lifecycle table.
	ErrBadTransition = errors.New("transición de estado no permitida")

	errMissingTitulo = errors.New("título de tarea obligatorio")
)

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// Create inserts a task after the duplicate-window check: an existing task
// with the same owner, title, description, area, due date and estado created
// within the last minute suppresses the insert.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	t.Titulo = normalize.Name(t.Titulo)
	t.Descripcion = htmlsanitize.Sanitize(t.Descripcion)
	if t.Titulo == "" {
		return models.Task{}, errMissingTitulo
	}
	if t.Estado == "" {
		t.Estado = status.TaskPending
	}

	dup := bson.M{
		"usuario_id":  t.UsuarioID,
		"titulo":      t.Titulo,
		"descripcion": t.Descripcion,
		"estado":      t.Estado,
		"created_at":  bson.M{"$gte": time.Now().UTC().Add(-DuplicateWindow)},
	}
	if t.AreaID != nil {
		dup["area_id"] = *t.AreaID
	} else {
		dup["area_id"] = bson.M{"$exists": false}
	}
	if t.VenceEn != nil {
		dup["vence_en"] = *t.VenceEn
	} else {
		dup["vence_en"] = bson.M{"$exists": false}
	}
	// Fan-out copies share owner and title; the assignee keeps them distinct.
	if t.AsignadoAID != nil {
		dup["asignado_a_id"] = *t.AsignadoAID
	} else {
		dup["asignado_a_id"] = bson.M{"$exists": false}
	}
	n, err := s.c.CountDocuments(ctx, dup)
	if err != nil {
		return models.Task{}, err
	}
	if n > 0 {
		return models.Task{}, ErrDuplicateTask
	}

	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// ListByUser returns the user's visible tasks (owned or assigned to them),
// newest first, with limit/offset paging. Pendiente tasks past their due
// timestamp are surfaced as vencida without waiting for the sweep.
func (s *Store) ListByUser(ctx context.Context, usuarioID primitive.ObjectID, limit, offset int64) ([]models.Task, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"usuario_id": usuarioID},
			{"asignado_a_id": usuarioID},
		},
		"estado": bson.M{"$ne": status.TaskDeleted},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if offset > 0 {
		opts.SetSkip(offset)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tasks []models.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for i := range tasks {
		tasks[i].Estado = tasks[i].EffectiveEstado(now)
	}
	return tasks, nil
}

// ListByGroup returns a group's live tasks with derived overdue state.
func (s *Store) ListByGroup(ctx context.Context, grupoID primitive.ObjectID) ([]models.Task, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"grupo_id": grupoID,
		"estado":   bson.M{"$ne": status.TaskDeleted},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tasks []models.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for i := range tasks {
		tasks[i].Estado = tasks[i].EffectiveEstado(now)
	}
	return tasks, nil
}

// UpdateInfo edits title, description, area and due date in place.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, titulo, descripcion string, areaID *primitive.ObjectID, venceEn *time.Time) error {
	set := bson.M{
		"descripcion": htmlsanitize.Sanitize(descripcion),
		"updated_at":  time.Now().UTC(),
	}
	if t := normalize.Name(titulo); t != "" {
		set["titulo"] = t
	}
	if areaID != nil {
		set["area_id"] = *areaID
	}
	if venceEn != nil {
		set["vence_en"] = *venceEn
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
// table, matching on the expected current estado.
func (s *Store) UpdateEstado(ctx context.Context, id primitive.ObjectID, from, to string) error {
	if !status.TaskCanTransition(from, to) {
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

// MarkOverdue materializes the derived overdue state: every pendiente task
// whose due timestamp has passed is flipped to vencida. Called by the
// periodic sweep worker. Returns the number of tasks flipped.
func (s *Store) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{
			"estado":   status.TaskPending,
			"vence_en": bson.M{"$lt": now.UTC()},
		},
		bson.M{"$set": bson.M{"estado": status.TaskOverdue, "updated_at": now.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CountByUserEstado aggregates the user's task counts per effective estado
// for the dashboard. Overdue is computed from pendiente + past due so the
// counts agree with the read path even between sweeps.
func (s *Store) CountByUserEstado(ctx context.Context, usuarioID primitive.ObjectID) (map[string]int64, error) {
	now := time.Now().UTC()
	counts := make(map[string]int64)

	ownedOrAssigned := []bson.M{
		{"usuario_id": usuarioID},
		{"asignado_a_id": usuarioID},
	}

	pending, err := s.c.CountDocuments(ctx, bson.M{
		"$or":    ownedOrAssigned,
		"estado": status.TaskPending,
		"$nor":   []bson.M{{"vence_en": bson.M{"$lt": now}}},
	})
	if err != nil {
		return nil, err
	}
	counts[status.TaskPending] = pending

	overdue, err := s.c.CountDocuments(ctx, bson.M{
		"$or": ownedOrAssigned,
		"$and": []bson.M{
			{"$or": []bson.M{
				{"estado": status.TaskOverdue},
				{"estado": status.TaskPending, "vence_en": bson.M{"$lt": now}},
			}},
		},
	})
	if err != nil {
		return nil, err
	}
	counts[status.TaskOverdue] = overdue

	completed, err := s.c.CountDocuments(ctx, bson.M{
		"$or":    ownedOrAssigned,
		"estado": status.TaskCompleted,
	})
	if err != nil {
		return nil, err
	}
	counts[status.TaskCompleted] = completed

	return counts, nil
}
