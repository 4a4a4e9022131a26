package taskstore_test

import (
	"errors"
	"testing"
	"time"

	taskstore "github.com/astren-app/astren/internal/app/store/tasks"
	"github.com/astren-app/astren/internal/app/system/status"
	"github.com/astren-app/astren/internal/domain/models"
	"github.com/astren-app/astren/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreate_DuplicateWindowSuppressesDoubleSubmit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	ctx := testutil.TestContext(t)

	owner := primitive.NewObjectID()
	task := models.Task{UsuarioID: owner, Titulo: "Leer capítulo 3"}

	if _, err := store.Create(ctx, task); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	_, err := store.Create(ctx, task)
	if !errors.Is(err, taskstore.ErrDuplicateTask) {
		t.Errorf("expected ErrDuplicateTask, got %v", err)
	}
}

func TestCreate_DifferentAssigneesAreNotDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	ctx := testutil.TestContext(t)

	owner := primitive.NewObjectID()
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	if _, err := store.Create(ctx, models.Task{UsuarioID: owner, Titulo: "Tarea grupal", AsignadoAID: &a}); err != nil {
		t.Fatalf("Create for first assignee failed: %v", err)
	}
	if _, err := store.Create(ctx, models.Task{UsuarioID: owner, Titulo: "Tarea grupal", AsignadoAID: &b}); err != nil {
		t.Fatalf("Create for second assignee failed: %v", err)
	}
}

func TestCreate_MissingTitle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	ctx := testutil.TestContext(t)

	_, err := store.Create(ctx, models.Task{UsuarioID: primitive.NewObjectID()})
	if err == nil {
		t.Error("expected error for missing title")
	}
}

func TestListByUser_DerivesOverdue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext(t)

	owner := primitive.NewObjectID()
	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	fixtures.CreateTask(ctx, owner, "Atrasada", &past)
	fixtures.CreateTask(ctx, owner, "A tiempo", &future)

	tasks, err := store.ListByUser(ctx, owner, 0, 0)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("tasks: got %d, want 2", len(tasks))
	}

	estados := map[string]string{}
	for _, task := range tasks {
		estados[task.Titulo] = task.Estado
	}
	if estados["Atrasada"] != status.TaskOverdue {
		t.Errorf("past-due task estado: got %q, want %q", estados["Atrasada"], status.TaskOverdue)
	}
	if estados["A tiempo"] != status.TaskPending {
		t.Errorf("future task estado: got %q, want %q", estados["A tiempo"], status.TaskPending)
	}
}

func TestListByUser_IncludesAssignedTasks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	ctx := testutil.TestContext(t)

	owner := primitive.NewObjectID()
	assignee := primitive.NewObjectID()

	if _, err := store.Create(ctx, models.Task{UsuarioID: owner, Titulo: "Asignada", AsignadoAID: &assignee}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tasks, err := store.ListByUser(ctx, assignee, 0, 0)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("assignee's visible tasks: got %d, want 1", len(tasks))
	}
}

func TestUpdateEstado_Transitions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext(t)

	task := fixtures.CreateTask(ctx, primitive.NewObjectID(), "Completar", nil)

	if err := store.UpdateEstado(ctx, task.ID, status.TaskPending, status.TaskCompleted); err != nil {
		t.Fatalf("UpdateEstado failed: %v", err)
	}

	// Completed-to-pending reopens; deleted is terminal.
	if err := store.UpdateEstado(ctx, task.ID, status.TaskCompleted, status.TaskPending); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if err := store.UpdateEstado(ctx, task.ID, status.TaskPending, status.TaskDeleted); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	err := store.UpdateEstado(ctx, task.ID, status.TaskDeleted, status.TaskPending)
	if !errors.Is(err, taskstore.ErrBadTransition) {
		t.Errorf("expected ErrBadTransition from eliminada, got %v", err)
	}
}

func TestUpdateEstado_StaleFrom(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext(t)

	task := fixtures.CreateTask(ctx, primitive.NewObjectID(), "Carrera", nil)

	if err := store.UpdateEstado(ctx, task.ID, status.TaskPending, status.TaskCompleted); err != nil {
		t.Fatalf("UpdateEstado failed: %v", err)
	}

	err := store.UpdateEstado(ctx, task.ID, status.TaskPending, status.TaskCompleted)
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments for stale from-estado, got %v", err)
	}
}

func TestMarkOverdue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext(t)

	owner := primitive.NewObjectID()
	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	overdueTask := fixtures.CreateTask(ctx, owner, "Vieja", &past)
	fixtures.CreateTask(ctx, owner, "Nueva", &future)
	fixtures.CreateTask(ctx, owner, "Sin fecha", nil)

	n, err := store.MarkOverdue(ctx, time.Now())
	if err != nil {
		t.Fatalf("MarkOverdue failed: %v", err)
	}
	if n != 1 {
		t.Errorf("flipped tasks: got %d, want 1", n)
	}

	stored, err := store.GetByID(ctx, overdueTask.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Estado != status.TaskOverdue {
		t.Errorf("Estado: got %q, want %q", stored.Estado, status.TaskOverdue)
	}
}

func TestCountByUserEstado(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext(t)

	owner := primitive.NewObjectID()
	past := time.Now().UTC().Add(-time.Hour)
	fixtures.CreateTask(ctx, owner, "Pendiente", nil)
	fixtures.CreateTask(ctx, owner, "Atrasada", &past)
	done := fixtures.CreateTask(ctx, owner, "Hecha", nil)
	if err := store.UpdateEstado(ctx, done.ID, status.TaskPending, status.TaskCompleted); err != nil {
		t.Fatalf("UpdateEstado failed: %v", err)
	}

	counts, err := store.CountByUserEstado(ctx, owner)
	if err != nil {
		t.Fatalf("CountByUserEstado failed: %v", err)
	}
	if counts[status.TaskPending] != 1 {
		t.Errorf("pendiente: got %d, want 1", counts[status.TaskPending])
	}
	if counts[status.TaskOverdue] != 1 {
		t.Errorf("vencida: got %d, want 1", counts[status.TaskOverdue])
	}
	if counts[status.TaskCompleted] != 1 {
		t.Errorf("completada: got %d, want 1", counts[status.TaskCompleted])
	}
}

func TestEffectiveEstado(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	cases := []struct {
		name string
		task models.Task
		want string
	}{
		{"pending without due date", models.Task{Estado: status.TaskPending}, status.TaskPending},
		{"pending past due", models.Task{Estado: status.TaskPending, VenceEn: &past}, status.TaskOverdue},
		{"pending not yet due", models.Task{Estado: status.TaskPending, VenceEn: &future}, status.TaskPending},
		{"completed past due stays completed", models.Task{Estado: status.TaskCompleted, VenceEn: &past}, status.TaskCompleted},
	}
	for _, tc := range cases {
		if got := tc.task.EffectiveEstado(now); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}
