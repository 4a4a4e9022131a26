package tareas_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/astren-app/astren/internal/app/features/tareas"
	"github.com/astren-app/astren/internal/app/notify"
	groupareastore "github.com/astren-app/astren/internal/app/store/groupareas"
	membershipstore "github.com/astren-app/astren/internal/app/store/memberships"
	notificationstore "github.com/astren-app/astren/internal/app/store/notifications"
	taskstore "github.com/astren-app/astren/internal/app/store/tasks"
	"github.com/astren-app/astren/internal/app/system/status"
	"github.com/astren-app/astren/internal/domain/models"
	"github.com/astren-app/astren/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*tareas.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	handler := tareas.NewHandler(
		taskstore.New(db),
		membershipstore.New(db),
		groupareastore.New(db),
		notify.New(notificationstore.New(db), zap.NewNop()),
		zap.NewNop(),
	)
	return handler, testutil.NewFixtures(t, db)
}

func TestServeCreate_PersonalTask(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	user := fixtures.CreateUser(ctx, "Ana", "ana@example.com")

	req := testutil.NewJSONRequest("POST", "/tareas",
		`{"usuario_id":"`+user.ID.Hex()+`","titulo":"Estudiar","descripcion":"Capítulo 4"}`)
	req = testutil.WithUser(req, testutil.UserFor(user.ID))
	rec := testutil.NewRecorder()
	handler.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, "Estudiar")
}

func TestServeCreate_GroupTaskRequiresRole(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	creator := fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	member := fixtures.CreateUser(ctx, "Beto", "beto@example.com")
	group := fixtures.CreateGroup(ctx, "Historia", creator.ID)
	fixtures.CreateMembership(ctx, group.ID, creator.ID, status.RoleLeader)
	fixtures.CreateMembership(ctx, group.ID, member.ID, status.RoleMember)

	// A plain miembro cannot create group tasks.
	req := testutil.NewJSONRequest("POST", "/tareas",
		`{"usuario_id":"`+member.ID.Hex()+`","grupo_id":"`+group.ID.Hex()+`","titulo":"Tarea"}`)
	req = testutil.WithUser(req, testutil.UserFor(member.ID))
	rec := testutil.NewRecorder()
	handler.ServeCreate(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)

	// The leader can.
	req = testutil.NewJSONRequest("POST", "/tareas",
		`{"usuario_id":"`+creator.ID.Hex()+`","grupo_id":"`+group.ID.Hex()+`","titulo":"Tarea"}`)
	req = testutil.WithUser(req, testutil.UserFor(creator.ID))
	rec = testutil.NewRecorder()
	handler.ServeCreate(rec, req)
	rec.AssertStatus(t, http.StatusCreated)
}

func TestServeCreate_DuplicateWindow(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	user := fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	body := `{"usuario_id":"` + user.ID.Hex() + `","titulo":"Doble click"}`

	req := testutil.NewJSONRequest("POST", "/tareas", body)
	req = testutil.WithUser(req, testutil.UserFor(user.ID))
	rec := testutil.NewRecorder()
	handler.ServeCreate(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	req = testutil.NewJSONRequest("POST", "/tareas", body)
	req = testutil.WithUser(req, testutil.UserFor(user.ID))
	rec = testutil.NewRecorder()
	handler.ServeCreate(rec, req)
	rec.AssertStatus(t, http.StatusConflict)
}

func TestServeUpdateEstado(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	user := fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	task := fixtures.CreateTask(ctx, user.ID, "Completar", nil)

	req := testutil.NewJSONRequest("PUT", "/tareas/"+task.ID.Hex()+"/estado", `{"estado":"completada"}`)
	req = testutil.WithUser(req, testutil.UserFor(user.ID))
	req = testutil.WithChiURLParam(req, "id", task.ID.Hex())
	rec := testutil.NewRecorder()
	handler.ServeUpdateEstado(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "completada")
}

func TestServeDelete_ThenGone(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	user := fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	task := fixtures.CreateTask(ctx, user.ID, "Borrar", nil)

	req := testutil.NewAuthenticatedRequest("DELETE", "/tareas/"+task.ID.Hex(), testutil.UserFor(user.ID))
	req = testutil.WithChiURLParam(req, "id", task.ID.Hex())
	rec := testutil.NewRecorder()
	handler.ServeDelete(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	// A second delete sees the soft-deleted row as gone.
	req = testutil.NewAuthenticatedRequest("DELETE", "/tareas/"+task.ID.Hex(), testutil.UserFor(user.ID))
	req = testutil.WithChiURLParam(req, "id", task.ID.Hex())
	rec = testutil.NewRecorder()
	handler.ServeDelete(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeAssign_FanOutSkipsNonMembers(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	leader := fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	m1 := fixtures.CreateUser(ctx, "Beto", "beto@example.com")
	m2 := fixtures.CreateUser(ctx, "Carla", "carla@example.com")
	outsider := fixtures.CreateUser(ctx, "Dani", "dani@example.com")
	group := fixtures.CreateGroup(ctx, "Historia", leader.ID)
	fixtures.CreateMembership(ctx, group.ID, leader.ID, status.RoleLeader)
	fixtures.CreateMembership(ctx, group.ID, m1.ID, status.RoleMember)
	fixtures.CreateMembership(ctx, group.ID, m2.ID, status.RoleMember)

	body := `{"grupo_id":"` + group.ID.Hex() + `","asignado_por":"` + leader.ID.Hex() + `",` +
		`"usuario_ids":["` + m1.ID.Hex() + `","` + m2.ID.Hex() + `","` + outsider.ID.Hex() + `"],` +
		`"titulo":"Ensayo"}`
	req := testutil.NewJSONRequest("POST", "/tareas/asignar", body)
	req = testutil.WithUser(req, testutil.UserFor(leader.ID))
	rec := testutil.NewRecorder()
	handler.ServeAssign(rec, req)

	rec.AssertStatus(t, http.StatusCreated)

	var result struct {
		Asignadas []models.Task `json:"asignadas"`
		Omitidos  []string      `json:"omitidos"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Asignadas) != 2 {
		t.Errorf("asignadas: got %d, want 2", len(result.Asignadas))
	}
	if len(result.Omitidos) != 1 || result.Omitidos[0] != outsider.ID.Hex() {
		t.Errorf("omitidos: got %v, want [%s]", result.Omitidos, outsider.ID.Hex())
	}
	for _, task := range result.Asignadas {
		if task.GrupoID == nil || *task.GrupoID != group.ID {
			t.Error("assigned copy is missing the group id")
		}
		if task.AsignadoAID == nil {
			t.Error("assigned copy is missing the assignee")
		}
	}
}

func TestServeAssign_NotifiesAssignees(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	leader := fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	member := fixtures.CreateUser(ctx, "Beto", "beto@example.com")
	outsider := fixtures.CreateUser(ctx, "Dani", "dani@example.com")
	group := fixtures.CreateGroup(ctx, "Historia", leader.ID)
	fixtures.CreateMembership(ctx, group.ID, leader.ID, status.RoleLeader)
	fixtures.CreateMembership(ctx, group.ID, member.ID, status.RoleMember)

	body := `{"grupo_id":"` + group.ID.Hex() + `","asignado_por":"` + leader.ID.Hex() + `",` +
		`"usuario_ids":["` + member.ID.Hex() + `","` + outsider.ID.Hex() + `"],` +
		`"titulo":"Ensayo"}`
	req := testutil.NewJSONRequest("POST", "/tareas/asignar", body)
	req = testutil.WithUser(req, testutil.UserFor(leader.ID))
	rec := testutil.NewRecorder()
	handler.ServeAssign(rec, req)

	rec.AssertStatus(t, http.StatusCreated)

	notifs := fixtures.DB().Collection("notificaciones")
	n, err := notifs.CountDocuments(ctx, bson.M{"usuario_id": member.ID, "tipo": notify.TipoTareaAsignada})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if n != 1 {
		t.Errorf("assignee notifications: got %d, want 1", n)
	}

	// Skipped targets get no notification.
	n, err = notifs.CountDocuments(ctx, bson.M{"usuario_id": outsider.ID})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if n != 0 {
		t.Errorf("outsider notifications: got %d, want 0", n)
	}
}

func TestServeAssign_FilesUnderAssigneeAreaMapping(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	leader := fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	member := fixtures.CreateUser(ctx, "Beto", "beto@example.com")
	group := fixtures.CreateGroup(ctx, "Historia", leader.ID)
	area := fixtures.CreateArea(ctx, member.ID, "Escuela")
	fixtures.CreateMembership(ctx, group.ID, leader.ID, status.RoleLeader)
	fixtures.CreateMembership(ctx, group.ID, member.ID, status.RoleMember)
	if err := groupareastore.New(fixtures.DB()).Upsert(ctx, group.ID, member.ID, area.ID); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	body := `{"grupo_id":"` + group.ID.Hex() + `","asignado_por":"` + leader.ID.Hex() + `",` +
		`"usuario_ids":["` + member.ID.Hex() + `"],"titulo":"Lectura"}`
	req := testutil.NewJSONRequest("POST", "/tareas/asignar", body)
	req = testutil.WithUser(req, testutil.UserFor(leader.ID))
	rec := testutil.NewRecorder()
	handler.ServeAssign(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, area.ID.Hex())
}

func TestServeAssign_MemberCannotAssign(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	leader := fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	member := fixtures.CreateUser(ctx, "Beto", "beto@example.com")
	group := fixtures.CreateGroup(ctx, "Historia", leader.ID)
	fixtures.CreateMembership(ctx, group.ID, leader.ID, status.RoleLeader)
	fixtures.CreateMembership(ctx, group.ID, member.ID, status.RoleMember)

	body := `{"grupo_id":"` + group.ID.Hex() + `","asignado_por":"` + member.ID.Hex() + `",` +
		`"usuario_ids":["` + leader.ID.Hex() + `"],"titulo":"Intento"}`
	req := testutil.NewJSONRequest("POST", "/tareas/asignar", body)
	req = testutil.WithUser(req, testutil.UserFor(member.ID))
	rec := testutil.NewRecorder()
	handler.ServeAssign(rec, req)

	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeList_Paging(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	user := fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	fixtures.CreateTask(ctx, user.ID, "Uno", nil)
	fixtures.CreateTask(ctx, user.ID, "Dos", nil)
	fixtures.CreateTask(ctx, user.ID, "Tres", nil)

	req := testutil.NewAuthenticatedRequest("GET", "/tareas/"+user.ID.Hex()+"?limit=2", testutil.UserFor(user.ID))
	req = testutil.WithChiURLParam(req, "id", user.ID.Hex())
	rec := testutil.NewRecorder()
	handler.ServeList(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var tasks []models.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("tasks: got %d, want 2", len(tasks))
	}
}
