package areas_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/astren-app/astren/internal/app/features/areas"
	areastore "github.com/astren-app/astren/internal/app/store/areas"
	"github.com/astren-app/astren/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*areas.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return areas.NewHandler(areastore.New(db), zap.NewNop()), testutil.NewFixtures(t, db)
}

func TestServeCreate(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	user := fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	body := `{"usuario_id":"` + user.ID.Hex() + `","nombre":"Escuela","color":"#3b82f6","icono":"book"}`
	req := testutil.NewJSONRequest("POST", "/areas", body)
	rec := testutil.NewRecorder()
	handler.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, "Escuela")
	rec.AssertContains(t, "activa")
}

func TestServeCreate_SanitizesName(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	user := fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	body := `{"usuario_id":"` + user.ID.Hex() + `","nombre":"<script>x</script>Trabajo"}`
	req := testutil.NewJSONRequest("POST", "/areas", body)
	rec := testutil.NewRecorder()
	handler.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, "Trabajo")
	if strings.Contains(rec.Body.String(), "<script>") {
		t.Error("area name must be sanitized")
	}
}

func TestServeCreate_MissingName(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	user := fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	req := testutil.NewJSONRequest("POST", "/areas",
		`{"usuario_id":"`+user.ID.Hex()+`","nombre":"   "}`)
	rec := testutil.NewRecorder()
	handler.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeList_OnlyOwnAreas(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	ana := fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	beto := fixtures.CreateUser(ctx, "Beto", "beto@example.com")
	fixtures.CreateArea(ctx, ana.ID, "Escuela")
	fixtures.CreateArea(ctx, beto.ID, "Gimnasio")

	req := testutil.NewRequest("GET", "/areas/"+ana.ID.Hex())
	req = testutil.WithChiURLParam(req, "id", ana.ID.Hex())
	rec := testutil.NewRecorder()
	handler.ServeList(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Escuela")
	if strings.Contains(rec.Body.String(), "Gimnasio") {
		t.Error("list must only contain the requested user's areas")
	}
}

func TestServeUpdate(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	user := fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	area := fixtures.CreateArea(ctx, user.ID, "Escuela")

	req := testutil.NewJSONRequest("PUT", "/areas/"+area.ID.Hex(),
		`{"usuario_id":"`+user.ID.Hex()+`","nombre":"Universidad","color":"#f59e0b"}`)
	req = testutil.WithChiURLParam(req, "id", area.ID.Hex())
	rec := testutil.NewRecorder()
	handler.ServeUpdate(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	store := areastore.New(fixtures.DB())
	got, err := store.GetByID(ctx, area.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Nombre != "Universidad" {
		t.Errorf("nombre: got %q, want %q", got.Nombre, "Universidad")
	}
}

func TestServeUpdate_Unknown(t *testing.T) {
	handler, _ := newTestHandler(t)

	bogus := primitive.NewObjectID()
	req := testutil.NewJSONRequest("PUT", "/areas/"+bogus.Hex(), `{"nombre":"X"}`)
	req = testutil.WithChiURLParam(req, "id", bogus.Hex())
	rec := testutil.NewRecorder()
	handler.ServeUpdate(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeUpdateEstado_ArchiveAndRestore(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	user := fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	area := fixtures.CreateArea(ctx, user.ID, "Escuela")

	archive := testutil.NewJSONRequest("PUT", "/areas/"+area.ID.Hex()+"/estado", `{"estado":"archivada"}`)
	archive = testutil.WithChiURLParam(archive, "id", area.ID.Hex())
	rec := testutil.NewRecorder()
	handler.ServeUpdateEstado(rec, archive)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "archivada")

	restore := testutil.NewJSONRequest("PUT", "/areas/"+area.ID.Hex()+"/estado", `{"estado":"activa"}`)
	restore = testutil.WithChiURLParam(restore, "id", area.ID.Hex())
	rec = testutil.NewRecorder()
	handler.ServeUpdateEstado(rec, restore)
	rec.AssertStatus(t, http.StatusOK)
}

func TestServeUpdateEstado_DeletedIsGone(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	user := fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	area := fixtures.CreateArea(ctx, user.ID, "Escuela")

	store := areastore.New(fixtures.DB())
	if err := store.UpdateEstado(ctx, area.ID, "activa", "eliminada"); err != nil {
		t.Fatalf("UpdateEstado failed: %v", err)
	}

	req := testutil.NewJSONRequest("PUT", "/areas/"+area.ID.Hex()+"/estado", `{"estado":"activa"}`)
	req = testutil.WithChiURLParam(req, "id", area.ID.Hex())
	rec := testutil.NewRecorder()
	handler.ServeUpdateEstado(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeUpdateEstado_BadTransition(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	user := fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	area := fixtures.CreateArea(ctx, user.ID, "Escuela")

	req := testutil.NewJSONRequest("PUT", "/areas/"+area.ID.Hex()+"/estado", `{"estado":"activa"}`)
	req = testutil.WithChiURLParam(req, "id", area.ID.Hex())
	rec := testutil.NewRecorder()
	handler.ServeUpdateEstado(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}
