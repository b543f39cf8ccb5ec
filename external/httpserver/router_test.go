package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foxseedlab/roomwarden/internal/scheduler"
	"github.com/gin-gonic/gin"
)

type staticStatuses []scheduler.Status

func (s staticStatuses) Statuses() []scheduler.Status { return s }

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(staticStatuses(nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestJobs_ListsSchedulerStatuses(t *testing.T) {
	statuses := staticStatuses{
		{Name: "occupancy-reconcile", Spec: "* * * * *", Runs: 3, Skips: 1},
		{Name: "shutdown", Spec: "15 14 * * 4", LastError: "member gone"},
	}
	rec := httptest.NewRecorder()
	NewRouter(statuses).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var body struct {
		Jobs []scheduler.Status `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(body.Jobs) != 2 || body.Jobs[0].Runs != 3 || body.Jobs[1].LastError != "member gone" {
		t.Fatalf("unexpected jobs: %+v", body.Jobs)
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(staticStatuses(nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
