package httpserver

import (
	"net/http"
	"time"

	"github.com/foxseedlab/roomwarden/internal/scheduler"
	"github.com/gin-gonic/gin"
)

type StatusSource interface {
	Statuses() []scheduler.Status
}

type handler struct {
	jobs StatusSource
	now  func() time.Time
}

// NewRouter exposes process health and per-job scheduler state.
func NewRouter(jobs StatusSource) http.Handler {
	h := &handler{jobs: jobs, now: time.Now}

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", h.health)
	r.GET("/jobs", h.listJobs)
	return r
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "roomwarden",
		"time":    h.now().Unix(),
	})
}

func (h *handler) listJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.jobs.Statuses()})
}
