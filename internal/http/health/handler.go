// Package health serves the monitoring endpoints.
package health

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/clairehq/claire/internal/database"
	"github.com/clairehq/claire/internal/http/respond"
)

// Version is the API version reported on the monitoring endpoints.
const Version = "0.1.0"

// ObjectStore is the slice of the object store the checks depend on.
type ObjectStore interface {
	Healthy(ctx context.Context) bool
}

type Handler struct {
	name        string
	environment string
	db          *sql.DB
	objects     ObjectStore
}

func NewHandler(name, environment string, db *sql.DB, objects ObjectStore) *Handler {
	return &Handler{name: name, environment: environment, db: db, objects: objects}
}

// Root answers liveness probes and tells callers what they reached.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{
		"name":        h.name,
		"version":     Version,
		"environment": h.environment,
		"status":      "healthy",
	})
}

// App reports the process itself is up, without touching dependencies.
func (h *Handler) App(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

// Services checks the backing services the API cannot run without.
func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	dbHealthy := database.Healthy(r.Context(), h.db)
	objectsHealthy := h.objects.Healthy(r.Context())

	status := "healthy"
	code := http.StatusOK

	if !dbHealthy || !objectsHealthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	respond.JSON(w, code, map[string]string{
		"status":   status,
		"database": label(dbHealthy),
		"minio":    label(objectsHealthy),
	})
}

func label(healthy bool) string {
	if healthy {
		return "healthy"
	}

	return "unhealthy"
}
