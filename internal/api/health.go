package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Check is one readiness dependency.
type Check struct {
	Name string
	Ping func() error
}

// HealthHandler provides liveness and readiness endpoints for the service.
//
// Responsibilities:
//   - /healthz: Basic liveness probe (always returns 200 OK).
//   - /readyz: Readiness probe (every configured bucket must be reachable).
type HealthHandler struct {
	checks []Check
}

// NewHealthHandler constructs a HealthHandler. Checks with a nil Ping are
// reported as ok.
func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Register mounts the health and readiness endpoints into the provided Gin router.
//
// Routes:
//   - GET /healthz: Always returns 200 OK.
//   - GET /readyz: 200 when every check passes, 503 otherwise. The body
//     lists the state of each check.
func (h *HealthHandler) Register(r *gin.Engine) {
	// @Summary      Liveness probe
	// @Description  Always returns OK if the service is running
	// @Tags         health
	// @Produce      json
	// @Success      200  {object}  map[string]string
	// @Router       /healthz [get]
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// @Summary      Readiness probe
	// @Description  Returns ready if the source and target buckets are reachable
	// @Tags         health
	// @Produce      json
	// @Success      200  {object}  map[string]any
	// @Failure      503  {object}  map[string]any
	// @Router       /readyz [get]
	r.GET("/readyz", func(c *gin.Context) {
		status, code := "ready", http.StatusOK
		states := make(map[string]string, len(h.checks))
		for _, chk := range h.checks {
			if chk.Ping != nil {
				if err := chk.Ping(); err != nil {
					states[chk.Name] = err.Error()
					status, code = "degraded", http.StatusServiceUnavailable
					continue
				}
			}
			states[chk.Name] = "ok"
		}
		c.JSON(code, gin.H{"status": status, "checks": states})
	})
}
