package api

import (
	"context"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Pinger is a dependency the health endpoint checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HandleHealth reports service status. It always answers 200; failing
// dependencies mark the status as degraded.
func HandleHealth(checks map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		status := HealthStatus{
			Status:    "ok",
			Timestamp: time.Now().UTC(),
			Service:   "workflow-service",
			Version:   Version,
		}
		if len(checks) > 0 {
			status.Checks = make(map[string]string, len(checks))
			for name, p := range checks {
				if err := p.Ping(c.Request().Context()); err != nil {
					status.Checks[name] = err.Error()
					status.Status = "degraded"
					continue
				}
				status.Checks[name] = "ok"
			}
		}
		return c.JSON(http.StatusOK, status)
	}
}

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// writeError writes an RFC 7807 Problem Details JSON error response
func writeError(c echo.Context, status int, detail string) error {
	problem := ProblemDetails{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	}
	data, err := json.Marshal(problem)
	if err != nil {
		return err
	}
	return c.Blob(status, "application/problem+json", data)
}
