package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/auth"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/services"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/pkg/models"
)

// Discussions is the part of the discussion service the API uses.
type Discussions interface {
	Search(ctx context.Context, subject, query string, topK int) ([]*models.ScoredDiscussion, error)
	Delete(ctx context.Context, subject, id string) error
}

// SearchDiscussions returns the caller's discussions closest to q
// (GET /api/v1/discussions?q=&top_k=)
func (s *Server) SearchDiscussions(c echo.Context) error {
	if s.discussions == nil {
		return writeError(c, http.StatusServiceUnavailable, "Discussion store is disabled")
	}

	var (
		query string
		topK  int
	)
	if err := runtime.BindQueryParameter("form", true, true, "q", c.QueryParams(), &query); err != nil {
		return writeError(c, http.StatusBadRequest, err.Error())
	}
	if err := runtime.BindQueryParameter("form", true, false, "top_k", c.QueryParams(), &topK); err != nil {
		return writeError(c, http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(query) == "" {
		return writeError(c, http.StatusBadRequest, "Query parameter q must not be empty")
	}
	if topK < 0 {
		return writeError(c, http.StatusBadRequest, "Query parameter top_k must not be negative")
	}

	subject := auth.SubjectFromContext(c.Request().Context())
	hits, err := s.discussions.Search(c.Request().Context(), subject, query, topK)
	if err != nil {
		s.logError("discussion search failed", "subject", subject, "error", err)
		return writeError(c, http.StatusInternalServerError, err.Error())
	}
	if hits == nil {
		hits = []*models.ScoredDiscussion{}
	}
	return c.JSON(http.StatusOK, hits)
}

// DeleteDiscussion removes one of the caller's discussions
// (DELETE /api/v1/discussions/:id)
func (s *Server) DeleteDiscussion(c echo.Context) error {
	if s.discussions == nil {
		return writeError(c, http.StatusServiceUnavailable, "Discussion store is disabled")
	}

	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return writeError(c, http.StatusBadRequest, "Invalid discussion id: "+err.Error())
	}

	subject := auth.SubjectFromContext(c.Request().Context())
	err = s.discussions.Delete(c.Request().Context(), subject, id)
	switch {
	case errors.Is(err, services.ErrDiscussionNotFound):
		return writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrDiscussionAccess):
		return writeError(c, http.StatusForbidden, err.Error())
	case err != nil:
		s.logError("discussion delete failed", "id", id, "error", err)
		return writeError(c, http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
