package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mgijax/wts/closure"
	apperrors "github.com/mgijax/wts/errors"
	"github.com/mgijax/wts/service"
	"github.com/mgijax/wts/web/middleware"
)

type AdminHandler struct {
	svc *service.DependencyService
}

func NewAdminHandler(svc *service.DependencyService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

type rebuildResponse struct {
	RelationshipType int   `json:"relationship_type"`
	Components       int   `json:"components"`
	Nodes            int   `json:"nodes"`
	Added            int   `json:"added"`
	Deleted          int   `json:"deleted"`
	ElapsedMillis    int64 `json:"elapsed_ms"`
}

// Rebuild handles POST /admin/closure/rebuild. Without a "type" query
// parameter every configured relationship type is rebuilt.
func (h *AdminHandler) Rebuild(c *gin.Context) {
	var types []closure.RelationshipType
	if raw := c.Query("type"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithClientError(c, http.StatusBadRequest, "Invalid relationship type")
			return
		}
		types = append(types, closure.RelationshipType(n))
	}

	stats, err := h.svc.Rebuild(c.Request.Context(), "api", types...)
	if err != nil {
		respondWithServiceError(c, err, middleware.LoggerFrom(c))
		return
	}

	out := make([]rebuildResponse, len(stats))
	for i, st := range stats {
		out[i] = rebuildResponse{
			RelationshipType: int(st.RelationshipType),
			Components:       st.Components,
			Nodes:            st.Nodes,
			Added:            st.Added,
			Deleted:          st.Deleted,
			ElapsedMillis:    st.Elapsed.Milliseconds(),
		}
	}
	c.JSON(http.StatusOK, gin.H{"rebuilt": out})
}

// Status handles GET /admin/closure/status
func (h *AdminHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	var out []gin.H
	for _, relType := range h.svc.RelationshipTypes() {
		meta, err := h.svc.Metadata(ctx, relType)
		if apperrors.IsNotFound(err) {
			out = append(out, gin.H{"relationship_type": int(relType), "status": "never synced"})
			continue
		}
		if err != nil {
			respondWithServiceError(c, err, middleware.LoggerFrom(c))
			return
		}
		out = append(out, gin.H{
			"relationship_type": int(relType),
			"status":            meta.Status,
			"last_sync_at":      meta.LastSyncAt,
			"last_added":        meta.LastAdded,
			"last_deleted":      meta.LastDeleted,
		})
	}
	c.JSON(http.StatusOK, gin.H{"closures": out})
}
