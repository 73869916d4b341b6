package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mgijax/wts/closure"
	"github.com/mgijax/wts/digraph"
	"github.com/mgijax/wts/service"
	"github.com/mgijax/wts/utils"
	"github.com/mgijax/wts/web/middleware"
)

type DependencyHandler struct {
	svc         *service.DependencyService
	defaultType closure.RelationshipType
}

func NewDependencyHandler(svc *service.DependencyService, defaultType closure.RelationshipType) *DependencyHandler {
	return &DependencyHandler{
		svc:         svc,
		defaultType: defaultType,
	}
}

type createRecordRequest struct {
	Title string `json:"title"`
}

// setDependenciesRequest accepts ids, a typed list such as "TR 12, 15", or both.
type setDependenciesRequest struct {
	DependsOn []int64 `json:"depends_on"`
	List      string  `json:"list"`
}

type arcResponse struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

type changesResponse struct {
	Added         []arcResponse `json:"added"`
	Deleted       []arcResponse `json:"deleted"`
	ComponentSize int           `json:"component_size"`
}

func arcsResponse(s *digraph.ArcSet) []arcResponse {
	arcs := s.Arcs()
	digraph.SortArcs(arcs)
	out := make([]arcResponse, len(arcs))
	for i, a := range arcs {
		out[i] = arcResponse{From: a.From(), To: a.To()}
	}
	return out
}

func newChangesResponse(ch *closure.Changes) changesResponse {
	return changesResponse{
		Added:         arcsResponse(ch.Added),
		Deleted:       arcsResponse(ch.Deleted),
		ComponentSize: ch.Component.Count(),
	}
}

// relationshipType reads the optional "type" query parameter.
func (h *DependencyHandler) relationshipType(c *gin.Context) (closure.RelationshipType, bool) {
	raw := c.Query("type")
	if raw == "" {
		return h.defaultType, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		respondWithClientError(c, http.StatusBadRequest, "Invalid relationship type")
		return 0, false
	}
	return closure.RelationshipType(n), true
}

func recordParam(c *gin.Context, name string) (digraph.NodeID, bool) {
	id, err := utils.CleanRecordNumber(c.Param(name))
	if err != nil {
		respondWithClientError(c, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

// target reads the common path and query parameters of a record request.
func (h *DependencyHandler) target(c *gin.Context) (digraph.NodeID, closure.RelationshipType, bool) {
	id, ok := recordParam(c, "id")
	if !ok {
		return 0, 0, false
	}
	relType, ok := h.relationshipType(c)
	return id, relType, ok
}

// CreateRecord handles POST /records
func (h *DependencyHandler) CreateRecord(c *gin.Context) {
	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.svc.CreateRecord(c.Request.Context(), req.Title)
	if err != nil {
		respondWithServiceError(c, err, middleware.LoggerFrom(c))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "title": req.Title})
}

// Dependencies handles GET /records/:id/dependencies
func (h *DependencyHandler) Dependencies(c *gin.Context) {
	id, relType, ok := h.target(c)
	if !ok {
		return
	}
	transitive := c.Query("transitive") == "true"

	nodes, err := h.svc.Dependencies(c.Request.Context(), relType, id, transitive)
	if err != nil {
		respondWithServiceError(c, err, middleware.LoggerFrom(c), zap.Int64("record", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": id, "transitive": transitive, "depends_on": nonNil(nodes)})
}

// Dependents handles GET /records/:id/dependents
func (h *DependencyHandler) Dependents(c *gin.Context) {
	id, relType, ok := h.target(c)
	if !ok {
		return
	}

	nodes, err := h.svc.Dependents(c.Request.Context(), relType, id)
	if err != nil {
		respondWithServiceError(c, err, middleware.LoggerFrom(c), zap.Int64("record", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": id, "depended_on_by": nonNil(nodes)})
}

// SetDependencies handles PUT /records/:id/dependencies
func (h *DependencyHandler) SetDependencies(c *gin.Context) {
	id, relType, ok := h.target(c)
	if !ok {
		return
	}

	var req setDependenciesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	targets := req.DependsOn
	if req.List != "" {
		listed, err := utils.ParseRecordList(req.List)
		if err != nil {
			respondWithClientError(c, http.StatusBadRequest, err.Error())
			return
		}
		targets = append(targets, listed...)
	}

	changes, err := h.svc.SetDependencies(c.Request.Context(), relType, id, targets)
	if err != nil {
		respondWithServiceError(c, err, middleware.LoggerFrom(c), zap.Int64("record", id))
		return
	}
	c.JSON(http.StatusOK, newChangesResponse(changes))
}

// AddDependency handles POST /records/:id/dependencies/:target
func (h *DependencyHandler) AddDependency(c *gin.Context) {
	id, relType, ok := h.target(c)
	if !ok {
		return
	}
	target, ok := recordParam(c, "target")
	if !ok {
		return
	}

	changes, err := h.svc.AddDependency(c.Request.Context(), relType, id, target)
	if err != nil {
		respondWithServiceError(c, err, middleware.LoggerFrom(c), zap.Int64("record", id), zap.Int64("target", target))
		return
	}
	c.JSON(http.StatusOK, newChangesResponse(changes))
}

// RemoveDependency handles DELETE /records/:id/dependencies/:target
func (h *DependencyHandler) RemoveDependency(c *gin.Context) {
	id, relType, ok := h.target(c)
	if !ok {
		return
	}
	target, ok := recordParam(c, "target")
	if !ok {
		return
	}

	changes, err := h.svc.RemoveDependency(c.Request.Context(), relType, id, target)
	if err != nil {
		respondWithServiceError(c, err, middleware.LoggerFrom(c), zap.Int64("record", id), zap.Int64("target", target))
		return
	}
	c.JSON(http.StatusOK, newChangesResponse(changes))
}

// CheckDependencies handles GET /records/:id/check?targets=...
func (h *DependencyHandler) CheckDependencies(c *gin.Context) {
	id, relType, ok := h.target(c)
	if !ok {
		return
	}
	targets, err := utils.ParseRecordList(c.Query("targets"))
	if err != nil {
		respondWithClientError(c, http.StatusBadRequest, err.Error())
		return
	}

	violations, err := h.svc.CheckDependencies(c.Request.Context(), relType, id, targets)
	if err != nil {
		respondWithServiceError(c, err, middleware.LoggerFrom(c), zap.Int64("record", id))
		return
	}
	blocked := make([]int64, len(violations))
	for i, v := range violations {
		blocked[i] = v.Target
	}
	c.JSON(http.StatusOK, gin.H{"record": id, "safe": len(violations) == 0, "would_cycle": blocked})
}

// Tree handles GET /records/:id/tree
func (h *DependencyHandler) Tree(c *gin.Context) {
	id, relType, ok := h.target(c)
	if !ok {
		return
	}
	titles := c.Query("titles") == "true"

	lines, err := h.svc.Tree(c.Request.Context(), relType, id, titles)
	if err != nil {
		respondWithServiceError(c, err, middleware.LoggerFrom(c), zap.Int64("record", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": id, "lines": lines})
}

func nonNil(nodes []digraph.NodeID) []digraph.NodeID {
	if nodes == nil {
		return []digraph.NodeID{}
	}
	return nodes
}
