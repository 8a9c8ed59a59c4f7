package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ground-catalog/internal/catalog"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/http/response"
)

type nodeVersionRequest struct {
	NodeID string `json:"nodeId"`
	domain.RichVersion
}

type edgeVersionRequest struct {
	EdgeID            string `json:"edgeId"`
	FromNodeVersionID string `json:"fromNodeVersionId"`
	ToNodeVersionID   string `json:"toNodeVersionId"`
	domain.RichVersion
}

type graphVersionRequest struct {
	GraphID        string   `json:"graphId"`
	NodeVersionIDs []string `json:"nodeVersionIds"`
	domain.RichVersion
}

type structureVersionRequest struct {
	StructureID string            `json:"structureId"`
	Attributes  map[string]string `json:"attributes"`
}

type lineageEdgeVersionRequest struct {
	LineageEdgeID string `json:"lineageEdgeId"`
	FromID        string `json:"fromId"`
	ToID          string `json:"toId"`
	domain.RichVersion
}

// VersionHandler serves version resources of every kind plus reachability.
type VersionHandler struct {
	cat *catalog.Catalog
}

func NewVersionHandler(cat *catalog.Catalog) *VersionHandler {
	return &VersionHandler{cat: cat}
}

// parents reads the repeatable ?parent= query parameter.
func parents(c *gin.Context) []string {
	return c.QueryArray("parent")
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, string(domain.CodeInvalidArgument), err)
		return false
	}
	return true
}

func respond(c *gin.Context, status int, v any, err error) {
	if err != nil {
		response.RespondCatalogError(c, err)
		return
	}
	c.JSON(status, v)
}

// POST /api/node-versions?parent=...
func (h *VersionHandler) CreateNodeVersion(c *gin.Context) {
	var req nodeVersionRequest
	if !bind(c, &req) {
		return
	}
	v, err := h.cat.NodeVersions.Create(c.Request.Context(), req.NodeID, req.RichVersion, parents(c)...)
	respond(c, http.StatusCreated, v, err)
}

// GET /api/node-versions/:id
func (h *VersionHandler) GetNodeVersion(c *gin.Context) {
	v, err := h.cat.NodeVersions.Retrieve(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, v, err)
}

// POST /api/edge-versions?parent=...
func (h *VersionHandler) CreateEdgeVersion(c *gin.Context) {
	var req edgeVersionRequest
	if !bind(c, &req) {
		return
	}
	v, err := h.cat.EdgeVersions.Create(c.Request.Context(), req.EdgeID, req.FromNodeVersionID, req.ToNodeVersionID, req.RichVersion, parents(c)...)
	respond(c, http.StatusCreated, v, err)
}

// GET /api/edge-versions/:id
func (h *VersionHandler) GetEdgeVersion(c *gin.Context) {
	v, err := h.cat.EdgeVersions.Retrieve(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, v, err)
}

// POST /api/graph-versions?parent=...
func (h *VersionHandler) CreateGraphVersion(c *gin.Context) {
	var req graphVersionRequest
	if !bind(c, &req) {
		return
	}
	v, err := h.cat.GraphVersions.Create(c.Request.Context(), req.GraphID, req.NodeVersionIDs, req.RichVersion, parents(c)...)
	respond(c, http.StatusCreated, v, err)
}

// GET /api/graph-versions/:id
func (h *VersionHandler) GetGraphVersion(c *gin.Context) {
	v, err := h.cat.GraphVersions.Retrieve(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, v, err)
}

// POST /api/structure-versions?parent=...
func (h *VersionHandler) CreateStructureVersion(c *gin.Context) {
	var req structureVersionRequest
	if !bind(c, &req) {
		return
	}
	attrs := make(map[string]domain.ValueType, len(req.Attributes))
	for k, t := range req.Attributes {
		attrs[k] = domain.ValueType(t)
	}
	v, err := h.cat.StructureVersions.Create(c.Request.Context(), req.StructureID, attrs, parents(c)...)
	respond(c, http.StatusCreated, v, err)
}

// GET /api/structure-versions/:id
func (h *VersionHandler) GetStructureVersion(c *gin.Context) {
	v, err := h.cat.StructureVersions.Retrieve(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, v, err)
}

// POST /api/lineage-edge-versions?parent=...
func (h *VersionHandler) CreateLineageEdgeVersion(c *gin.Context) {
	var req lineageEdgeVersionRequest
	if !bind(c, &req) {
		return
	}
	v, err := h.cat.LineageEdgeVersions.Create(c.Request.Context(), req.LineageEdgeID, req.FromID, req.ToID, req.RichVersion, parents(c)...)
	respond(c, http.StatusCreated, v, err)
}

// GET /api/lineage-edge-versions/:id
func (h *VersionHandler) GetLineageEdgeVersion(c *gin.Context) {
	v, err := h.cat.LineageEdgeVersions.Retrieve(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, v, err)
}

// GET /api/versions/:id/reachable
func (h *VersionHandler) Reachable(c *gin.Context) {
	ids, err := h.cat.ReachableFrom(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, gin.H{"ids": ids}, err)
}

// GET /api/{kind}-versions/:id/closure
func (h *VersionHandler) Closure(kind domain.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			ids []string
			err error
		)
		ctx, id := c.Request.Context(), c.Param("id")
		switch kind {
		case domain.KindNode:
			ids, err = h.cat.NodeVersions.TransitiveClosure(ctx, id)
		case domain.KindEdge:
			ids, err = h.cat.EdgeVersions.TransitiveClosure(ctx, id)
		case domain.KindGraph:
			ids, err = h.cat.GraphVersions.TransitiveClosure(ctx, id)
		case domain.KindStructure:
			ids, err = h.cat.StructureVersions.TransitiveClosure(ctx, id)
		case domain.KindLineageEdge:
			ids, err = h.cat.LineageEdgeVersions.TransitiveClosure(ctx, id)
		default:
			err = domain.Errorf(domain.CodeInvalidArgument, "handlers.Closure", "unknown kind %q", kind)
		}
		respond(c, http.StatusOK, gin.H{"ids": ids}, err)
	}
}
