package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/ground-catalog/internal/catalog"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/http/response"
)

// ItemHandler serves the item resources of one kind.
type ItemHandler struct {
	items *catalog.ItemFactory
}

func NewItemHandler(cat *catalog.Catalog, kind domain.Kind) (*ItemHandler, error) {
	items, err := cat.Items(kind)
	if err != nil {
		return nil, err
	}
	return &ItemHandler{items: items}, nil
}

func (h *ItemHandler) Kind() domain.Kind { return h.items.Kind() }

// POST /api/{kind}/:name
func (h *ItemHandler) Create(c *gin.Context) {
	item, err := h.items.Create(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.RespondCatalogError(c, err)
		return
	}
	response.RespondCreated(c, item)
}

// GET /api/{kind}/:name
func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.items.Retrieve(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.RespondCatalogError(c, err)
		return
	}
	response.RespondOK(c, item)
}

// GET /api/{kind}/:name/leaves
func (h *ItemHandler) Leaves(c *gin.Context) {
	leaves, err := h.items.Leaves(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.RespondCatalogError(c, err)
		return
	}
	if leaves == nil {
		leaves = []string{}
	}
	response.RespondOK(c, gin.H{"leaves": leaves})
}
