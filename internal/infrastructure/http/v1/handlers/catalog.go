package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalog"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// CatalogHandler serves item and category endpoints.
type CatalogHandler struct {
	*BaseHandler
	catalog *catalog.Service
	ledger  *ledger.Service
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(catalogService *catalog.Service, ledgerService *ledger.Service) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler: NewBaseHandler(),
		catalog:     catalogService,
		ledger:      ledgerService,
	}
}

// ListCategories returns all categories.
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(categories))
}

// ListItems returns all items known now.
func (h *CatalogHandler) ListItems(c *gin.Context) {
	items, err := h.catalog.ListItems(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// SearchItems finds items by name fragment (?q=).
func (h *CatalogHandler) SearchItems(c *gin.Context) {
	items, err := h.catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// GetItem returns a single item.
func (h *CatalogHandler) GetItem(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid item id"))
		return
	}

	item, err := h.catalog.GetItem(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// GetItemLedger returns an item's movement history, newest first.
func (h *CatalogHandler) GetItemLedger(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid item id"))
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	offset := h.ParseIntQuery(c, "offset", 0)

	entries, err := h.ledger.History(c.Request.Context(), itemID, limit, offset)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(entries))
}
