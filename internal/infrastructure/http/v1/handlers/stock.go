package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// StockService is the stock engine used by StockHandler.
type StockService interface {
	StockReport(ctx context.Context) ([]stock.Position, error)
	Preview(ctx context.Context, req stock.PreviewRequest) ([]stock.Position, error)
	CreateSnapshot(ctx context.Context, req stock.CreateSnapshotRequest) (int64, error)
}

// StockHandler handles the stock report and snapshot endpoints.
type StockHandler struct {
	*BaseHandler
	service StockService
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service StockService) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Report handles GET /api/stock-report
func (h *StockHandler) Report(c *gin.Context) {
	positions, err := h.service.StockReport(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.StockRowsResponse{Success: true, Rows: dto.FromPositions(positions)})
}

// Preview handles POST /api/snapshot-preview
func (h *StockHandler) Preview(c *gin.Context) {
	var req dto.SnapshotPreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}

	positions, err := h.service.Preview(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.StockRowsResponse{Success: true, Rows: dto.FromPositions(positions)})
}

// CreateSnapshot handles POST /api/snapshot-create
func (h *StockHandler) CreateSnapshot(c *gin.Context) {
	var req dto.SnapshotCreateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inserted, err := h.service.CreateSnapshot(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.SnapshotCreateResponse{Success: true, Inserted: inserted})
}

// RegisterRoutes mounts the stock endpoints on rg.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stock-report", h.Report)
	rg.POST("/snapshot-preview", h.Preview)
	rg.POST("/snapshot-create", h.CreateSnapshot)
}
