package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tuanvm/fashionstore-backend/internal/api"
	"github.com/tuanvm/fashionstore-backend/internal/inventory"
	"github.com/tuanvm/fashionstore-backend/internal/inventory/dto"
	"github.com/tuanvm/fashionstore-backend/internal/listing"
	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/pkg/logger"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{uc: uc, logger: log}
}

func (h *InventoryHandler) MapAdminRoutes(r chi.Router) {
	r.Route("/inventory", func(r chi.Router) {
		r.Use(api.RequireAdmin)
		r.Post("/adjust", h.adjust)
		r.Get("/movements", h.listMovements)
	})
}

type adjustRequest struct {
	VariantID int64   `json:"variant_id"`
	QtyDelta  int     `json:"qty_delta"`
	Note      *string `json:"note,omitempty"`
}

func (h *InventoryHandler) adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, h.logger, err)
		return
	}
	mv, err := h.uc.ManualAdjust(r.Context(), &dto.ManualAdjustInput{
		VariantID: req.VariantID,
		QtyDelta:  req.QtyDelta,
		Note:      req.Note,
	})
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusCreated, mv)
}

func (h *InventoryHandler) listMovements(w http.ResponseWriter, r *http.Request) {
	f := &dto.MovementFilters{
		VariantID: api.QueryInt64Ptr(r, "variant_id"),
		OrderID:   api.QueryInt64Ptr(r, "order_id"),
		Reason:    model.MovementReason(r.URL.Query().Get("reason")),
		Sort:      api.QueryStrings(r, "sort"),
		Limit:     listing.ClampLimit(api.QueryInt(r, "limit", defaultPageSize), defaultPageSize, maxPageSize),
		Offset:    api.QueryInt(r, "offset", 0),
	}
	items, total, err := h.uc.ListMovements(r.Context(), f)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, listing.NewPage(items, total, f.Limit, f.Offset))
}
