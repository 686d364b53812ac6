package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tuanvm/fashionstore-backend/internal/api"
	"github.com/tuanvm/fashionstore-backend/internal/listing"
	"github.com/tuanvm/fashionstore-backend/internal/payment"
	"github.com/tuanvm/fashionstore-backend/internal/payment/dto"
	"github.com/tuanvm/fashionstore-backend/pkg/logger"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type PaymentHandler struct {
	uc     payment.UseCase
	logger logger.ZapLogger
}

func NewPaymentHandler(uc payment.UseCase, log logger.ZapLogger) *PaymentHandler {
	return &PaymentHandler{uc: uc, logger: log}
}

func (h *PaymentHandler) MapAdminRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(api.RequireAdmin)
		r.Get("/payments", h.list)
		r.Get("/orders/{orderID}/payments", h.listForOrder)
	})
}

func (h *PaymentHandler) list(w http.ResponseWriter, r *http.Request) {
	f := &dto.PaymentFilters{
		OrderID: api.QueryInt64Ptr(r, "order_id"),
		Status:  api.QueryStrings(r, "status"),
		Method:  api.QueryStrings(r, "method"),
		Sort:    api.QueryStrings(r, "sort"),
		Limit:   listing.ClampLimit(api.QueryInt(r, "limit", defaultPageSize), defaultPageSize, maxPageSize),
		Offset:  api.QueryInt(r, "offset", 0),
	}
	items, total, err := h.uc.ListPaged(r.Context(), f)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, listing.NewPage(items, total, f.Limit, f.Offset))
}

type orderPaymentsResponse struct {
	Items          interface{} `json:"items"`
	TotalPaidCents int64       `json:"total_paid_cents"`
}

func (h *PaymentHandler) listForOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := api.URLParamInt64(r, "orderID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	items, err := h.uc.ListForOrder(r.Context(), orderID)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	paid, err := h.uc.TotalPaidForOrder(r.Context(), orderID)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, orderPaymentsResponse{Items: items, TotalPaidCents: paid})
}
