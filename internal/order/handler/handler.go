package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tuanvm/fashionstore-backend/internal/api"
	"github.com/tuanvm/fashionstore-backend/internal/auth"
	"github.com/tuanvm/fashionstore-backend/internal/listing"
	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/internal/order"
	"github.com/tuanvm/fashionstore-backend/internal/order/dto"
	"github.com/tuanvm/fashionstore-backend/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{uc: uc, logger: log}
}

func (h *OrderHandler) MapRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(api.RequireUser)
		r.Post("/checkout", h.checkout)
		r.Get("/orders", h.listMine)
		r.Get("/orders/{orderID}", h.getMine)
		r.Post("/orders/{orderID}/pay", h.pay)
		r.Post("/orders/{orderID}/cancel", h.cancel)
	})
}

func (h *OrderHandler) MapAdminRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(api.RequireAdmin)
		r.Get("/", h.adminList)
		r.Get("/{orderID}", h.adminGet)
		r.Post("/{orderID}/mark-paid", h.markPaid)
		r.Post("/{orderID}/cancel", h.adminCancel)
		r.Post("/{orderID}/fulfill", h.fulfill)
		r.Post("/{orderID}/refund", h.refund)
		r.Post("/{orderID}/shipment", h.createShipment)
		r.Patch("/{orderID}/shipment", h.updateShipment)
	})
}

func (h *OrderHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var in dto.CheckoutInput
	if err := api.DecodeJSON(r, &in); err != nil {
		api.Error(w, h.logger, err)
		return
	}
	o, err := h.uc.Checkout(r.Context(), auth.UserID(r.Context()), &in)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusCreated, o)
}

func orderFilters(r *http.Request) *dto.OrderFilters {
	return &dto.OrderFilters{
		Status:      api.QueryStrings(r, "status"),
		CreatedFrom: api.QueryTimePtr(r, "created_from"),
		CreatedTo:   api.QueryTimePtr(r, "created_to"),
		MinTotal:    api.QueryInt64Ptr(r, "min_total"),
		MaxTotal:    api.QueryInt64Ptr(r, "max_total"),
		Sort:        api.QueryStrings(r, "sort"),
		Limit:       listing.ClampLimit(api.QueryInt(r, "limit", defaultPageSize), defaultPageSize, maxPageSize),
		Offset:      api.QueryInt(r, "offset", 0),
	}
}

func (h *OrderHandler) listMine(w http.ResponseWriter, r *http.Request) {
	f := orderFilters(r)
	items, total, err := h.uc.ListForUser(r.Context(), auth.UserID(r.Context()), f)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, listing.NewPage(items, total, f.Limit, f.Offset))
}

func (h *OrderHandler) getMine(w http.ResponseWriter, r *http.Request) {
	orderID, err := api.URLParamInt64(r, "orderID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	o, err := h.uc.GetForUser(r.Context(), auth.UserID(r.Context()), orderID)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, o)
}

type payRequest struct {
	Method model.PaymentMethod `json:"method"`
}

func (h *OrderHandler) pay(w http.ResponseWriter, r *http.Request) {
	orderID, err := api.URLParamInt64(r, "orderID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	var req payRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, h.logger, err)
		return
	}
	o, err := h.uc.Pay(r.Context(), auth.UserID(r.Context()), orderID, req.Method)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, o)
}

func (h *OrderHandler) cancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := api.URLParamInt64(r, "orderID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	o, err := h.uc.Cancel(r.Context(), auth.UserID(r.Context()), orderID)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, o)
}

// ---- Admin ----

func (h *OrderHandler) adminList(w http.ResponseWriter, r *http.Request) {
	f := orderFilters(r)
	f.UserID = api.QueryInt64Ptr(r, "user_id")
	items, total, err := h.uc.List(r.Context(), f)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, listing.NewPage(items, total, f.Limit, f.Offset))
}

func (h *OrderHandler) adminGet(w http.ResponseWriter, r *http.Request) {
	orderID, err := api.URLParamInt64(r, "orderID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	o, err := h.uc.Get(r.Context(), orderID)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, o)
}

func (h *OrderHandler) markPaid(w http.ResponseWriter, r *http.Request) {
	orderID, err := api.URLParamInt64(r, "orderID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	var req payRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, h.logger, err)
		return
	}
	o, err := h.uc.MarkPaid(r.Context(), orderID, req.Method)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, o)
}

func (h *OrderHandler) adminCancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := api.URLParamInt64(r, "orderID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	o, err := h.uc.AdminCancel(r.Context(), orderID)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, o)
}

func (h *OrderHandler) fulfill(w http.ResponseWriter, r *http.Request) {
	orderID, err := api.URLParamInt64(r, "orderID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	o, err := h.uc.MarkFulfilled(r.Context(), orderID)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, o)
}

type refundRequest struct {
	Reason *string `json:"reason,omitempty"`
}

func (h *OrderHandler) refund(w http.ResponseWriter, r *http.Request) {
	orderID, err := api.URLParamInt64(r, "orderID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	var req refundRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, h.logger, err)
		return
	}
	o, err := h.uc.RefundOrder(r.Context(), orderID, req.Reason)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, o)
}

func (h *OrderHandler) createShipment(w http.ResponseWriter, r *http.Request) {
	orderID, err := api.URLParamInt64(r, "orderID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	var in dto.CreateShipmentInput
	if err := api.DecodeJSON(r, &in); err != nil {
		api.Error(w, h.logger, err)
		return
	}
	s, err := h.uc.CreateShipment(r.Context(), orderID, &in)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusCreated, s)
}

type shipmentPatchRequest struct {
	Status         *model.ShipmentStatus `json:"status,omitempty"`
	Carrier        *string               `json:"carrier,omitempty"`
	TrackingNumber *string               `json:"tracking_number,omitempty"`
	ShippedAt      *string               `json:"shipped_at,omitempty"`
	DeliveredAt    *string               `json:"delivered_at,omitempty"`
}

func (h *OrderHandler) updateShipment(w http.ResponseWriter, r *http.Request) {
	orderID, err := api.URLParamInt64(r, "orderID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	var req shipmentPatchRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, h.logger, err)
		return
	}
	patch := &model.ShipmentPatch{
		Status:         req.Status,
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
	}
	if patch.ShippedAt, err = api.ParseTimePtr(req.ShippedAt, "shipped_at"); err != nil {
		api.Error(w, h.logger, err)
		return
	}
	if patch.DeliveredAt, err = api.ParseTimePtr(req.DeliveredAt, "delivered_at"); err != nil {
		api.Error(w, h.logger, err)
		return
	}
	s, err := h.uc.UpdateShipment(r.Context(), orderID, patch)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, s)
}
