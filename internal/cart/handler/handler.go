package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tuanvm/fashionstore-backend/internal/api"
	"github.com/tuanvm/fashionstore-backend/internal/auth"
	"github.com/tuanvm/fashionstore-backend/internal/cart"
	"github.com/tuanvm/fashionstore-backend/pkg/logger"
)

type CartHandler struct {
	uc     cart.UseCase
	logger logger.ZapLogger
}

func NewCartHandler(uc cart.UseCase, log logger.ZapLogger) *CartHandler {
	return &CartHandler{uc: uc, logger: log}
}

func (h *CartHandler) MapRoutes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(api.RequireUser)
		r.Get("/", h.getCart)
		r.Post("/items", h.addItem)
		r.Patch("/items/{itemID}", h.updateItem)
		r.Delete("/items/{itemID}", h.removeItem)
	})
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.uc.GetCart(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, c)
}

type addItemRequest struct {
	VariantID int64 `json:"variant_id"`
	Qty       int   `json:"qty"`
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, h.logger, err)
		return
	}
	it, err := h.uc.AddItem(r.Context(), auth.UserID(r.Context()), req.VariantID, req.Qty)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusCreated, it)
}

type updateItemRequest struct {
	Qty int `json:"qty"`
}

func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := api.URLParamInt64(r, "itemID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	var req updateItemRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, h.logger, err)
		return
	}
	it, err := h.uc.UpdateItem(r.Context(), auth.UserID(r.Context()), itemID, req.Qty)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, it)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := api.URLParamInt64(r, "itemID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	if err := h.uc.RemoveItem(r.Context(), auth.UserID(r.Context()), itemID); err != nil {
		api.Error(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
