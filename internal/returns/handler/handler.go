package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tuanvm/fashionstore-backend/internal/api"
	"github.com/tuanvm/fashionstore-backend/internal/auth"
	"github.com/tuanvm/fashionstore-backend/internal/listing"
	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/internal/returns"
	"github.com/tuanvm/fashionstore-backend/internal/returns/dto"
	"github.com/tuanvm/fashionstore-backend/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ReturnsHandler struct {
	uc     returns.UseCase
	logger logger.ZapLogger
}

func NewReturnsHandler(uc returns.UseCase, log logger.ZapLogger) *ReturnsHandler {
	return &ReturnsHandler{uc: uc, logger: log}
}

func (h *ReturnsHandler) MapRoutes(r chi.Router) {
	r.Route("/returns", func(r chi.Router) {
		r.Use(api.RequireUser)
		r.Post("/", h.create)
		r.Get("/", h.listMine)
		r.Get("/{returnID}", h.getMine)
		r.Post("/{returnID}/items", h.addItem)
		r.Delete("/{returnID}/items/{itemID}", h.removeItem)
	})
}

func (h *ReturnsHandler) MapAdminRoutes(r chi.Router) {
	r.Route("/returns", func(r chi.Router) {
		r.Use(api.RequireAdmin)
		r.Get("/", h.adminList)
		r.Get("/{returnID}", h.adminGet)
		r.Post("/{returnID}/approve", h.approve)
		r.Post("/{returnID}/reject", h.reject)
		r.Post("/{returnID}/receive", h.receive)
		r.Post("/{returnID}/refund", h.refund)
		r.Post("/{returnID}/close", h.close)
	})
}

func (h *ReturnsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in dto.CreateReturnInput
	if err := api.DecodeJSON(r, &in); err != nil {
		api.Error(w, h.logger, err)
		return
	}
	ret, err := h.uc.Create(r.Context(), auth.UserID(r.Context()), &in)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusCreated, ret)
}

func returnFilters(r *http.Request) *dto.ReturnFilters {
	return &dto.ReturnFilters{
		OrderID: api.QueryInt64Ptr(r, "order_id"),
		Status:  api.QueryStrings(r, "status"),
		Sort:    api.QueryStrings(r, "sort"),
		Limit:   listing.ClampLimit(api.QueryInt(r, "limit", defaultPageSize), defaultPageSize, maxPageSize),
		Offset:  api.QueryInt(r, "offset", 0),
	}
}

func (h *ReturnsHandler) listMine(w http.ResponseWriter, r *http.Request) {
	f := returnFilters(r)
	items, total, err := h.uc.ListForUser(r.Context(), auth.UserID(r.Context()), f)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, listing.NewPage(items, total, f.Limit, f.Offset))
}

func (h *ReturnsHandler) getMine(w http.ResponseWriter, r *http.Request) {
	returnID, err := api.URLParamInt64(r, "returnID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	ret, err := h.uc.GetForUser(r.Context(), auth.UserID(r.Context()), returnID)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, ret)
}

func (h *ReturnsHandler) addItem(w http.ResponseWriter, r *http.Request) {
	returnID, err := api.URLParamInt64(r, "returnID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	var line dto.ReturnLineInput
	if err := api.DecodeJSON(r, &line); err != nil {
		api.Error(w, h.logger, err)
		return
	}
	ret, err := h.uc.AddItem(r.Context(), auth.UserID(r.Context()), returnID, &line)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, ret)
}

func (h *ReturnsHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	returnID, err := api.URLParamInt64(r, "returnID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	itemID, err := api.URLParamInt64(r, "itemID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	ret, err := h.uc.RemoveItem(r.Context(), auth.UserID(r.Context()), returnID, itemID)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, ret)
}

// ---- Admin ----

func (h *ReturnsHandler) adminList(w http.ResponseWriter, r *http.Request) {
	f := returnFilters(r)
	f.UserID = api.QueryInt64Ptr(r, "user_id")
	items, total, err := h.uc.List(r.Context(), f)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, listing.NewPage(items, total, f.Limit, f.Offset))
}

func (h *ReturnsHandler) adminGet(w http.ResponseWriter, r *http.Request) {
	returnID, err := api.URLParamInt64(r, "returnID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	ret, err := h.uc.Get(r.Context(), returnID)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, ret)
}

type decideRequest struct {
	Reason *string `json:"reason"`
}

type receiveRequest struct {
	Note *string `json:"note"`
}

type refundRequest struct {
	Method *model.PaymentMethod `json:"method"`
}

func (h *ReturnsHandler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	returnID, err := api.URLParamInt64(r, "returnID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	var in decideRequest
	if r.ContentLength != 0 {
		if err := api.DecodeJSON(r, &in); err != nil {
			api.Error(w, h.logger, err)
			return
		}
	}
	ret, err := h.uc.Decide(r.Context(), returnID, approve, in.Reason)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, ret)
}

func (h *ReturnsHandler) approve(w http.ResponseWriter, r *http.Request) { h.decide(w, r, true) }
func (h *ReturnsHandler) reject(w http.ResponseWriter, r *http.Request) { h.decide(w, r, false) }

func (h *ReturnsHandler) receive(w http.ResponseWriter, r *http.Request) {
	returnID, err := api.URLParamInt64(r, "returnID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	var in receiveRequest
	if r.ContentLength != 0 {
		if err := api.DecodeJSON(r, &in); err != nil {
			api.Error(w, h.logger, err)
			return
		}
	}
	res, err := h.uc.MarkReceived(r.Context(), returnID, in.Note)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, res)
}

func (h *ReturnsHandler) refund(w http.ResponseWriter, r *http.Request) {
	returnID, err := api.URLParamInt64(r, "returnID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	var in refundRequest
	if r.ContentLength != 0 {
		if err := api.DecodeJSON(r, &in); err != nil {
			api.Error(w, h.logger, err)
			return
		}
	}
	ret, err := h.uc.Refund(r.Context(), returnID, in.Method)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, ret)
}

func (h *ReturnsHandler) close(w http.ResponseWriter, r *http.Request) {
	returnID, err := api.URLParamInt64(r, "returnID")
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	ret, err := h.uc.Close(r.Context(), returnID)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}
	api.JSON(w, http.StatusOK, ret)
}
