package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/kasamart/sales-api/internal/domain/order"
)

type lineItemRequest struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Color     string          `json:"color"`
	Image     string          `json:"image"`
}

type createOrderRequest struct {
	Details           []lineItemRequest        `json:"details"`
	Delivery          decimal.Decimal          `json:"delivery"`
	CouponCode        string                   `json:"coupon_code"`
	BundleDiscount    decimal.Decimal          `json:"bundle_discount"`
	RenewalDiscount   decimal.Decimal          `json:"renewal_discount"`
	PromotionDiscount decimal.Decimal          `json:"promotion_discount"`
	AppliedPromotions []order.AppliedPromotion `json:"applied_promotions"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	details := make([]order.LineItem, len(req.Details))
	for i, li := range req.Details {
		details[i] = order.LineItem{
			Name:      li.Name,
			UnitPrice: li.UnitPrice,
			Quantity:  li.Quantity,
			Color:     li.Color,
			Image:     li.Image,
		}
	}

	view, err := h.orders.CreateOrder(r.Context(), order.CreateOrderRequest{
		Details:           details,
		Delivery:          req.Delivery,
		CouponCode:        req.CouponCode,
		BundleDiscount:    req.BundleDiscount,
		RenewalDiscount:   req.RenewalDiscount,
		PromotionDiscount: req.PromotionDiscount,
		AppliedPromotions: req.AppliedPromotions,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	st, err := h.catalog.GetByID(r.Context(), view.Order.StatusID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeOrderView(e, view, st)
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	view, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	st, err := h.catalog.GetByID(r.Context(), view.Order.StatusID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeOrderView(e, view, st)
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	views, err := h.orders.ListOrders(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.Arr(func(e *jx.Encoder) {
		for _, v := range views {
			encodeOrderRow(e, v)
		}
	})
	writeJSON(w, http.StatusOK, e)
}
