package httpapi

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/kasamart/sales-api/internal/domain/coupon"
	"github.com/kasamart/sales-api/internal/domain/order"
	"github.com/kasamart/sales-api/internal/domain/status"
)

// writeError writes the JSON error envelope {"code": ..., "message": ...}.
func writeError(w http.ResponseWriter, code int, message string) {
	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

// writeDomainError maps domain errors to HTTP status codes. Validation
// failures are client errors; anything unrecognized is logged and reported
// as 500 without leaking internals.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invOrder      *order.InvalidOrderDataError
		invItem       *order.InvalidLineItemError
		invTransition *status.InvalidTransitionError
	)

	switch {
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrEmptyItems):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &invOrder), errors.As(err, &invItem):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, coupon.ErrInvalidCoupon),
		errors.Is(err, coupon.ErrCouponExpired),
		errors.Is(err, coupon.ErrCouponUsageLimitReached):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, status.ErrUnknownStatus):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &invTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, status.ErrVersionConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
