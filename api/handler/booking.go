package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/stylebook/backend/api/transport"
	"github.com/stylebook/backend/domain"
	"github.com/stylebook/backend/pkg/httpcontext"
	bookingUC "github.com/stylebook/backend/usecase/booking"
)

type BookingHandler struct {
	baseHandler
	uc *bookingUC.UseCase
}

func NewBookingHandler(uc *bookingUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Create booking request
// @Tags bookings
// @Router /api/v1/bookings [post]
func (h *BookingHandler) Create(ctx *fasthttp.RequestCtx) {
	clientID := h.userID(ctx)
	if clientID == "" {
		return
	}

	var req transport.CreateBookingRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	requestedStart, err := time.Parse(time.RFC3339, req.RequestedStart)
	if err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "requested_start must be RFC3339", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, bookingUC.CreateInput{
		ClientID:       clientID,
		StylistID:      req.StylistID,
		ServiceID:      req.ServiceID,
		RequestedStart: requestedStart,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get booking
// @Tags bookings
// @Router /api/v1/bookings/{id} [get]
func (h *BookingHandler) Get(ctx *fasthttp.RequestCtx) {
	id := h.bookingID(ctx)
	if id == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	booking, err := h.uc.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, booking)
}

// @Summary Accept booking request
// @Tags bookings
// @Router /api/v1/bookings/{id}/accept [post]
func (h *BookingHandler) Accept(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, func(stylistID, id string) (*domain.Booking, error) {
		stdCtx, cancel := h.requestContext(ctx)
		defer cancel()
		return h.uc.Accept(stdCtx, id, stylistID)
	})
}

// @Summary Confirm booking payment
// @Tags bookings
// @Router /api/v1/bookings/{id}/confirm-payment [post]
func (h *BookingHandler) ConfirmPayment(ctx *fasthttp.RequestCtx) {
	clientID := h.userID(ctx)
	if clientID == "" {
		return
	}
	id := h.bookingID(ctx)
	if id == "" {
		return
	}

	var req transport.ConfirmPaymentRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	booking, err := h.uc.ConfirmPayment(stdCtx, id, clientID, bookingUC.PaymentResult{
		Success:   req.Success,
		Reference: req.Reference,
		Amount:    req.Amount,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, booking)
}

// @Summary Start booked service
// @Tags bookings
// @Router /api/v1/bookings/{id}/start [post]
func (h *BookingHandler) Start(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, func(stylistID, id string) (*domain.Booking, error) {
		stdCtx, cancel := h.requestContext(ctx)
		defer cancel()
		return h.uc.Start(stdCtx, id, stylistID)
	})
}

// @Summary Complete booked service
// @Tags bookings
// @Router /api/v1/bookings/{id}/complete [post]
func (h *BookingHandler) Complete(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, func(stylistID, id string) (*domain.Booking, error) {
		stdCtx, cancel := h.requestContext(ctx)
		defer cancel()
		return h.uc.Complete(stdCtx, id, stylistID)
	})
}

// @Summary Cancel booking
// @Tags bookings
// @Router /api/v1/bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(ctx *fasthttp.RequestCtx) {
	actorID := h.userID(ctx)
	if actorID == "" {
		return
	}
	id := h.bookingID(ctx)
	if id == "" {
		return
	}

	var req transport.CancelBookingRequest
	_ = json.Unmarshal(ctx.PostBody(), &req)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	booking, err := h.uc.Cancel(stdCtx, id, actorID, req.Reason)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, booking)
}

// @Summary Report client no-show
// @Tags bookings
// @Router /api/v1/bookings/{id}/no-show [post]
func (h *BookingHandler) NoShow(ctx *fasthttp.RequestCtx) {
	stylistID := h.userID(ctx)
	if stylistID == "" {
		return
	}
	id := h.bookingID(ctx)
	if id == "" {
		return
	}

	var req transport.NoShowRequest
	_ = json.Unmarshal(ctx.PostBody(), &req)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	booking, err := h.uc.NoShow(stdCtx, id, stylistID, req.Reason)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, booking)
}

func (h *BookingHandler) transition(ctx *fasthttp.RequestCtx, run func(actorID, bookingID string) (*domain.Booking, error)) {
	actorID := h.userID(ctx)
	if actorID == "" {
		return
	}
	id := h.bookingID(ctx)
	if id == "" {
		return
	}

	booking, err := run(actorID, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, booking)
}

func (h *BookingHandler) bookingID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing booking id", nil))
	}
	return id
}

func (h *BookingHandler) userID(ctx *fasthttp.RequestCtx) string {
	userID := string(ctx.Request.Header.Peek("X-User-ID"))
	if userID == "" {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing user id", nil))
	}
	return userID
}
