package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/glowdesk/glowdesk-backend/api/responses"
	"github.com/glowdesk/glowdesk-backend/api/validators"
	"github.com/glowdesk/glowdesk-backend/internal/bookings"
	"github.com/glowdesk/glowdesk-backend/pkg/db/models"
	pkgerrors "github.com/glowdesk/glowdesk-backend/pkg/errors"
	"github.com/glowdesk/glowdesk-backend/pkg/logger"
)

// BookingList returns bookings, upcoming first.
func BookingList(repo bookings.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := bookings.ListFilter{
			CustomerID: r.URL.Query().Get("customerId"),
			Status:     r.URL.Query().Get("status"),
		}

		records, err := repo.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings"))
			return
		}

		out := make([]bookingResponse, 0, len(records))
		for _, record := range records {
			out = append(out, newBookingResponse(record))
		}
		responses.WriteSuccess(w, out)
	}
}

// BookingDetail returns one booking.
func BookingDetail(repo bookings.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "bookingId")
		record, err := repo.FindByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking"))
			return
		}
		if record == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found"))
			return
		}
		responses.WriteSuccess(w, newBookingResponse(*record))
	}
}

// BookingPaymentStatus sets or clears a booking's payment status directly,
// for corrections outside the checkout flow.
func BookingPaymentStatus(repo bookings.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "bookingId")

		var payload bookingPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithBookingID(ctx, id)
		}

		record, err := repo.FindByID(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking"))
			return
		}
		if record == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found"))
			return
		}

		if err := repo.UpdatePaymentStatus(ctx, id, payload.PaymentStatus); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status"))
			return
		}

		record.PaymentStatus = payload.PaymentStatus
		responses.WriteSuccess(w, newBookingResponse(*record))
	}
}

type bookingPaymentRequest struct {
	PaymentStatus *string `json:"paymentStatus" validate:"omitempty,oneof=paid unpaid"`
}

type bookingResponse struct {
	ID            string  `json:"id"`
	CustomerID    *string `json:"customerId,omitempty"`
	CustomerName  *string `json:"customerName,omitempty"`
	StaffName     *string `json:"staffName,omitempty"`
	ServiceName   *string `json:"serviceName,omitempty"`
	StartsAt      *string `json:"startsAt,omitempty"`
	Status        string  `json:"status"`
	PaymentStatus *string `json:"paymentStatus,omitempty"`
}

func newBookingResponse(record models.Booking) bookingResponse {
	var startsAt *string
	if record.StartsAt != nil {
		formatted := record.StartsAt.UTC().Format(time.RFC3339)
		startsAt = &formatted
	}
	return bookingResponse{
		ID:            record.ID,
		CustomerID:    record.CustomerID,
		CustomerName:  record.CustomerName,
		StaffName:     record.StaffName,
		ServiceName:   record.ServiceName,
		StartsAt:      startsAt,
		Status:        record.Status,
		PaymentStatus: record.PaymentStatus,
	}
}
