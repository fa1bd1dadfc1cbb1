package transport

// CreateBookingRequest opens a new booking request for a stylist service.
type CreateBookingRequest struct {
	StylistID      string `json:"stylist_id"`
	ServiceID      string `json:"service_id"`
	RequestedStart string `json:"requested_start"`
}

// ConfirmPaymentRequest reports an externally captured payment outcome.
type ConfirmPaymentRequest struct {
	Success   bool    `json:"success"`
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
}

// CancelBookingRequest optionally carries the cancellation reason.
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// NoShowRequest optionally carries details about the missed appointment.
type NoShowRequest struct {
	Reason string `json:"reason"`
}
