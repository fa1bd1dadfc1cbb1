package services

import (
	"context"
	"encoding/json"

	"github.com/stylebook/backend/domain"
	"github.com/stylebook/backend/internal/infrastructure/outbox"
	"github.com/stylebook/backend/usecase"
)

// OutboundBridge adapts the outbound processor to the usecase ports.
type OutboundBridge struct {
	processor *OutboundProcessor
}

func NewOutboundBridge(processor *OutboundProcessor) *OutboundBridge {
	return &OutboundBridge{processor: processor}
}

func (b *OutboundBridge) Notify(ctx context.Context, userID, templateKey string, params map[string]string) error {
	if b.processor == nil || userID == "" || templateKey == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(outbox.NotificationData{
		UserID:      userID,
		TemplateKey: templateKey,
		Params:      params,
	})
	if err != nil {
		return err
	}
	message := outbox.Message{
		BookingID: params["booking_id"],
		Kind:      outbox.KindNotification,
		Data:      payload,
	}
	return b.processor.DispatchOrBuffer(ctx, message)
}

func (b *OutboundBridge) RecordPayout(ctx context.Context, bookingID string, amount float64) error {
	if b.processor == nil || bookingID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(outbox.PayoutData{
		BookingID: bookingID,
		Amount:    amount,
	})
	if err != nil {
		return err
	}
	message := outbox.Message{
		BookingID: bookingID,
		Kind:      outbox.KindPayout,
		Data:      payload,
	}
	return b.processor.DispatchOrBuffer(ctx, message)
}

var (
	_ usecase.Notifier     = (*OutboundBridge)(nil)
	_ usecase.PayoutLedger = (*OutboundBridge)(nil)
)
