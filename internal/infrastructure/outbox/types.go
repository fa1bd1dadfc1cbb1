package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	KindNotification = "notification"
	KindPayout       = "payout"
)

// Message is an outbound fact awaiting delivery: a notification request or a
// payout ledger entry that could not be published immediately.
type Message struct {
	ID        string          `json:"id"`
	BookingID string          `json:"booking_id"`
	Kind      string          `json:"kind"`
	Data      json.RawMessage `json:"data"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

// NotificationData is the payload of a KindNotification message.
type NotificationData struct {
	UserID      string            `json:"user_id"`
	TemplateKey string            `json:"template_key"`
	Params      map[string]string `json:"params,omitempty"`
}

// PayoutData is the payload of a KindPayout message.
type PayoutData struct {
	BookingID string  `json:"booking_id"`
	Amount    float64 `json:"amount"`
}

func (m *Message) normalize() {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
}
