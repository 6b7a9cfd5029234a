package domain

import "time"

// PaymentStatus is the settlement state of a payment order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// Payment is one credit-purchase order. A successful settlement adds
// CreditsAdded predictions to the owning user, exactly once.
type Payment struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"user_id"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	Status        PaymentStatus `json:"status"`
	Method        string        `json:"payment_method"`
	OutTradeNo    string        `json:"out_trade_no"`
	TransactionID string        `json:"transaction_id,omitempty"`
	CreditsAdded  int           `json:"prediction_count_added"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
