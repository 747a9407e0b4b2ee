package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction category codes. The classifier only ever emits one of these.
const (
	CategoryTransfer    = "TRANSFER"
	CategoryPayment     = "PAYMENT"
	CategoryDeposit     = "DEPOSIT"
	CategoryWithdrawal  = "WITHDRAWAL"
	CategoryAirtime     = "AIRTIME"
	CategoryBillPayment = "BILL_PAYMENT"
)

// Transaction statuses derived from keyword presence in the SMS body.
const (
	StatusCompleted = "COMPLETED"
	StatusPending   = "PENDING"
	StatusFailed    = "FAILED"
)

// CategoryCodes lists every valid category code.
var CategoryCodes = []string{
	CategoryTransfer, CategoryPayment, CategoryDeposit,
	CategoryWithdrawal, CategoryAirtime, CategoryBillPayment,
}

// ClassifiedTransaction is a NormalizedRecord plus the fields derived from
// the message body. ExternalRef is mandatory; records without one are
// dropped before this type is built.
type ClassifiedTransaction struct {
	NormalizedRecord

	ExternalRef       string          `json:"external_ref"`
	Amount            decimal.Decimal `json:"amount"`
	CounterParty      string          `json:"counter_party"`
	FeeAmount         decimal.Decimal `json:"fee_amount"`
	Balance           decimal.Decimal `json:"balance"` // informational, not persisted
	CategoryCode      string          `json:"category_code"`
	TransactionStatus string          `json:"transaction_status"`
	Currency          string          `json:"currency"`
}

// Transaction is the durable row. ExternalRef is unique; loading a record
// whose external reference already exists is a no-op.
type Transaction struct {
	ID                int64           `json:"transaction_id"`
	ExternalRef       string          `json:"external_ref"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	TransactionStatus string          `json:"transaction_status"`
	SenderNotes       string          `json:"sender_notes"`
	RawData           string          `json:"raw_data"`
	TransactionDate   time.Time       `json:"transaction_date"`
	CounterParty      string          `json:"counter_party"`
	CreatedAt         time.Time       `json:"created_at"`
	CategoryID        int64           `json:"-"`
	UserID            int64           `json:"-"`

	Category *Category  `json:"category,omitempty"`
	User     *UserBrief `json:"user,omitempty"`
	Fees     []FeeView  `json:"fees"`
}

// Fee is the zero-or-one fee row attached to a transaction.
type Fee struct {
	ID            int64           `json:"fee_id"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
	TransactionID int64           `json:"transaction_id"`
	FeeTypeID     int64           `json:"fee_type_id"`
}

// FeeView is the fee rendering embedded in transaction responses.
type FeeView struct {
	FeeType string          `json:"fee_type"`
	Amount  decimal.Decimal `json:"amount"`
}
