// Package submission turns a quote cart into an order or quote request and
// hands it to the downstream ordering system.
package submission

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind selects whether the cart becomes an order or a quote request.
type Kind string

const (
	KindOrder Kind = "order"
	KindQuote Kind = "quote"
)

// ParseKind accepts "order" and "quote" in any case.
func ParseKind(v string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(v))) {
	case KindOrder:
		return KindOrder, true
	case KindQuote:
		return KindQuote, true
	default:
		return "", false
	}
}

// Contact is the buyer information collected with a submission.
type Contact struct {
	Name         string `json:"name" validate:"required,max=200"`
	Email        string `json:"email" validate:"required,email,max=320"`
	Phone        string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Company      string `json:"company,omitempty" validate:"omitempty,max=200"`
	Instructions string `json:"instructions,omitempty" validate:"omitempty,max=4000"`
}

// Item is one cart line enriched with catalog pricing.
type Item struct {
	ProductSlug  string           `json:"product_slug"`
	ProductName  string           `json:"product_name"`
	OptionLabel  string           `json:"option_label"`
	SKU          string           `json:"sku,omitempty"`
	Quantity     int              `json:"quantity"`
	Available    bool             `json:"available"`
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty"`
	MarketPrice  *decimal.Decimal `json:"market_price,omitempty"`
}

// Payload is what a Submitter delivers downstream.
type Payload struct {
	SubmissionID string    `json:"submission_id"`
	Kind         Kind      `json:"kind"`
	Contact      Contact   `json:"contact"`
	Items        []Item    `json:"items"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// Result is the downstream acknowledgement.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	PDFURL string `json:"pdf_url,omitempty"`
}

// Submitter delivers a payload to the ordering system.
type Submitter interface {
	Submit(ctx context.Context, payload Payload) (Result, error)
}
