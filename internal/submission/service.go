package submission

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/quotecart/internal/catalog"
	"github.com/angelmondragon/quotecart/internal/quotecart"
	pkgerrors "github.com/angelmondragon/quotecart/pkg/errors"
	"github.com/angelmondragon/quotecart/pkg/logger"
	"github.com/angelmondragon/quotecart/pkg/metrics"
	"github.com/angelmondragon/quotecart/pkg/phone"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Cart is the part of a quote cart store a submission reads and clears.
type Cart interface {
	Snapshot() []quotecart.Line
	RemoveSubmitted(ctx context.Context, submitted []quotecart.Line) int
}

// PriceSource resolves option pricing for submitted lines.
type PriceSource interface {
	OptionPrices(ctx context.Context, slugs []string) (map[string]catalog.OptionPrice, error)
}

// Service submits carts.
type Service interface {
	Submit(ctx context.Context, cart Cart, kind Kind, contact Contact) (Result, error)
}

// ServiceParams groups dependencies for the submission service.
type ServiceParams struct {
	Submitter Submitter
	Prices    PriceSource
	Logger    *logger.Logger
	Metrics   *metrics.CartMetrics
	Now       func() time.Time
}

type service struct {
	submitter Submitter
	prices    PriceSource
	logg      *logger.Logger
	metrics   *metrics.CartMetrics
	validate  *validator.Validate
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Submitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submitter is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		submitter: params.Submitter,
		prices:    params.Prices,
		logg:      params.Logger,
		metrics:   params.Metrics,
		validate:  validator.New(),
		now:       now,
	}, nil
}

// Submit validates the contact, snapshots the cart and hands the payload to
// the submitter. Only when the submitter succeeds are the submitted lines
// removed; lines changed while the call was in flight stay in the cart.
func (s *service) Submit(ctx context.Context, cart Cart, kind Kind, contact Contact) (Result, error) {
	if cart == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is required")
	}
	if kind != KindOrder && kind != KindQuote {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "kind must be order or quote")
	}
	contact = normalizeContact(contact)
	if err := s.validate.Struct(contact); err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid contact details")
	}

	lines := cart.Snapshot()
	if len(lines) == 0 {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	payload := Payload{
		SubmissionID: uuid.NewString(),
		Kind:         kind,
		Contact:      contact,
		Items:        mapItems(lines, s.lookupPrices(ctx, lines)),
		SubmittedAt:  s.now().UTC(),
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"submission_id": payload.SubmissionID,
		"kind":          string(kind),
		"line_count":    len(lines),
	})

	started := s.now()
	result, err := s.submitter.Submit(ctx, payload)
	if err != nil {
		s.metrics.ObserveSubmission(string(kind), "failure", s.now().Sub(started))
		s.logg.Error(ctx, "cart submission failed", err)
		if pkgerrors.As(err) != nil {
			return Result{}, err
		}
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit cart")
	}
	s.metrics.ObserveSubmission(string(kind), "success", s.now().Sub(started))

	if removed := cart.RemoveSubmitted(ctx, lines); removed != len(lines) {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"removed": removed,
			"kept":    len(lines) - removed,
		}), "cart changed during submission, kept modified lines")
	}
	if result.ID == "" {
		result.ID = payload.SubmissionID
	}
	s.logg.Info(s.logg.WithField(ctx, "result_id", result.ID), "cart submitted")
	return result, nil
}

// lookupPrices is best effort: a pricing outage still lets the request through
// without prices.
func (s *service) lookupPrices(ctx context.Context, lines []quotecart.Line) map[string]catalog.OptionPrice {
	if s.prices == nil {
		return nil
	}
	slugs := make([]string, 0, len(lines))
	for _, line := range lines {
		slugs = append(slugs, line.Slug)
	}
	prices, err := s.prices.OptionPrices(ctx, slugs)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "option prices unavailable, submitting without prices")
		return nil
	}
	return prices
}

func mapItems(lines []quotecart.Line, prices map[string]catalog.OptionPrice) []Item {
	items := make([]Item, 0, len(lines))
	for _, line := range lines {
		item := Item{
			ProductSlug: line.Slug,
			ProductName: line.Name,
			OptionLabel: line.Option,
			Quantity:    line.Quantity,
			Available:   line.Available,
		}
		if price, ok := prices[catalog.PriceKey(line.Slug, line.Option)]; ok {
			item.SKU = price.SKU
			if price.SellingPrice.Valid {
				v := price.SellingPrice.Decimal
				item.SellingPrice = &v
			}
			if price.MarketPrice.Valid {
				v := price.MarketPrice.Decimal
				item.MarketPrice = &v
			}
		}
		items = append(items, item)
	}
	return items
}

func normalizeContact(c Contact) Contact {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Company = strings.TrimSpace(c.Company)
	c.Instructions = strings.TrimSpace(c.Instructions)
	c.Phone = phone.Format(c.Phone)
	return c
}
