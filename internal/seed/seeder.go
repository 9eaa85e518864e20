// Package seed turns extracted invoice documents into vendor, customer,
// invoice, line item and payment rows.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoiceseed/internal/core"
	"invoiceseed/internal/extract"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Store is the part of core.InvoiceStore the seeder writes through.
type Store interface {
	UpsertVendor(ctx context.Context, input core.VendorInput) (*core.Vendor, error)
	UpsertCustomer(ctx context.Context, input core.CustomerInput) (*core.Customer, error)
	CreateInvoice(ctx context.Context, input core.InvoiceInput) (*core.Invoice, error)
}

// Failure is the diagnostic for one document that could not be imported.
type Failure struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// Summary is the outcome of one batch. Every document ends up in exactly one
// of Skipped, Succeeded or Failed; Processed is Succeeded + Failed.
type Summary struct {
	RunID          string        `json:"run_id"`
	Total          int           `json:"total"`
	Processed      int           `json:"processed"`
	Succeeded      int           `json:"succeeded"`
	Failed         int           `json:"failed"`
	Skipped        int           `json:"skipped"`
	Failures       []Failure     `json:"failures,omitempty"`
	SkippedIndexes []int         `json:"skipped_indexes,omitempty"`
	Duration       time.Duration `json:"duration"`
}

const defaultProgressEvery = 20

// Seeder imports a batch of documents one at a time, in input order.
type Seeder struct {
	store         Store
	rnd           Rand
	now           func() time.Time
	log           logrus.FieldLogger
	progressEvery int
}

// Option configures a Seeder.
type Option func(*Seeder)

// WithRand sets the source of synthesized names, ids and payment offsets.
func WithRand(rnd Rand) Option {
	return func(s *Seeder) { s.rnd = rnd }
}

// WithClock sets the clock used for invoices without a date.
func WithClock(now func() time.Time) Option {
	return func(s *Seeder) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Seeder) { s.log = log }
}

// WithProgressEvery logs a progress line every n records. n <= 0 disables it.
func WithProgressEvery(n int) Option {
	return func(s *Seeder) { s.progressEvery = n }
}

// NewSeeder constructs a Seeder writing to store.
func NewSeeder(store Store, opts ...Option) *Seeder {
	s := &Seeder{
		store:         store,
		rnd:           NewRand(0),
		now:           time.Now,
		log:           logrus.StandardLogger(),
		progressEvery: defaultProgressEvery,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run imports docs. A document's failure is recorded in the summary and the
// batch continues; Run only returns an error when ctx is done, together with
// the summary of the documents handled so far.
func (s *Seeder) Run(ctx context.Context, docs []extract.Document) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.NewString(), Total: len(docs)}
	log := s.log.WithField("run_id", summary.RunID)

	log.Infof("starting seeding for %d records", len(docs))

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			summary.Processed = summary.Succeeded + summary.Failed
			summary.Duration = time.Since(start)
			return summary, fmt.Errorf("seeding stopped at record %d: %w", i, err)
		}

		inv, err := s.seedOne(ctx, doc, i)
		switch {
		case errors.Is(err, ErrNoPayload):
			summary.Skipped++
			summary.SkippedIndexes = append(summary.SkippedIndexes, i)
			log.WithField("index", i).Warn("skipping record: missing llmData")
		case err != nil:
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{Index: i, Message: err.Error()})
			log.WithFields(logrus.Fields{
				"index":    i,
				"document": doc.Label(i),
			}).WithError(err).Error("error seeding record")
		default:
			summary.Succeeded++
			if s.progressEvery > 0 && i%s.progressEvery == 0 {
				log.WithFields(logrus.Fields{
					"index":      i,
					"invoice_id": inv.InvoiceID,
				}).Infof("seeded %d invoices so far", summary.Succeeded)
			}
		}
	}

	summary.Processed = summary.Succeeded + summary.Failed
	summary.Duration = time.Since(start)
	log.WithFields(logrus.Fields{
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
	}).Info("seeding complete")
	return summary, nil
}

// seedOne normalizes one document and writes it: vendor, customer, then the
// invoice with its children as a single transaction.
func (s *Seeder) seedOne(ctx context.Context, doc extract.Document, index int) (*core.Invoice, error) {
	draft, err := Normalize(doc, index, s.rnd, s.now())
	if err != nil {
		return nil, err
	}

	vendor, err := s.store.UpsertVendor(ctx, draft.Vendor)
	if err != nil {
		return nil, err
	}
	customer, err := s.store.UpsertCustomer(ctx, draft.Customer)
	if err != nil {
		return nil, err
	}

	input := draft.Invoice
	input.VendorRef = vendor.ID
	input.CustomerRef = customer.ID
	return s.store.CreateInvoice(ctx, input)
}
