package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Store backed by PostgreSQL.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertVendor inserts the vendor unless its natural key is already taken,
// then returns the stored row. Later inputs never overwrite the first one.
func (s *postgresStore) UpsertVendor(ctx context.Context, input VendorInput) (*Vendor, error) {
	v := &Vendor{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO vendors (vendor_id, name, address)
		VALUES ($1, $2, $3)
		ON CONFLICT (vendor_id) DO NOTHING
		RETURNING id, vendor_id, name, address, created_at`,
		input.VendorID, input.Name, toPtr(input.Address),
	).Scan(&v.ID, &v.VendorID, &v.Name, &v.Address, &v.CreatedAt)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("upsert vendor %q: %w", input.VendorID, err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT id, vendor_id, name, address, created_at
		FROM vendors
		WHERE vendor_id = $1`,
		input.VendorID,
	).Scan(&v.ID, &v.VendorID, &v.Name, &v.Address, &v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("load vendor %q: %w", input.VendorID, err)
	}
	return v, nil
}

// UpsertCustomer inserts the customer unless its natural key is already
// taken, then returns the stored row.
func (s *postgresStore) UpsertCustomer(ctx context.Context, input CustomerInput) (*Customer, error) {
	c := &Customer{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (customer_id, name, address)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id) DO NOTHING
		RETURNING id, customer_id, name, address, created_at`,
		input.CustomerID, input.Name, toPtr(input.Address),
	).Scan(&c.ID, &c.CustomerID, &c.Name, &c.Address, &c.CreatedAt)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("upsert customer %q: %w", input.CustomerID, err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT id, customer_id, name, address, created_at
		FROM customers
		WHERE customer_id = $1`,
		input.CustomerID,
	).Scan(&c.ID, &c.CustomerID, &c.Name, &c.Address, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("load customer %q: %w", input.CustomerID, err)
	}
	return c, nil
}

// CreateInvoice inserts the invoice with its line items and payments in one
// transaction.
func (s *postgresStore) CreateInvoice(ctx context.Context, input InvoiceInput) (*Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inv := &Invoice{
		InvoiceID:   input.InvoiceID,
		VendorRef:   input.VendorRef,
		CustomerRef: input.CustomerRef,
		Date:        input.Date,
		DueDate:     input.DueDate,
		Status:      input.Status,
		Currency:    input.Currency,
		TotalAmount: input.TotalAmount,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (invoice_id, vendor_ref, customer_ref, date, due_date, status, currency, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		input.InvoiceID, input.VendorRef, input.CustomerRef, input.Date, input.DueDate,
		input.Status, input.Currency, input.TotalAmount,
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert invoice %q: %w", input.InvoiceID, err)
	}

	for i, li := range input.LineItems {
		item := LineItem{
			InvoiceRef:  inv.ID,
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Total:       li.Total,
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO line_items (invoice_ref, description, quantity, unit_price, total)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			inv.ID, li.Description, li.Quantity, li.UnitPrice, li.Total,
		).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("insert line item %d of invoice %q: %w", i, input.InvoiceID, err)
		}
		inv.LineItems = append(inv.LineItems, item)
	}

	for i, p := range input.Payments {
		pay := Payment{
			InvoiceRef: inv.ID,
			PaidAt:     p.PaidAt,
			Amount:     p.Amount,
			Method:     p.Method,
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO payments (invoice_ref, paid_at, amount, method)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			inv.ID, p.PaidAt, p.Amount, p.Method,
		).Scan(&pay.ID)
		if err != nil {
			return nil, fmt.Errorf("insert payment %d of invoice %q: %w", i, input.InvoiceID, err)
		}
		inv.Payments = append(inv.Payments, pay)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inv, nil
}

func (s *postgresStore) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		TRUNCATE TABLE line_items, payments, invoices, vendors, customers
		RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// ── Read side ─────────────────────────────────────────────────────────────────

func (s *postgresStore) ListInvoiceFacts(ctx context.Context) ([]InvoiceFact, error) {
	rows, err := s.pool.Query(ctx, `SELECT date, status, total_amount FROM invoices`)
	if err != nil {
		return nil, fmt.Errorf("query invoice facts: %w", err)
	}
	defer rows.Close()

	var facts []InvoiceFact
	for rows.Next() {
		var f InvoiceFact
		if err := rows.Scan(&f.Date, &f.Status, &f.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan invoice fact: %w", err)
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoice fact iteration error: %w", err)
	}
	return facts, nil
}

func (s *postgresStore) ListPaymentFacts(ctx context.Context) ([]PaymentFact, error) {
	rows, err := s.pool.Query(ctx, `SELECT paid_at, amount FROM payments`)
	if err != nil {
		return nil, fmt.Errorf("query payment facts: %w", err)
	}
	defer rows.Close()

	var facts []PaymentFact
	for rows.Next() {
		var f PaymentFact
		if err := rows.Scan(&f.PaidAt, &f.Amount); err != nil {
			return nil, fmt.Errorf("scan payment fact: %w", err)
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payment fact iteration error: %w", err)
	}
	return facts, nil
}

func (s *postgresStore) ListVendorTotals(ctx context.Context) ([]VendorTotal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT v.name, COALESCE(SUM(i.total_amount), 0)
		FROM vendors v
		LEFT JOIN invoices i ON i.vendor_ref = v.id
		GROUP BY v.id, v.name`)
	if err != nil {
		return nil, fmt.Errorf("query vendor totals: %w", err)
	}
	defer rows.Close()

	var totals []VendorTotal
	for rows.Next() {
		var t VendorTotal
		if err := rows.Scan(&t.Name, &t.TotalSpend); err != nil {
			return nil, fmt.Errorf("scan vendor total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vendor total iteration error: %w", err)
	}
	return totals, nil
}

func (s *postgresStore) SearchInvoices(ctx context.Context, query string, limit int) ([]InvoiceRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT i.invoice_id, v.name, c.name, i.date, i.status, i.currency, i.total_amount
		FROM invoices i
		JOIN vendors v   ON v.id = i.vendor_ref
		JOIN customers c ON c.id = i.customer_ref
		WHERE $1 = ''
		   OR i.invoice_id ILIKE $2 ESCAPE '\'
		   OR v.name       ILIKE $2 ESCAPE '\'
		   OR c.name       ILIKE $2 ESCAPE '\'
		ORDER BY i.date DESC, i.id DESC
		LIMIT $3`,
		query, containsPattern(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search invoices: %w", err)
	}
	defer rows.Close()

	var out []InvoiceRow
	for rows.Next() {
		var r InvoiceRow
		if err := rows.Scan(
			&r.InvoiceID, &r.VendorName, &r.CustomerName, &r.Date,
			&r.Status, &r.Currency, &r.TotalAmount,
		); err != nil {
			return nil, fmt.Errorf("scan invoice row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoice row iteration error: %w", err)
	}
	return out, nil
}
