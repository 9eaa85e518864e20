package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// sqliteTimeLayout is fixed width so stored times sort as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore constructs a Store backed by a modernc.org/sqlite handle.
func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{db: db, now: time.Now}
}

func (s *sqliteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *sqliteStore) UpsertVendor(ctx context.Context, input VendorInput) (*Vendor, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vendors (vendor_id, name, address, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (vendor_id) DO NOTHING`,
		input.VendorID, input.Name, toPtr(input.Address), formatTime(s.now()),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert vendor %q: %w", input.VendorID, err)
	}

	v := &Vendor{}
	var createdAt string
	err = s.db.QueryRowContext(ctx, `
		SELECT id, vendor_id, name, address, created_at
		FROM vendors
		WHERE vendor_id = ?`,
		input.VendorID,
	).Scan(&v.ID, &v.VendorID, &v.Name, &v.Address, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("load vendor %q: %w", input.VendorID, err)
	}
	if v.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *sqliteStore) UpsertCustomer(ctx context.Context, input CustomerInput) (*Customer, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (customer_id, name, address, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (customer_id) DO NOTHING`,
		input.CustomerID, input.Name, toPtr(input.Address), formatTime(s.now()),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert customer %q: %w", input.CustomerID, err)
	}

	c := &Customer{}
	var createdAt string
	err = s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, name, address, created_at
		FROM customers
		WHERE customer_id = ?`,
		input.CustomerID,
	).Scan(&c.ID, &c.CustomerID, &c.Name, &c.Address, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("load customer %q: %w", input.CustomerID, err)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *sqliteStore) CreateInvoice(ctx context.Context, input InvoiceInput) (*Invoice, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inv := &Invoice{
		InvoiceID:   input.InvoiceID,
		VendorRef:   input.VendorRef,
		CustomerRef: input.CustomerRef,
		Date:        input.Date,
		DueDate:     input.DueDate,
		Status:      input.Status,
		Currency:    input.Currency,
		TotalAmount: input.TotalAmount,
		CreatedAt:   s.now(),
	}

	var dueDate *string
	if input.DueDate != nil {
		d := formatTime(*input.DueDate)
		dueDate = &d
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO invoices (invoice_id, vendor_ref, customer_ref, date, due_date, status, currency, total_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		input.InvoiceID, input.VendorRef, input.CustomerRef, formatTime(input.Date), dueDate,
		input.Status, input.Currency, input.TotalAmount.String(), formatTime(inv.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert invoice %q: %w", input.InvoiceID, err)
	}
	if inv.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("invoice %q id: %w", input.InvoiceID, err)
	}

	for i, li := range input.LineItems {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO line_items (invoice_ref, description, quantity, unit_price, total)
			VALUES (?, ?, ?, ?, ?)`,
			inv.ID, li.Description, li.Quantity.String(), li.UnitPrice.String(), li.Total.String(),
		)
		if err != nil {
			return nil, fmt.Errorf("insert line item %d of invoice %q: %w", i, input.InvoiceID, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("line item %d of invoice %q id: %w", i, input.InvoiceID, err)
		}
		inv.LineItems = append(inv.LineItems, LineItem{
			ID:          id,
			InvoiceRef:  inv.ID,
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Total:       li.Total,
		})
	}

	for i, p := range input.Payments {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO payments (invoice_ref, paid_at, amount, method)
			VALUES (?, ?, ?, ?)`,
			inv.ID, formatTime(p.PaidAt), p.Amount.String(), p.Method,
		)
		if err != nil {
			return nil, fmt.Errorf("insert payment %d of invoice %q: %w", i, input.InvoiceID, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("payment %d of invoice %q id: %w", i, input.InvoiceID, err)
		}
		inv.Payments = append(inv.Payments, Payment{
			ID:         id,
			InvoiceRef: inv.ID,
			PaidAt:     p.PaidAt,
			Amount:     p.Amount,
			Method:     p.Method,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inv, nil
}

func (s *sqliteStore) Truncate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM line_items;
		DELETE FROM payments;
		DELETE FROM invoices;
		DELETE FROM vendors;
		DELETE FROM customers;
		DELETE FROM sqlite_sequence WHERE name IN ('line_items', 'payments', 'invoices', 'vendors', 'customers');`)
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// ── Read side ─────────────────────────────────────────────────────────────────

func (s *sqliteStore) ListInvoiceFacts(ctx context.Context) ([]InvoiceFact, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, status, total_amount FROM invoices`)
	if err != nil {
		return nil, fmt.Errorf("query invoice facts: %w", err)
	}
	defer rows.Close()

	var facts []InvoiceFact
	for rows.Next() {
		var f InvoiceFact
		var date string
		if err := rows.Scan(&date, &f.Status, &f.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan invoice fact: %w", err)
		}
		if f.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoice fact iteration error: %w", err)
	}
	return facts, nil
}

func (s *sqliteStore) ListPaymentFacts(ctx context.Context) ([]PaymentFact, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT paid_at, amount FROM payments`)
	if err != nil {
		return nil, fmt.Errorf("query payment facts: %w", err)
	}
	defer rows.Close()

	var facts []PaymentFact
	for rows.Next() {
		var f PaymentFact
		var paidAt string
		if err := rows.Scan(&paidAt, &f.Amount); err != nil {
			return nil, fmt.Errorf("scan payment fact: %w", err)
		}
		if f.PaidAt, err = parseTime(paidAt); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payment fact iteration error: %w", err)
	}
	return facts, nil
}

// ListVendorTotals sums in Go because amounts are stored as text.
func (s *sqliteStore) ListVendorTotals(ctx context.Context) ([]VendorTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.name, i.total_amount
		FROM vendors v
		LEFT JOIN invoices i ON i.vendor_ref = v.id
		ORDER BY v.id`)
	if err != nil {
		return nil, fmt.Errorf("query vendor totals: %w", err)
	}
	defer rows.Close()

	var totals []VendorTotal
	lastID := int64(-1)
	for rows.Next() {
		var id int64
		var name string
		var amount decimal.NullDecimal
		if err := rows.Scan(&id, &name, &amount); err != nil {
			return nil, fmt.Errorf("scan vendor total: %w", err)
		}
		if id != lastID {
			totals = append(totals, VendorTotal{Name: name})
			lastID = id
		}
		if amount.Valid {
			last := &totals[len(totals)-1]
			last.TotalSpend = last.TotalSpend.Add(amount.Decimal)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vendor total iteration error: %w", err)
	}
	return totals, nil
}

func (s *sqliteStore) SearchInvoices(ctx context.Context, query string, limit int) ([]InvoiceRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.invoice_id, v.name, c.name, i.date, i.status, i.currency, i.total_amount
		FROM invoices i
		JOIN vendors v   ON v.id = i.vendor_ref
		JOIN customers c ON c.id = i.customer_ref
		WHERE ?1 = ''
		   OR LOWER(i.invoice_id) LIKE LOWER(?2) ESCAPE '\'
		   OR LOWER(v.name)       LIKE LOWER(?2) ESCAPE '\'
		   OR LOWER(c.name)       LIKE LOWER(?2) ESCAPE '\'
		ORDER BY i.date DESC, i.id DESC
		LIMIT ?3`,
		query, containsPattern(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search invoices: %w", err)
	}
	defer rows.Close()

	var out []InvoiceRow
	for rows.Next() {
		var r InvoiceRow
		var date string
		if err := rows.Scan(
			&r.InvoiceID, &r.VendorName, &r.CustomerName, &date,
			&r.Status, &r.Currency, &r.TotalAmount,
		); err != nil {
			return nil, fmt.Errorf("scan invoice row: %w", err)
		}
		if r.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoice row iteration error: %w", err)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}
