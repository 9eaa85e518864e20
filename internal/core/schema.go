package core

// Table bootstrap for a fresh database. Both statements are idempotent; they
// create missing tables and never alter existing ones.

const postgresSchema = `
CREATE TABLE IF NOT EXISTS vendors (
	id         BIGSERIAL PRIMARY KEY,
	vendor_id  TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	address    TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS customers (
	id          BIGSERIAL PRIMARY KEY,
	customer_id TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	address     TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS invoices (
	id           BIGSERIAL PRIMARY KEY,
	invoice_id   TEXT NOT NULL UNIQUE,
	vendor_ref   BIGINT NOT NULL REFERENCES vendors(id),
	customer_ref BIGINT NOT NULL REFERENCES customers(id),
	date         TIMESTAMPTZ NOT NULL,
	due_date     TIMESTAMPTZ,
	status       TEXT NOT NULL,
	currency     TEXT NOT NULL,
	total_amount NUMERIC NOT NULL CHECK (total_amount >= 0),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS line_items (
	id          BIGSERIAL PRIMARY KEY,
	invoice_ref BIGINT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
	description TEXT NOT NULL,
	quantity    NUMERIC NOT NULL,
	unit_price  NUMERIC NOT NULL,
	total       NUMERIC NOT NULL
);

CREATE TABLE IF NOT EXISTS payments (
	id          BIGSERIAL PRIMARY KEY,
	invoice_ref BIGINT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
	paid_at     TIMESTAMPTZ NOT NULL,
	amount      NUMERIC NOT NULL,
	method      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_invoices_date ON invoices (date);
CREATE INDEX IF NOT EXISTS idx_line_items_invoice ON line_items (invoice_ref);
CREATE INDEX IF NOT EXISTS idx_payments_invoice ON payments (invoice_ref);
`

// Times are stored as fixed-width UTC text so that ORDER BY sorts
// chronologically; money is stored as decimal text.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS vendors (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	vendor_id  TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	address    TEXT,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS customers (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	customer_id TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	address     TEXT,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS invoices (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	invoice_id   TEXT NOT NULL UNIQUE,
	vendor_ref   INTEGER NOT NULL REFERENCES vendors(id),
	customer_ref INTEGER NOT NULL REFERENCES customers(id),
	date         TEXT NOT NULL,
	due_date     TEXT,
	status       TEXT NOT NULL,
	currency     TEXT NOT NULL,
	total_amount TEXT NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS line_items (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	invoice_ref INTEGER NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
	description TEXT NOT NULL,
	quantity    TEXT NOT NULL,
	unit_price  TEXT NOT NULL,
	total       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS payments (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	invoice_ref INTEGER NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
	paid_at     TEXT NOT NULL,
	amount      TEXT NOT NULL,
	method      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_invoices_date ON invoices (date);
CREATE INDEX IF NOT EXISTS idx_line_items_invoice ON line_items (invoice_ref);
CREATE INDEX IF NOT EXISTS idx_payments_invoice ON payments (invoice_ref);
`
