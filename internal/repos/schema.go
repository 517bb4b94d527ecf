package repos

import "strings"

// Money columns hold cents. Timestamps are RFC 3339 text written by the app,
// which keeps the DDL identical across drivers apart from the id type.
var schema = []string{`
CREATE TABLE IF NOT EXISTS users(
  email TEXT PRIMARY KEY,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('buyer','seller','helpdesk')),
  created_at TEXT NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS zipcodes(
  zipcode TEXT PRIMARY KEY,
  city TEXT NOT NULL,
  state TEXT NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS addresses(
  id {{ID}},
  zipcode TEXT NOT NULL REFERENCES zipcodes(zipcode),
  street_num TEXT NOT NULL,
  street_name TEXT NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS buyers(
  email TEXT PRIMARY KEY REFERENCES users(email) ON DELETE CASCADE,
  business_name TEXT NOT NULL DEFAULT '',
  address_id BIGINT REFERENCES addresses(id)
)`, `
CREATE TABLE IF NOT EXISTS sellers(
  email TEXT PRIMARY KEY REFERENCES users(email) ON DELETE CASCADE,
  business_name TEXT NOT NULL DEFAULT '',
  address_id BIGINT REFERENCES addresses(id),
  bank_routing_number TEXT NOT NULL DEFAULT '',
  bank_account_number TEXT NOT NULL DEFAULT '',
  balance_cents BIGINT NOT NULL DEFAULT 0 CHECK (balance_cents >= 0)
)`, `
CREATE TABLE IF NOT EXISTS helpdesk(
  email TEXT PRIMARY KEY REFERENCES users(email) ON DELETE CASCADE,
  position TEXT NOT NULL DEFAULT 'Support Staff'
)`, `
CREATE TABLE IF NOT EXISTS categories(
  name TEXT PRIMARY KEY,
  parent TEXT REFERENCES categories(name)
)`, `
CREATE TABLE IF NOT EXISTS listings(
  id {{ID}},
  seller_email TEXT NOT NULL REFERENCES sellers(email),
  category TEXT REFERENCES categories(name),
  title TEXT NOT NULL,
  product_name TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  price_cents BIGINT NOT NULL CHECK (price_cents >= 0),
  quantity INTEGER NOT NULL CHECK (quantity >= 0),
  status TEXT NOT NULL CHECK (status IN ('active','sold')),
  created_at TEXT NOT NULL,
  CHECK ((status = 'sold') = (quantity = 0))
)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_seller ON listings(seller_email)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_category ON listings(category)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status)`, `
CREATE TABLE IF NOT EXISTS payment_methods(
  id {{ID}},
  owner_email TEXT NOT NULL REFERENCES buyers(email) ON DELETE CASCADE,
  card_number TEXT NOT NULL UNIQUE,
  card_type TEXT NOT NULL,
  expire_month INTEGER NOT NULL CHECK (expire_month BETWEEN 1 AND 12),
  expire_year INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_payment_methods_owner ON payment_methods(owner_email)`, `
CREATE TABLE IF NOT EXISTS orders(
  id {{ID}},
  buyer_email TEXT NOT NULL REFERENCES buyers(email),
  listing_id BIGINT NOT NULL REFERENCES listings(id),
  seller_email TEXT NOT NULL REFERENCES sellers(email),
  payment_method_id BIGINT REFERENCES payment_methods(id) ON DELETE SET NULL,
  order_date TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  price_cents BIGINT NOT NULL,
  total_cents BIGINT NOT NULL,
  payment_status TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(buyer_email)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_seller ON orders(seller_email)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_listing ON orders(listing_id)`, `
CREATE TABLE IF NOT EXISTS reviews(
  order_id BIGINT PRIMARY KEY REFERENCES orders(id),
  rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  body TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL REFERENCES users(email) ON DELETE CASCADE,
  ttl_seconds BIGINT NOT NULL,
  created_at TEXT NOT NULL,
  last_seen TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_email ON sessions(email)`,
}

func schemaFor(driver string) []string {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	var out []string
	switch driver {
	case "pgx", "postgres":
		id = "BIGSERIAL PRIMARY KEY"
	default:
		out = append(out, `PRAGMA foreign_keys = ON`)
	}
	for _, s := range schema {
		out = append(out, strings.ReplaceAll(s, "{{ID}}", id))
	}
	return out
}
