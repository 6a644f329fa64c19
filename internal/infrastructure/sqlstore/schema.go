package sqlstore

type dialect struct {
	name       string
	schema     []string
	upsertCart string
}

// Ids are VARCHAR, timestamps RFC3339 text and money amounts decimal strings
// so that both engines store identical values.
var sqliteDialect = dialect{
	name: DriverSQLite,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS products (
			id             VARCHAR(64)  PRIMARY KEY,
			name           VARCHAR(255) NOT NULL COLLATE NOCASE UNIQUE,
			price_amount   VARCHAR(64)  NOT NULL,
			price_currency CHAR(3)      NOT NULL,
			created_at     VARCHAR(40)  NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS inventory (
			product_id        VARCHAR(64) PRIMARY KEY,
			quantity          INTEGER     NOT NULL CHECK (quantity >= 0),
			reserved_quantity INTEGER     NOT NULL DEFAULT 0 CHECK (reserved_quantity >= 0 AND reserved_quantity <= quantity),
			last_updated      VARCHAR(40) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS carts (
			user_id    VARCHAR(64) PRIMARY KEY,
			updated_at VARCHAR(40) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			user_id             VARCHAR(64) NOT NULL REFERENCES carts(user_id) ON DELETE CASCADE,
			product_id          VARCHAR(64) NOT NULL,
			position            INTEGER     NOT NULL,
			quantity            INTEGER     NOT NULL CHECK (quantity > 0),
			unit_price_amount   VARCHAR(64) NOT NULL,
			unit_price_currency CHAR(3)     NOT NULL,
			PRIMARY KEY (user_id, product_id)
		)`,
		`CREATE TABLE IF NOT EXISTS addresses (
			id          VARCHAR(64)  PRIMARY KEY,
			user_id     VARCHAR(64)  NOT NULL,
			line1       VARCHAR(255) NOT NULL,
			line2       VARCHAR(255) NOT NULL DEFAULT '',
			city        VARCHAR(128) NOT NULL,
			postal_code VARCHAR(32)  NOT NULL,
			country     VARCHAR(64)  NOT NULL,
			created_at  VARCHAR(40)  NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id                  VARCHAR(64)  PRIMARY KEY,
			user_id             VARCHAR(64)  NOT NULL,
			status              VARCHAR(16)  NOT NULL,
			shipping_address_id VARCHAR(64)  NOT NULL,
			billing_address_id  VARCHAR(64)  NOT NULL DEFAULT '',
			payment_reference   VARCHAR(128) NOT NULL DEFAULT '',
			created_at          VARCHAR(40)  NOT NULL,
			modified_at         VARCHAR(40)  NOT NULL,
			completed_at        VARCHAR(40)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			order_id            VARCHAR(64)  NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id          VARCHAR(64)  NOT NULL,
			position            INTEGER      NOT NULL,
			product_name        VARCHAR(255) NOT NULL,
			unit_price_amount   VARCHAR(64)  NOT NULL,
			unit_price_currency CHAR(3)      NOT NULL,
			quantity            INTEGER      NOT NULL CHECK (quantity > 0),
			PRIMARY KEY (order_id, product_id)
		)`,
		`CREATE TABLE IF NOT EXISTS placement_log (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id           VARCHAR(64)  NOT NULL DEFAULT '',
			payment_reference VARCHAR(128) NOT NULL DEFAULT '',
			order_id          VARCHAR(64)  NOT NULL DEFAULT '',
			status            VARCHAR(32)  NOT NULL,
			step              VARCHAR(64)  NOT NULL DEFAULT '',
			amount            VARCHAR(80)  NOT NULL DEFAULT '',
			error_messages    TEXT         NOT NULL,
			trace_id          VARCHAR(32)  NOT NULL DEFAULT '',
			span_id           VARCHAR(16)  NOT NULL DEFAULT '',
			created_at        VARCHAR(40)  NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_placement_log_reference ON placement_log(payment_reference, id)`,
		`CREATE INDEX IF NOT EXISTS idx_placement_log_trace_id ON placement_log(trace_id)`,
	},
	upsertCart: `INSERT INTO carts (user_id, updated_at) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET updated_at = excluded.updated_at`,
}

var mysqlDialect = dialect{
	name: DriverMySQL,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS products (
			id             VARCHAR(64)  PRIMARY KEY,
			name           VARCHAR(255) NOT NULL,
			price_amount   VARCHAR(64)  NOT NULL,
			price_currency CHAR(3)      NOT NULL,
			created_at     VARCHAR(40)  NOT NULL,
			UNIQUE KEY uq_products_name (name)
		)`,
		`CREATE TABLE IF NOT EXISTS inventory (
			product_id        VARCHAR(64) PRIMARY KEY,
			quantity          INT         NOT NULL,
			reserved_quantity INT         NOT NULL DEFAULT 0,
			last_updated      VARCHAR(40) NOT NULL,
			CONSTRAINT chk_inventory_bounds CHECK (quantity >= 0 AND reserved_quantity >= 0 AND reserved_quantity <= quantity)
		)`,
		`CREATE TABLE IF NOT EXISTS carts (
			user_id    VARCHAR(64) PRIMARY KEY,
			updated_at VARCHAR(40) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			user_id             VARCHAR(64) NOT NULL,
			product_id          VARCHAR(64) NOT NULL,
			position            INT         NOT NULL,
			quantity            INT         NOT NULL,
			unit_price_amount   VARCHAR(64) NOT NULL,
			unit_price_currency CHAR(3)     NOT NULL,
			PRIMARY KEY (user_id, product_id),
			FOREIGN KEY (user_id) REFERENCES carts(user_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS addresses (
			id          VARCHAR(64)  PRIMARY KEY,
			user_id     VARCHAR(64)  NOT NULL,
			line1       VARCHAR(255) NOT NULL,
			line2       VARCHAR(255) NOT NULL DEFAULT '',
			city        VARCHAR(128) NOT NULL,
			postal_code VARCHAR(32)  NOT NULL,
			country     VARCHAR(64)  NOT NULL,
			created_at  VARCHAR(40)  NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id                  VARCHAR(64)  PRIMARY KEY,
			user_id             VARCHAR(64)  NOT NULL,
			status              VARCHAR(16)  NOT NULL,
			shipping_address_id VARCHAR(64)  NOT NULL,
			billing_address_id  VARCHAR(64)  NOT NULL DEFAULT '',
			payment_reference   VARCHAR(128) NOT NULL DEFAULT '',
			created_at          VARCHAR(40)  NOT NULL,
			modified_at         VARCHAR(40)  NOT NULL,
			completed_at        VARCHAR(40)  NULL,
			INDEX idx_orders_user_id (user_id, created_at)
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			order_id            VARCHAR(64)  NOT NULL,
			product_id          VARCHAR(64)  NOT NULL,
			position            INT          NOT NULL,
			product_name        VARCHAR(255) NOT NULL,
			unit_price_amount   VARCHAR(64)  NOT NULL,
			unit_price_currency CHAR(3)      NOT NULL,
			quantity            INT          NOT NULL,
			PRIMARY KEY (order_id, product_id),
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS placement_log (
			id                BIGINT       AUTO_INCREMENT PRIMARY KEY,
			user_id           VARCHAR(64)  NOT NULL DEFAULT '',
			payment_reference VARCHAR(128) NOT NULL DEFAULT '',
			order_id          VARCHAR(64)  NOT NULL DEFAULT '',
			status            VARCHAR(32)  NOT NULL,
			step              VARCHAR(64)  NOT NULL DEFAULT '',
			amount            VARCHAR(80)  NOT NULL DEFAULT '',
			error_messages    TEXT         NOT NULL,
			trace_id          VARCHAR(32)  NOT NULL DEFAULT '',
			span_id           VARCHAR(16)  NOT NULL DEFAULT '',
			created_at        VARCHAR(40)  NOT NULL,
			INDEX idx_placement_log_reference (payment_reference, id),
			INDEX idx_placement_log_trace_id (trace_id)
		)`,
	},
	upsertCart: `INSERT INTO carts (user_id, updated_at) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE updated_at = VALUES(updated_at)`,
}
