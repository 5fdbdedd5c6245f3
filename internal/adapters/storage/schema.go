package storage

const schema = `
CREATE TABLE IF NOT EXISTS positions (
	id              TEXT PRIMARY KEY,
	condition_id    TEXT NOT NULL,
	token_id        TEXT NOT NULL,
	market_name     TEXT,
	side            TEXT NOT NULL,
	entry_price     REAL NOT NULL,
	shares          REAL NOT NULL,
	cost_basis      REAL NOT NULL,
	entry_edge      REAL DEFAULT 0,
	confidence      REAL DEFAULT 0,
	sources         TEXT DEFAULT '',
	city            TEXT DEFAULT '',
	threshold_value REAL DEFAULT 0,
	threshold_unit  TEXT DEFAULT 'C',
	resolves_at     TIMESTAMP,
	local_used      INTEGER DEFAULT 0,
	opened_at       TIMESTAMP,
	status          TEXT NOT NULL DEFAULT 'OPEN'
);

-- one live position per market
CREATE UNIQUE INDEX IF NOT EXISTS idx_positions_live
	ON positions(condition_id) WHERE status != 'EXITED';

CREATE TABLE IF NOT EXISTS open_orders (
	id                TEXT PRIMARY KEY,
	exchange_order_id TEXT NOT NULL,
	condition_id      TEXT NOT NULL,
	token_id          TEXT NOT NULL,
	market_name       TEXT,
	side              TEXT NOT NULL,
	price             REAL NOT NULL,
	amount            REAL NOT NULL,
	size              REAL NOT NULL,
	entry_edge        REAL DEFAULT 0,
	confidence        REAL DEFAULT 0,
	sources           TEXT DEFAULT '',
	city              TEXT DEFAULT '',
	threshold_value   REAL DEFAULT 0,
	threshold_unit    TEXT DEFAULT 'C',
	resolves_at       TIMESTAMP,
	local_used        INTEGER DEFAULT 0,
	placed_at         TIMESTAMP,
	expires_at        TIMESTAMP,
	status            TEXT NOT NULL DEFAULT 'OPEN',
	cancel_reason     TEXT DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_orders_status ON open_orders(status);

CREATE TABLE IF NOT EXISTS exit_records (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	position_id   TEXT NOT NULL,
	condition_id  TEXT NOT NULL,
	market_name   TEXT,
	side          TEXT NOT NULL,
	entry_price   REAL NOT NULL,
	exit_price    REAL NOT NULL,
	shares        REAL NOT NULL,
	cost_basis    REAL NOT NULL,
	proceeds      REAL NOT NULL,
	pnl           REAL NOT NULL,
	reason        TEXT NOT NULL,
	detail        TEXT DEFAULT '',
	exit_order_id TEXT DEFAULT '',
	exited_at     TIMESTAMP
);

CREATE TABLE IF NOT EXISTS events (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	type         TEXT NOT NULL,
	condition_id TEXT DEFAULT '',
	detail       TEXT DEFAULT '',
	payload      TEXT DEFAULT '',
	created_at   TIMESTAMP
);

CREATE TABLE IF NOT EXISTS meta (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	revision   INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMP
);

INSERT OR IGNORE INTO meta (id, revision, updated_at) VALUES (1, 0, CURRENT_TIMESTAMP);
`
