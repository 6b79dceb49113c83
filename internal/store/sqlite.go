package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Journal using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Journal = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the journal at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The monitor writes from a single goroutine; history commands may read
	// concurrently from another process.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Feed records seen for the first time, with their classification
	CREATE TABLE IF NOT EXISTS observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tx_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		whale_name TEXT NOT NULL,
		token_symbol TEXT NOT NULL,
		token_address TEXT NOT NULL,
		trade_amount_usd TEXT,
		market_cap_usd TEXT,
		decision TEXT NOT NULL,
		observed_at DATETIME NOT NULL
	);

	-- Purchase conversations with the trading bot
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		bot TEXT NOT NULL,
		contract_address TEXT NOT NULL,
		sol_amount TEXT NOT NULL,
		limit_order INTEGER DEFAULT 0,
		final_state TEXT NOT NULL,
		last_state TEXT NOT NULL,
		failed_step TEXT,
		error TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL
	);

	-- Completed purchases
	CREATE TABLE IF NOT EXISTS purchases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL,
		contract_address TEXT NOT NULL,
		token_symbol TEXT NOT NULL,
		whale_name TEXT NOT NULL,
		market_cap_usd TEXT,
		sol_amount TEXT NOT NULL,
		limit_placed INTEGER DEFAULT 0,
		external_link TEXT,
		bought_at DATETIME NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id)
	);

	CREATE INDEX IF NOT EXISTS idx_observations_observed_at ON observations(observed_at);
	CREATE INDEX IF NOT EXISTS idx_conversations_started_at ON conversations(started_at);
	CREATE INDEX IF NOT EXISTS idx_purchases_bought_at ON purchases(bought_at);
	CREATE INDEX IF NOT EXISTS idx_purchases_contract ON purchases(contract_address);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// filtered appends the since/limit clauses of filter to query.
func filtered(query, timeColumn string, filter ListFilter) (string, []interface{}) {
	args := []interface{}{}
	if !filter.Since.IsZero() {
		query += " WHERE " + timeColumn + " >= ?"
		args = append(args, filter.Since)
	}
	query += " ORDER BY " + timeColumn + " DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	return query, args
}

// ============================================================================
// Observations
// ============================================================================

// SaveObservation records a newly observed feed record.
func (s *SQLiteStore) SaveObservation(ctx context.Context, obs *Observation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO observations (tx_id, timestamp, whale_name, token_symbol, token_address, trade_amount_usd, market_cap_usd, decision, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, obs.TxID, obs.Timestamp, obs.WhaleName, obs.TokenSymbol, obs.TokenAddress, obs.TradeAmountUSD, obs.MarketCapUSD, obs.Decision, obs.ObservedAt)
	if err != nil {
		return fmt.Errorf("failed to save observation: %w", err)
	}
	return nil
}

// ListObservations retrieves observations, newest first.
func (s *SQLiteStore) ListObservations(ctx context.Context, filter ListFilter) ([]Observation, error) {
	query, args := filtered("SELECT tx_id, timestamp, whale_name, token_symbol, token_address, trade_amount_usd, market_cap_usd, decision, observed_at FROM observations", "observed_at", filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var o Observation
		if err := rows.Scan(&o.TxID, &o.Timestamp, &o.WhaleName, &o.TokenSymbol, &o.TokenAddress, &o.TradeAmountUSD, &o.MarketCapUSD, &o.Decision, &o.ObservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ============================================================================
// Conversations
// ============================================================================

// SaveConversation records a finished conversation.
func (s *SQLiteStore) SaveConversation(ctx context.Context, conv *Conversation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO conversations (id, bot, contract_address, sol_amount, limit_order, final_state, last_state, failed_step, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, conv.ID, conv.Bot, conv.ContractAddress, conv.SOLAmount.String(), boolToInt(conv.LimitOrder), conv.FinalState, conv.LastState, conv.FailedStep, conv.Error, conv.StartedAt, conv.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// ListConversations retrieves conversations, newest first.
func (s *SQLiteStore) ListConversations(ctx context.Context, filter ListFilter) ([]Conversation, error) {
	query, args := filtered("SELECT id, bot, contract_address, sol_amount, limit_order, final_state, last_state, failed_step, error, started_at, finished_at FROM conversations", "started_at", filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		var limitOrder int
		var failedStep, errText sql.NullString
		if err := rows.Scan(&c.ID, &c.Bot, &c.ContractAddress, &c.SOLAmount, &limitOrder, &c.FinalState, &c.LastState, &failedStep, &errText, &c.StartedAt, &c.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		c.LimitOrder = limitOrder == 1
		c.FailedStep = failedStep.String
		c.Error = errText.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// ============================================================================
// Purchases
// ============================================================================

// SavePurchase records a completed purchase.
func (s *SQLiteStore) SavePurchase(ctx context.Context, p *Purchase) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO purchases (conversation_id, contract_address, token_symbol, whale_name, market_cap_usd, sol_amount, limit_placed, external_link, bought_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ConversationID, p.ContractAddress, p.TokenSymbol, p.WhaleName, p.MarketCapUSD, p.SOLAmount.String(), boolToInt(p.LimitPlaced), p.ExternalLink, p.BoughtAt)
	if err != nil {
		return fmt.Errorf("failed to save purchase: %w", err)
	}
	return nil
}

// ListPurchases retrieves purchases, newest first.
func (s *SQLiteStore) ListPurchases(ctx context.Context, filter ListFilter) ([]Purchase, error) {
	query, args := filtered("SELECT conversation_id, contract_address, token_symbol, whale_name, market_cap_usd, sol_amount, limit_placed, external_link, bought_at FROM purchases", "bought_at", filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}
	defer rows.Close()

	var out []Purchase
	for rows.Next() {
		var p Purchase
		var limitPlaced int
		var link sql.NullString
		if err := rows.Scan(&p.ConversationID, &p.ContractAddress, &p.TokenSymbol, &p.WhaleName, &p.MarketCapUSD, &p.SOLAmount, &limitPlaced, &link, &p.BoughtAt); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		p.LimitPlaced = limitPlaced == 1
		p.ExternalLink = link.String
		out = append(out, p)
	}
	return out, rows.Err()
}
