package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	terrors "capital-trader/internal/errors"
	"capital-trader/internal/models"
	"capital-trader/internal/trading"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ DataStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; WAL lets readers proceed.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Accounts; portfolio is a msgpack map of asset -> decimal string
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		holder TEXT NOT NULL,
		kind TEXT NOT NULL,
		balance TEXT NOT NULL,
		portfolio BLOB,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	-- Price alerts
	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		asset TEXT NOT NULL,
		price TEXT NOT NULL,
		condition TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		seq INTEGER NOT NULL,
		FOREIGN KEY (account_id) REFERENCES accounts(id)
	);

	-- Trade journal
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		asset TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity TEXT NOT NULL,
		price TEXT NOT NULL,
		cost TEXT NOT NULL,
		balance TEXT NOT NULL,
		executed_at DATETIME NOT NULL,
		FOREIGN KEY (account_id) REFERENCES accounts(id)
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_account ON alerts(account_id, seq);
	CREATE INDEX IF NOT EXISTS idx_trades_account ON trades(account_id, executed_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Accounts
// ============================================================================

func encodePortfolio(portfolio map[string]decimal.Decimal) ([]byte, error) {
	raw := make(map[string]string, len(portfolio))
	for asset, qty := range portfolio {
		raw[asset] = qty.String()
	}
	return msgpack.Marshal(raw)
}

func decodePortfolio(data []byte) (map[string]decimal.Decimal, error) {
	portfolio := make(map[string]decimal.Decimal)
	if len(data) == 0 {
		return portfolio, nil
	}
	var raw map[string]string
	if err := msgpack.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for asset, s := range raw {
		qty, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("quantity of %s: %w", asset, err)
		}
		portfolio[asset] = qty
	}
	return portfolio, nil
}

func isPrimaryKeyViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) &&
		(se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique)
}

// CreateAccount inserts a new account.
func (s *SQLiteStore) CreateAccount(ctx context.Context, kind string, snap trading.Snapshot) error {
	portfolio, err := encodePortfolio(snap.Portfolio)
	if err != nil {
		return terrors.Wrap(terrors.ErrDatabaseError, "encoding portfolio: "+err.Error())
	}

	now := s.now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, holder, kind, balance, portfolio, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.Holder, kind, snap.Balance.String(), portfolio, now, now)
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return terrors.Wrapf(terrors.ErrAccountExists, "account %s", snap.ID)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *SQLiteStore) saveAccount(ctx context.Context, db execer, snap trading.Snapshot) error {
	portfolio, err := encodePortfolio(snap.Portfolio)
	if err != nil {
		return terrors.Wrap(terrors.ErrDatabaseError, "encoding portfolio: "+err.Error())
	}

	result, err := db.ExecContext(ctx, `
		UPDATE accounts SET holder = ?, balance = ?, portfolio = ?, updated_at = ? WHERE id = ?
	`, snap.Holder, snap.Balance.String(), portfolio, s.now(), snap.ID)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return terrors.Wrapf(terrors.ErrAccountNotFound, "account %s", snap.ID)
	}
	return nil
}

// SaveAccount overwrites the stored snapshot of an existing account.
func (s *SQLiteStore) SaveAccount(ctx context.Context, snap trading.Snapshot) error {
	return s.saveAccount(ctx, s.db, snap)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row scanner) (*AccountRecord, error) {
	var (
		rec       AccountRecord
		balance   string
		portfolio []byte
	)
	if err := row.Scan(&rec.Snapshot.ID, &rec.Snapshot.Holder, &rec.Kind, &balance, &portfolio,
		&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if rec.Snapshot.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("balance of %s: %w", rec.Snapshot.ID, err)
	}
	if rec.Snapshot.Portfolio, err = decodePortfolio(portfolio); err != nil {
		return nil, fmt.Errorf("portfolio of %s: %w", rec.Snapshot.ID, err)
	}
	return &rec, nil
}

// GetAccount loads one account.
func (s *SQLiteStore) GetAccount(ctx context.Context, id string) (*AccountRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, holder, kind, balance, portfolio, created_at, updated_at
		FROM accounts WHERE id = ?
	`, id)

	rec, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, terrors.Wrapf(terrors.ErrAccountNotFound, "account %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return rec, nil
}

// ListAccounts loads every account ordered by ID.
func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]AccountRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, holder, kind, balance, portfolio, created_at, updated_at
		FROM accounts ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var records []AccountRecord
	for rows.Next() {
		rec, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// ============================================================================
// Alerts
// ============================================================================

// SaveAlert appends an alert. Alerts keep their insertion order.
func (s *SQLiteStore) SaveAlert(ctx context.Context, alert models.Alert) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, account_id, asset, price, condition, created_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM alerts))
	`, alert.ID, alert.AccountID, alert.Asset, alert.Price.String(), string(alert.Condition), alert.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}

// GetAlerts returns the alerts of an account in insertion order.
func (s *SQLiteStore) GetAlerts(ctx context.Context, accountID string) ([]models.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, asset, price, condition, created_at
		FROM alerts WHERE account_id = ? ORDER BY seq ASC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var (
			a         models.Alert
			price     string
			condition string
		)
		if err := rows.Scan(&a.ID, &a.AccountID, &a.Asset, &price, &condition, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		if a.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("alert %s price: %w", a.ID, err)
		}
		a.Condition = models.AlertCondition(condition)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// ============================================================================
// Trade journal
// ============================================================================

func logTrades(ctx context.Context, db execer, confs []models.Confirmation) error {
	for _, c := range confs {
		_, err := db.ExecContext(ctx, `
			INSERT INTO trades (id, account_id, asset, side, quantity, price, cost, balance, executed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, c.AccountID, c.Asset, string(c.Side), c.Quantity.String(), c.Price.String(),
			c.Cost.String(), c.Balance.String(), c.ExecutedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to log trade %s: %w", c.ID, err)
		}
	}
	return nil
}

// LogTrades appends confirmations to the journal in one transaction.
func (s *SQLiteStore) LogTrades(ctx context.Context, confs ...models.Confirmation) error {
	if len(confs) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return logTrades(ctx, tx, confs)
	})
}

// GetTrades queries the journal, newest first.
func (s *SQLiteStore) GetTrades(ctx context.Context, filter TradeFilter) ([]models.Confirmation, error) {
	query := `SELECT id, account_id, asset, side, quantity, price, cost, balance, executed_at FROM trades`
	var (
		where []string
		args  []interface{}
	)
	if filter.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.Asset != "" {
		where = append(where, "asset = ?")
		args = append(args, filter.Asset)
	}
	if filter.Side != "" {
		where = append(where, "side = ?")
		args = append(args, string(filter.Side))
	}
	if !filter.StartDate.IsZero() {
		where = append(where, "executed_at >= ?")
		args = append(args, filter.StartDate.UTC())
	}
	if !filter.EndDate.IsZero() {
		where = append(where, "executed_at <= ?")
		args = append(args, filter.EndDate.UTC())
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY executed_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Confirmation
	for rows.Next() {
		var (
			c                             models.Confirmation
			side                          string
			qty, price, cost, balanceText string
		)
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Asset, &side, &qty, &price, &cost, &balanceText, &c.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		c.Side = models.Side(side)
		for _, f := range []struct {
			dst *decimal.Decimal
			src string
		}{{&c.Quantity, qty}, {&c.Price, price}, {&c.Cost, cost}, {&c.Balance, balanceText}} {
			if *f.dst, err = decimal.NewFromString(f.src); err != nil {
				return nil, fmt.Errorf("trade %s: %w", c.ID, err)
			}
		}
		trades = append(trades, c)
	}
	return trades, rows.Err()
}

// Commit saves snap and journals confs atomically.
func (s *SQLiteStore) Commit(ctx context.Context, snap trading.Snapshot, confs []models.Confirmation) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.saveAccount(ctx, tx, snap); err != nil {
			return err
		}
		return logTrades(ctx, tx, confs)
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
