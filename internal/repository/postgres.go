package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"motorvault/internal/logger"
	"motorvault/internal/model"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// maxTxRetries bounds how often a transaction is replayed after a
// serialization failure or deadlock.
const maxTxRetries = 5

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := s.runTx(ctx, fn)
		if err == nil || isRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond

	notify := func(err error, next time.Duration) {
		logger.WarnCtx(ctx, "transaction conflict, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("next_retry_in", next),
		)
	}
	return backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, maxTxRetries), ctx), notify)
}

func (s *PostgresStore) runTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
	}
	return false
}

func (s *PostgresStore) Leaderboard(ctx context.Context, limit int) ([]model.Account, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, handle, display_name, balance, currency, last_income, drop_cooldown_bypass, created_at
		FROM accounts
		ORDER BY balance DESC, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Handle, &a.DisplayName, &a.Balance, &a.Currency,
			&a.LastIncome, &a.DropCooldownBypass, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveEvent(ctx context.Context, e model.EconomyEvent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO economy_events (id, kind, account_id, item_id, asset_id, record_id, amount, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.Kind, e.AccountID, e.ItemID, e.AssetID, e.RecordID, e.Amount, e.Detail, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

type pgTx struct {
	tx pgx.Tx
}

const accountColumns = `id, handle, display_name, balance, currency, last_income, drop_cooldown_bypass, created_at`

func (t *pgTx) EnsureAccount(ctx context.Context, id, handle, displayName string) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO accounts (id, handle, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET handle = EXCLUDED.handle, display_name = EXCLUDED.display_name`,
		id, NormalizeHandle(handle), displayName)
	if err != nil {
		return fmt.Errorf("failed to ensure account: %w", err)
	}
	return nil
}

func (t *pgTx) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	a, err := t.scanAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, err
	}
	return a, t.loadGates(ctx, a)
}

func (t *pgTx) FindAccount(ctx context.Context, query string) (*model.Account, error) {
	a, err := t.scanAccount(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE handle <> '' AND lower(handle) = lower($1)
		ORDER BY id LIMIT 1`, NormalizeHandle(query))
	if errors.Is(err, model.ErrAccountNotFound) {
		a, err = t.scanAccount(ctx, `
			SELECT `+accountColumns+` FROM accounts
			WHERE display_name <> '' AND display_name = $1
			ORDER BY id LIMIT 1`, query)
	}
	if err != nil {
		return nil, err
	}
	return a, t.loadGates(ctx, a)
}

func (t *pgTx) scanAccount(ctx context.Context, query string, args ...any) (*model.Account, error) {
	var a model.Account
	err := t.tx.QueryRow(ctx, query, args...).Scan(&a.ID, &a.Handle, &a.DisplayName, &a.Balance,
		&a.Currency, &a.LastIncome, &a.DropCooldownBypass, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &a, nil
}

// loadGates fills the cooldown and redemption sets of a.
func (t *pgTx) loadGates(ctx context.Context, a *model.Account) error {
	a.Cooldowns = map[model.Channel]time.Time{}
	a.Redeemed = map[string]time.Time{}

	rows, err := t.tx.Query(ctx, `SELECT channel, claimed_at FROM account_cooldowns WHERE account_id = $1`, a.ID)
	if err != nil {
		return fmt.Errorf("failed to load cooldowns: %w", err)
	}
	for rows.Next() {
		var ch model.Channel
		var at time.Time
		if err := rows.Scan(&ch, &at); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan cooldown: %w", err)
		}
		a.Cooldowns[ch] = at
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = t.tx.Query(ctx, `SELECT reward_id, redeemed_at FROM account_redemptions WHERE account_id = $1`, a.ID)
	if err != nil {
		return fmt.Errorf("failed to load redemptions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return fmt.Errorf("failed to scan redemption: %w", err)
		}
		a.Redeemed[id] = at
	}
	return rows.Err()
}

// execOne runs a statement that must touch exactly one row.
func (t *pgTx) execOne(ctx context.Context, notFound error, query string, args ...any) error {
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

func (t *pgTx) SetBalance(ctx context.Context, id string, balance int64) error {
	return t.execOne(ctx, model.ErrAccountNotFound, `UPDATE accounts SET balance = $2 WHERE id = $1`, id, balance)
}

func (t *pgTx) SetLastIncome(ctx context.Context, id string, income int64) error {
	return t.execOne(ctx, model.ErrAccountNotFound, `UPDATE accounts SET last_income = $2 WHERE id = $1`, id, income)
}

func (t *pgTx) SetCurrency(ctx context.Context, id string, currency model.Currency) error {
	return t.execOne(ctx, model.ErrAccountNotFound, `UPDATE accounts SET currency = $2 WHERE id = $1`, id, currency)
}

func (t *pgTx) SetCooldown(ctx context.Context, id string, channel model.Channel, at time.Time) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO account_cooldowns (account_id, channel, claimed_at) VALUES ($1, $2, $3)
		ON CONFLICT (account_id, channel) DO UPDATE SET claimed_at = EXCLUDED.claimed_at`,
		id, channel, at)
	if err != nil {
		return fmt.Errorf("failed to set cooldown: %w", err)
	}
	return nil
}

func (t *pgTx) SetDropBypass(ctx context.Context, id string, bypass bool) error {
	return t.execOne(ctx, model.ErrAccountNotFound, `UPDATE accounts SET drop_cooldown_bypass = $2 WHERE id = $1`, id, bypass)
}

func (t *pgTx) AddRedemption(ctx context.Context, id, rewardID string, at time.Time) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO account_redemptions (account_id, reward_id, redeemed_at) VALUES ($1, $2, $3)
		ON CONFLICT (account_id, reward_id) DO NOTHING`,
		id, rewardID, at)
	if err != nil {
		return false, fmt.Errorf("failed to add redemption: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *pgTx) DeleteAccount(ctx context.Context, id string) error {
	return t.execOne(ctx, model.ErrAccountNotFound, `DELETE FROM accounts WHERE id = $1`, id)
}

func (t *pgTx) LockIssuance(ctx context.Context, itemID int) (int, error) {
	if _, err := t.tx.Exec(ctx, `
		INSERT INTO issuance_counters (item_id, issued_count) VALUES ($1, 0)
		ON CONFLICT (item_id) DO NOTHING`, itemID); err != nil {
		return 0, fmt.Errorf("failed to init issuance counter: %w", err)
	}
	var issued int
	if err := t.tx.QueryRow(ctx, `
		SELECT issued_count FROM issuance_counters WHERE item_id = $1 FOR UPDATE`, itemID).Scan(&issued); err != nil {
		return 0, fmt.Errorf("failed to lock issuance counter: %w", err)
	}
	return issued, nil
}

func (t *pgTx) IncrementIssuance(ctx context.Context, itemID int) error {
	return t.execOne(ctx, model.ErrItemNotFound,
		`UPDATE issuance_counters SET issued_count = issued_count + 1 WHERE item_id = $1`, itemID)
}

func (t *pgTx) OwnsItem(ctx context.Context, accountID string, itemID int) (bool, error) {
	var owns bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM ownership_records WHERE account_id = $1 AND item_id = $2)`,
		accountID, itemID).Scan(&owns)
	if err != nil {
		return false, fmt.Errorf("failed to check ownership: %w", err)
	}
	return owns, nil
}

func (t *pgTx) InsertOwnership(ctx context.Context, rec model.OwnershipRecord) (model.OwnershipRecord, error) {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO ownership_records (account_id, item_id, is_duplicate, source, acquired_at, color)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		rec.AccountID, rec.ItemID, rec.Duplicate, rec.Source, rec.AcquiredAt, rec.Color).Scan(&rec.ID)
	if err != nil {
		return model.OwnershipRecord{}, fmt.Errorf("failed to insert ownership record: %w", err)
	}
	return rec, nil
}

const recordColumns = `id, account_id, item_id, is_duplicate, source, acquired_at, color`

func scanRecord(row pgx.Row) (model.OwnershipRecord, error) {
	var rec model.OwnershipRecord
	err := row.Scan(&rec.ID, &rec.AccountID, &rec.ItemID, &rec.Duplicate, &rec.Source, &rec.AcquiredAt, &rec.Color)
	return rec, err
}

func (t *pgTx) GetOwnership(ctx context.Context, recordID int64) (*model.OwnershipRecord, error) {
	rec, err := scanRecord(t.tx.QueryRow(ctx, `SELECT `+recordColumns+` FROM ownership_records WHERE id = $1 FOR UPDATE`, recordID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ownership record: %w", err)
	}
	return &rec, nil
}

func (t *pgTx) ListOwnership(ctx context.Context, accountID string) ([]model.OwnershipRecord, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+recordColumns+` FROM ownership_records WHERE account_id = $1 ORDER BY id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ownership records: %w", err)
	}
	defer rows.Close()

	var out []model.OwnershipRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ownership record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (t *pgTx) DeleteOwnership(ctx context.Context, recordID int64) error {
	return t.execOne(ctx, model.ErrRecordNotFound, `DELETE FROM ownership_records WHERE id = $1`, recordID)
}

func (t *pgTx) SetColor(ctx context.Context, recordID int64, color string) error {
	return t.execOne(ctx, model.ErrRecordNotFound, `UPDATE ownership_records SET color = $2 WHERE id = $1`, recordID, color)
}

func (t *pgTx) ListHoldings(ctx context.Context, accountID string) ([]model.PropertyHolding, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT account_id, asset_id, purchased_at, last_collected_at
		FROM property_holdings WHERE account_id = $1
		ORDER BY purchased_at, asset_id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	var out []model.PropertyHolding
	for rows.Next() {
		var h model.PropertyHolding
		if err := rows.Scan(&h.AccountID, &h.AssetID, &h.PurchasedAt, &h.LastCollectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (t *pgTx) InsertHolding(ctx context.Context, h model.PropertyHolding) error {
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO property_holdings (account_id, asset_id, purchased_at, last_collected_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, asset_id) DO NOTHING`,
		h.AccountID, h.AssetID, h.PurchasedAt, h.LastCollectedAt)
	if err != nil {
		return fmt.Errorf("failed to insert holding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAlreadyOwned
	}
	return nil
}

func (t *pgTx) AdvanceHolding(ctx context.Context, accountID, assetID string, lastCollected time.Time) error {
	return t.execOne(ctx, model.ErrAssetNotFound, `
		UPDATE property_holdings SET last_collected_at = $3
		WHERE account_id = $1 AND asset_id = $2`, accountID, assetID, lastCollected)
}
