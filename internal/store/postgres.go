package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/punchamoorthee/tenderops/internal/domain"
)

const schema = `
CREATE SEQUENCE IF NOT EXISTS tender_ids;

CREATE TABLE IF NOT EXISTS contractors (
    identity     TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    status       TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contracts (
    id                       BIGINT PRIMARY KEY,
    description              TEXT NOT NULL,
    bid_deadline             TIMESTAMPTZ NOT NULL,
    agreed_amount            BIGINT NOT NULL DEFAULT 0,
    daily_penalty_rate       BIGINT NOT NULL,
    max_penalty_percent      BIGINT NOT NULL,
    awarded_bid              BIGINT NOT NULL DEFAULT 0,
    status                   TEXT NOT NULL,
    submitted_bid_ids        BIGINT[] NOT NULL DEFAULT '{}',
    is_paid                  BOOLEAN NOT NULL DEFAULT FALSE,
    planned_duration_days    BIGINT NOT NULL DEFAULT 0,
    work_started_at          TIMESTAMPTZ,
    work_completed_at        TIMESTAMPTZ,
    escrow_balance           BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS bids (
    id                  BIGINT PRIMARY KEY,
    contractor_identity TEXT NOT NULL,
    contract_id         BIGINT NOT NULL,
    amount              BIGINT NOT NULL,
    duration_days       BIGINT NOT NULL,
    status              TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS bids_contract_contractor
    ON bids (contract_id, contractor_identity);

CREATE TABLE IF NOT EXISTS accounts (
    identity TEXT PRIMARY KEY,
    balance  BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transfers (
    id          BIGSERIAL PRIMARY KEY,
    contract_id BIGINT NOT NULL,
    to_identity TEXT NOT NULL,
    amount      BIGINT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore persists records through a pgx connection pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

// execer is satisfied by both the pool and a pgx.Tx, so the upsert helpers
// can run standalone or inside a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func NewPostgresStore(connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &PostgresStore{db: pool}, nil
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

// Migrate creates the schema if it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetContractor(ctx context.Context, identity string) (*domain.Contractor, error) {
	var c domain.Contractor
	err := s.db.QueryRow(ctx,
		"SELECT identity, display_name, status, created_at FROM contractors WHERE identity = $1",
		identity).Scan(&c.Identity, &c.DisplayName, &c.Status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("contractor %s: %w", identity, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("contractor query failed: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) PutContractor(ctx context.Context, c *domain.Contractor) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO contractors (identity, display_name, status, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identity) DO UPDATE SET display_name = $2, status = $3`,
		c.Identity, c.DisplayName, c.Status, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("contractor upsert failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetContract(ctx context.Context, id int64) (*domain.Contract, error) {
	var c domain.Contract
	var started, completed *time.Time
	err := s.db.QueryRow(ctx, `
		SELECT id, description, bid_deadline, agreed_amount, daily_penalty_rate,
		       max_penalty_percent, awarded_bid, status, submitted_bid_ids,
		       is_paid, planned_duration_days, work_started_at, work_completed_at,
		       escrow_balance
		FROM contracts WHERE id = $1`, id).Scan(
		&c.ID, &c.Description, &c.BidDeadline, &c.AgreedAmount,
		&c.DailyPenaltyRatePerMille, &c.MaxPenaltyPercent, &c.AwardedBid,
		&c.Status, &c.SubmittedBidIDs, &c.IsPaid, &c.PlannedDurationDays,
		&started, &completed, &c.EscrowBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("contract %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("contract query failed: %w", err)
	}
	if started != nil {
		c.WorkStartedAt = *started
	}
	if completed != nil {
		c.WorkCompletedAt = *completed
	}
	return &c, nil
}

func (s *PostgresStore) PutContract(ctx context.Context, c *domain.Contract) error {
	return upsertContract(ctx, s.db, c)
}

func upsertContract(ctx context.Context, db execer, c *domain.Contract) error {
	_, err := db.Exec(ctx, `
		INSERT INTO contracts (id, description, bid_deadline, agreed_amount,
			daily_penalty_rate, max_penalty_percent, awarded_bid, status,
			submitted_bid_ids, is_paid, planned_duration_days,
			work_started_at, work_completed_at, escrow_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			description = $2, bid_deadline = $3, agreed_amount = $4,
			daily_penalty_rate = $5, max_penalty_percent = $6, awarded_bid = $7,
			status = $8, submitted_bid_ids = $9, is_paid = $10,
			planned_duration_days = $11, work_started_at = $12,
			work_completed_at = $13, escrow_balance = $14`,
		c.ID, c.Description, c.BidDeadline, c.AgreedAmount,
		c.DailyPenaltyRatePerMille, c.MaxPenaltyPercent, c.AwardedBid, c.Status,
		c.SubmittedBidIDs, c.IsPaid, c.PlannedDurationDays,
		nullableTime(c.WorkStartedAt), nullableTime(c.WorkCompletedAt),
		c.EscrowBalance)
	if err != nil {
		return fmt.Errorf("contract upsert failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBid(ctx context.Context, id int64) (*domain.Bid, error) {
	var b domain.Bid
	err := s.db.QueryRow(ctx, `
		SELECT id, contractor_identity, contract_id, amount, duration_days, status
		FROM bids WHERE id = $1`, id).Scan(
		&b.ID, &b.ContractorIdentity, &b.ContractID, &b.Amount, &b.DurationDays, &b.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("bid %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("bid query failed: %w", err)
	}
	return &b, nil
}

func (s *PostgresStore) PutBid(ctx context.Context, b *domain.Bid) error {
	return upsertBid(ctx, s.db, b)
}

func upsertBid(ctx context.Context, db execer, b *domain.Bid) error {
	_, err := db.Exec(ctx, `
		INSERT INTO bids (id, contractor_identity, contract_id, amount, duration_days, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET status = $6`,
		b.ID, b.ContractorIdentity, b.ContractID, b.Amount, b.DurationDays, b.Status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("bid for contract %d: %w", b.ContractID, domain.ErrAlreadyBid)
		}
		return fmt.Errorf("bid upsert failed: %w", err)
	}
	return nil
}

// PutBidAndContract writes both records in one transaction, so a failure on
// either side rolls back the other.
func (s *PostgresStore) PutBidAndContract(ctx context.Context, b *domain.Bid, c *domain.Contract) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := upsertBid(ctx, tx, b); err != nil {
		return err
	}
	if err := upsertContract(ctx, tx, c); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) HasBid(ctx context.Context, contractID int64, identity string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM bids WHERE contract_id = $1 AND contractor_identity = $2)",
		contractID, identity).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("bid existence query failed: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) NextID(ctx context.Context) (int64, error) {
	var id int64
	if err := s.db.QueryRow(ctx, "SELECT nextval('tender_ids')").Scan(&id); err != nil {
		return 0, fmt.Errorf("id allocation failed: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetAccount(ctx context.Context, identity string) (*domain.Account, error) {
	acc := domain.Account{Identity: identity}
	err := s.db.QueryRow(ctx,
		"SELECT balance FROM accounts WHERE identity = $1", identity).Scan(&acc.Balance)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("account query failed: %w", err)
	}
	return &acc, nil
}

// SettleEscrow moves amount from the contract's escrow balance to the
// contractor's account inside one transaction, marking the contract paid and
// recording the transfer row. The paid flag cannot land without the money
// moving, or the other way around.
func (s *PostgresStore) SettleEscrow(ctx context.Context, contractID int64, identity string, amount int64) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	var escrow int64
	err = tx.QueryRow(ctx,
		"SELECT escrow_balance FROM contracts WHERE id = $1 FOR UPDATE", contractID).Scan(&escrow)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("contract %d: %w", contractID, domain.ErrNotFound)
		}
		return fmt.Errorf("lock acquisition failed: %w", err)
	}

	if escrow < amount {
		return domain.ErrInsufficientFunds
	}

	_, err = tx.Exec(ctx,
		"UPDATE contracts SET escrow_balance = escrow_balance - $1, is_paid = TRUE WHERE id = $2",
		amount, contractID)
	if err != nil {
		return fmt.Errorf("escrow debit failed: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (identity, balance) VALUES ($1, $2)
		ON CONFLICT (identity) DO UPDATE SET balance = accounts.balance + $2`,
		identity, amount)
	if err != nil {
		return fmt.Errorf("account credit failed: %w", err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO transfers (contract_id, to_identity, amount) VALUES ($1, $2, $3)",
		contractID, identity, amount)
	if err != nil {
		return fmt.Errorf("transfer record failed: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
