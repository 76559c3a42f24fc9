// Package postgres implements storage.Store on pgx. Every WithTx call is
// one database transaction; listing and balance reads take row locks so
// competing purchases for the same listing serialize and the loser sees
// the committed terminal state.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/John840001/decentroz/internal/config"
	"github.com/John840001/decentroz/internal/entity"
	"github.com/John840001/decentroz/internal/storage"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.DBConfig) (*Store, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &Store{pool: pool}
	if err = s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	zap.L().Info("connected to postgres")

	return s, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	pgtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer pgtx.Rollback(ctx)

	if err = fn(&tx{ctx: ctx, tx: pgtx}); err != nil {
		return err
	}

	return pgtx.Commit(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

type tx struct {
	ctx context.Context
	tx  pgx.Tx
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.ErrNotFound
	}

	return err
}

func (t *tx) CreateAccount(a *entity.Account) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO accounts (id, name, email, password, address, created_at)
		VALUES ($1, $2, lower($3), $4, lower($5), $6)`,
		a.ID, a.Name, a.Email, a.PasswordHash, a.Address, a.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return entity.ErrEmailInUse
	}

	return err
}

func (t *tx) AccountByEmail(email string) (*entity.Account, error) {
	return t.scanAccount(t.tx.QueryRow(t.ctx, `
		SELECT id, name, email, password, address, created_at
		FROM accounts WHERE email = lower($1)`, email))
}

func (t *tx) AccountByAddress(addr string) (*entity.Account, error) {
	return t.scanAccount(t.tx.QueryRow(t.ctx, `
		SELECT id, name, email, password, address, created_at
		FROM accounts WHERE address = lower($1)`, addr))
}

func (t *tx) scanAccount(row pgx.Row) (*entity.Account, error) {
	var a entity.Account
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Address, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	return &a, nil
}

func (t *tx) CreateWallet(addr string) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO wallets (address, balance) VALUES (lower($1), 0)
		ON CONFLICT (address) DO NOTHING`, addr)

	return err
}

func (t *tx) WalletBalance(addr string) (int64, error) {
	var balance int64
	err := t.tx.QueryRow(t.ctx, `
		SELECT balance FROM wallets WHERE address = lower($1) FOR UPDATE`, addr).
		Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}

	return balance, err
}

func (t *tx) SetWalletBalance(addr string, amount int64) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO wallets (address, balance) VALUES (lower($1), $2)
		ON CONFLICT (address) DO UPDATE SET balance = EXCLUDED.balance`,
		addr, amount)

	return err
}

func (t *tx) AppendAudit(e *entity.AuditEntry) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO transactions (id, address, rail, direction, amount, reason, reference, created_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Address, e.Rail, e.Direction, e.Amount, e.Reason, e.Reference, e.CreatedAt)

	return err
}

func (t *tx) AuditByAddress(addr string) ([]entity.AuditEntry, error) {
	rows, err := t.tx.Query(t.ctx, `
		SELECT id, address, rail, direction, amount, reason, reference, created_at
		FROM transactions WHERE address = lower($1) ORDER BY created_at DESC`, addr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		if err := rows.Scan(&e.ID, &e.Address, &e.Rail, &e.Direction, &e.Amount,
			&e.Reason, &e.Reference, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	return out, rows.Err()
}

func (t *tx) TokenState() (*entity.TokenState, error) {
	var s entity.TokenState
	err := t.tx.QueryRow(t.ctx, `
		SELECT admin, total_supply FROM token_state WHERE id = 1 FOR UPDATE`).
		Scan(&s.Admin, &s.TotalSupply)
	if err != nil {
		return nil, notFound(err)
	}

	return &s, nil
}

func (t *tx) SetTokenState(s *entity.TokenState) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO token_state (id, admin, total_supply) VALUES (1, lower($1), $2)
		ON CONFLICT (id) DO UPDATE SET admin = EXCLUDED.admin, total_supply = EXCLUDED.total_supply`,
		s.Admin, s.TotalSupply)

	return err
}

func (t *tx) TokenBalance(addr string) (int64, error) {
	var balance int64
	err := t.tx.QueryRow(t.ctx, `
		SELECT balance FROM token_balances WHERE address = lower($1) FOR UPDATE`, addr).
		Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}

	return balance, err
}

func (t *tx) SetTokenBalance(addr string, amount int64) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO token_balances (address, balance) VALUES (lower($1), $2)
		ON CONFLICT (address) DO UPDATE SET balance = EXCLUDED.balance`,
		addr, amount)

	return err
}

func (t *tx) TokenAllowance(owner, spender string) (int64, error) {
	var amount int64
	err := t.tx.QueryRow(t.ctx, `
		SELECT amount FROM token_allowances
		WHERE owner = lower($1) AND spender = lower($2) FOR UPDATE`,
		owner, spender).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}

	return amount, err
}

func (t *tx) SetTokenAllowance(owner, spender string, amount int64) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO token_allowances (owner, spender, amount) VALUES (lower($1), lower($2), $3)
		ON CONFLICT (owner, spender) DO UPDATE SET amount = EXCLUDED.amount`,
		owner, spender, amount)

	return err
}

func (t *tx) CreateAsset(a *entity.Asset) (int64, error) {
	err := t.tx.QueryRow(t.ctx, `
		INSERT INTO assets (creator, holder, metadata_uri, created_at)
		VALUES (lower($1), lower($2), $3, $4)
		RETURNING token_id`,
		a.Creator, a.Holder, a.MetadataURI, a.CreatedAt).Scan(&a.TokenID)

	return a.TokenID, err
}

func (t *tx) AssetByID(tokenID int64) (*entity.Asset, error) {
	var a entity.Asset
	err := t.tx.QueryRow(t.ctx, `
		SELECT token_id, creator, holder, metadata_uri, created_at
		FROM assets WHERE token_id = $1 FOR UPDATE`, tokenID).
		Scan(&a.TokenID, &a.Creator, &a.Holder, &a.MetadataURI, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	return &a, nil
}

func (t *tx) SetAssetHolder(tokenID int64, holder string) error {
	ct, err := t.tx.Exec(t.ctx, `
		UPDATE assets SET holder = lower($1) WHERE token_id = $2`, holder, tokenID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return entity.ErrNotFound
	}

	return nil
}

func (t *tx) AssetsByHolder(addr string) ([]entity.Asset, error) {
	return t.queryAssets(`
		SELECT token_id, creator, holder, metadata_uri, created_at
		FROM assets WHERE holder = lower($1) ORDER BY token_id`, addr)
}

func (t *tx) AssetsByCreator(addr string) ([]entity.Asset, error) {
	return t.queryAssets(`
		SELECT token_id, creator, holder, metadata_uri, created_at
		FROM assets WHERE creator = lower($1) ORDER BY token_id`, addr)
}

func (t *tx) queryAssets(query string, args ...any) ([]entity.Asset, error) {
	rows, err := t.tx.Query(t.ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Asset
	for rows.Next() {
		var a entity.Asset
		if err := rows.Scan(&a.TokenID, &a.Creator, &a.Holder, &a.MetadataURI, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

func (t *tx) SetOperator(owner, operator string, approved bool) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO asset_operators (owner, operator, approved) VALUES (lower($1), lower($2), $3)
		ON CONFLICT (owner, operator) DO UPDATE SET approved = EXCLUDED.approved`,
		owner, operator, approved)

	return err
}

func (t *tx) OperatorApproved(owner, operator string) (bool, error) {
	var approved bool
	err := t.tx.QueryRow(t.ctx, `
		SELECT approved FROM asset_operators WHERE owner = lower($1) AND operator = lower($2)`,
		owner, operator).Scan(&approved)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}

	return approved, err
}

func (t *tx) CreateUser(u *entity.UserRecord) error {
	ct, err := t.tx.Exec(t.ctx, `
		INSERT INTO users (address, name, description, is_buyer, is_seller, total_assets_created, created_at)
		VALUES (lower($1), $2, $3, $4, $5, $6, $7)
		ON CONFLICT (address) DO NOTHING`,
		u.Address, u.Name, u.Description, u.IsBuyer, u.IsSeller, u.TotalAssetsCreated, u.CreatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return entity.ErrAlreadyRegistered
	}

	return nil
}

func (t *tx) UserByAddress(addr string) (*entity.UserRecord, error) {
	var u entity.UserRecord
	err := t.tx.QueryRow(t.ctx, `
		SELECT address, name, description, is_buyer, is_seller, total_assets_created, created_at
		FROM users WHERE address = lower($1) FOR UPDATE`, addr).
		Scan(&u.Address, &u.Name, &u.Description, &u.IsBuyer, &u.IsSeller,
			&u.TotalAssetsCreated, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	return &u, nil
}

func (t *tx) SaveUser(u *entity.UserRecord) error {
	ct, err := t.tx.Exec(t.ctx, `
		UPDATE users SET name = $2, description = $3, is_buyer = $4, is_seller = $5,
			total_assets_created = $6
		WHERE address = lower($1)`,
		u.Address, u.Name, u.Description, u.IsBuyer, u.IsSeller, u.TotalAssetsCreated)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return entity.ErrNotFound
	}

	return nil
}

func (t *tx) CreateListing(l *entity.Listing) (int64, error) {
	err := t.tx.QueryRow(t.ctx, `
		INSERT INTO listings (asset_contract, token_id, creator, seller, owner, price,
			sold, canceled, custody, created_at, updated_at)
		VALUES (lower($1), $2, lower($3), lower($4), lower($5), $6, $7, $8, $9, $10, $10)
		RETURNING id`,
		l.AssetContract, l.TokenID, l.Creator, l.Seller, l.Owner, l.Price,
		l.Sold, l.Canceled, l.Custody, l.CreatedAt).Scan(&l.ID)

	return l.ID, err
}

const listingColumns = `id, asset_contract, token_id, creator, seller, owner, price,
	sold, canceled, custody, created_at, updated_at`

func (t *tx) ListingByID(id int64) (*entity.Listing, error) {
	return t.scanListing(t.tx.QueryRow(t.ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1 FOR UPDATE`, id))
}

func (t *tx) ActiveListingByToken(tokenID int64) (*entity.Listing, error) {
	return t.scanListing(t.tx.QueryRow(t.ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE token_id = $1 AND NOT sold AND NOT canceled
		 ORDER BY id DESC LIMIT 1 FOR UPDATE`, tokenID))
}

func (t *tx) LatestListingByToken(tokenID int64) (*entity.Listing, error) {
	return t.scanListing(t.tx.QueryRow(t.ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE token_id = $1 ORDER BY id DESC LIMIT 1 FOR UPDATE`, tokenID))
}

func (t *tx) scanListing(row pgx.Row) (*entity.Listing, error) {
	var l entity.Listing
	err := row.Scan(&l.ID, &l.AssetContract, &l.TokenID, &l.Creator, &l.Seller,
		&l.Owner, &l.Price, &l.Sold, &l.Canceled, &l.Custody, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	return &l, nil
}

func (t *tx) SaveListing(l *entity.Listing) error {
	ct, err := t.tx.Exec(t.ctx, `
		UPDATE listings SET owner = lower($2), sold = $3, canceled = $4, custody = $5,
			updated_at = NOW()
		WHERE id = $1`,
		l.ID, l.Owner, l.Sold, l.Canceled, l.Custody)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return entity.ErrNotFound
	}

	return nil
}

func (t *tx) Listings() ([]entity.Listing, error) {
	rows, err := t.tx.Query(t.ctx,
		`SELECT `+listingColumns+` FROM listings ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Listing
	for rows.Next() {
		var l entity.Listing
		if err := rows.Scan(&l.ID, &l.AssetContract, &l.TokenID, &l.Creator, &l.Seller,
			&l.Owner, &l.Price, &l.Sold, &l.Canceled, &l.Custody, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}

	return out, rows.Err()
}
