package storage

import (
	"context"

	"github.com/John840001/decentroz/internal/entity"
)

// Store is the shared durable state behind every component. All reads and
// writes run inside WithTx: the callback either commits in full or leaves
// no trace. Competing callers for the same listing are serialized by the
// implementation (row locks in Postgres, a single mutex in memory), so a
// losing buyer observes the committed terminal state, never a torn one.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Close()
}

// Tx is the transactional view of the state. Balance getters return zero
// for unknown addresses; entity lookups return entity.ErrNotFound.
type Tx interface {
	// accounts and native wallets
	CreateAccount(a *entity.Account) error
	AccountByEmail(email string) (*entity.Account, error)
	AccountByAddress(addr string) (*entity.Account, error)
	CreateWallet(addr string) error
	WalletBalance(addr string) (int64, error)
	SetWalletBalance(addr string, amount int64) error
	AppendAudit(e *entity.AuditEntry) error
	AuditByAddress(addr string) ([]entity.AuditEntry, error)

	// credit token ledger
	TokenState() (*entity.TokenState, error)
	SetTokenState(s *entity.TokenState) error
	TokenBalance(addr string) (int64, error)
	SetTokenBalance(addr string, amount int64) error
	TokenAllowance(owner, spender string) (int64, error)
	SetTokenAllowance(owner, spender string, amount int64) error

	// asset registry
	CreateAsset(a *entity.Asset) (int64, error)
	AssetByID(tokenID int64) (*entity.Asset, error)
	SetAssetHolder(tokenID int64, holder string) error
	AssetsByHolder(addr string) ([]entity.Asset, error)
	AssetsByCreator(addr string) ([]entity.Asset, error)
	SetOperator(owner, operator string, approved bool) error
	OperatorApproved(owner, operator string) (bool, error)

	// user directory
	CreateUser(u *entity.UserRecord) error
	UserByAddress(addr string) (*entity.UserRecord, error)
	SaveUser(u *entity.UserRecord) error

	// listings
	CreateListing(l *entity.Listing) (int64, error)
	ListingByID(id int64) (*entity.Listing, error)
	ActiveListingByToken(tokenID int64) (*entity.Listing, error)
	LatestListingByToken(tokenID int64) (*entity.Listing, error)
	SaveListing(l *entity.Listing) error
	Listings() ([]entity.Listing, error)
}
