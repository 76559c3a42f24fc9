// Package memory is an in-process Store used by tests and by STORAGE=memory
// dev runs. A single mutex serializes transactions; the callback works on a
// snapshot that replaces the live state only when it returns nil, which
// reproduces the commit-or-rollback behavior of the Postgres store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/John840001/decentroz/internal/entity"
	"github.com/John840001/decentroz/internal/storage"
)

type Store struct {
	mu sync.Mutex
	st *state
}

type state struct {
	accounts    map[string]entity.Account // by address
	emails      map[string]string         // email -> address
	wallets     map[string]int64
	audits      []entity.AuditEntry
	token       *entity.TokenState
	balances    map[string]int64
	allowances  map[string]int64 // owner + "\x00" + spender
	assets      map[int64]entity.Asset
	nextAsset   int64
	operators   map[string]bool // owner + "\x00" + operator
	users       map[string]entity.UserRecord
	listings    map[int64]entity.Listing
	nextListing int64
}

func New() *Store {
	return &Store{st: &state{
		accounts:    map[string]entity.Account{},
		emails:      map[string]string{},
		wallets:     map[string]int64{},
		balances:    map[string]int64{},
		allowances:  map[string]int64{},
		assets:      map[int64]entity.Asset{},
		nextAsset:   1,
		operators:   map[string]bool{},
		users:       map[string]entity.UserRecord{},
		listings:    map[int64]entity.Listing{},
		nextListing: 1,
	}}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&tx{st: snapshot}); err != nil {
		return err
	}
	s.st = snapshot

	return nil
}

func (s *Store) Close() {}

func (st *state) clone() *state {
	c := &state{
		accounts:    make(map[string]entity.Account, len(st.accounts)),
		emails:      make(map[string]string, len(st.emails)),
		wallets:     make(map[string]int64, len(st.wallets)),
		audits:      append([]entity.AuditEntry(nil), st.audits...),
		balances:    make(map[string]int64, len(st.balances)),
		allowances:  make(map[string]int64, len(st.allowances)),
		assets:      make(map[int64]entity.Asset, len(st.assets)),
		nextAsset:   st.nextAsset,
		operators:   make(map[string]bool, len(st.operators)),
		users:       make(map[string]entity.UserRecord, len(st.users)),
		listings:    make(map[int64]entity.Listing, len(st.listings)),
		nextListing: st.nextListing,
	}
	for k, v := range st.accounts {
		c.accounts[k] = v
	}
	for k, v := range st.emails {
		c.emails[k] = v
	}
	for k, v := range st.wallets {
		c.wallets[k] = v
	}
	if st.token != nil {
		t := *st.token
		c.token = &t
	}
	for k, v := range st.balances {
		c.balances[k] = v
	}
	for k, v := range st.allowances {
		c.allowances[k] = v
	}
	for k, v := range st.assets {
		c.assets[k] = v
	}
	for k, v := range st.operators {
		c.operators[k] = v
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.listings {
		c.listings[k] = v
	}

	return c
}

type tx struct {
	st *state
}

func pairKey(a, b string) string {
	return strings.ToLower(a) + "\x00" + strings.ToLower(b)
}

func addrKey(a string) string {
	return strings.ToLower(a)
}

func (t *tx) CreateAccount(a *entity.Account) error {
	if _, ok := t.st.emails[strings.ToLower(a.Email)]; ok {
		return entity.ErrEmailInUse
	}
	t.st.accounts[addrKey(a.Address)] = *a
	t.st.emails[strings.ToLower(a.Email)] = a.Address

	return nil
}

func (t *tx) AccountByEmail(email string) (*entity.Account, error) {
	addr, ok := t.st.emails[strings.ToLower(email)]
	if !ok {
		return nil, entity.ErrNotFound
	}

	return t.AccountByAddress(addr)
}

func (t *tx) AccountByAddress(addr string) (*entity.Account, error) {
	a, ok := t.st.accounts[addrKey(addr)]
	if !ok {
		return nil, entity.ErrNotFound
	}

	return &a, nil
}

func (t *tx) CreateWallet(addr string) error {
	if _, ok := t.st.wallets[addrKey(addr)]; !ok {
		t.st.wallets[addrKey(addr)] = 0
	}

	return nil
}

func (t *tx) WalletBalance(addr string) (int64, error) {
	return t.st.wallets[addrKey(addr)], nil
}

func (t *tx) SetWalletBalance(addr string, amount int64) error {
	t.st.wallets[addrKey(addr)] = amount

	return nil
}

func (t *tx) AppendAudit(e *entity.AuditEntry) error {
	t.st.audits = append(t.st.audits, *e)

	return nil
}

func (t *tx) AuditByAddress(addr string) ([]entity.AuditEntry, error) {
	var out []entity.AuditEntry
	for _, e := range t.st.audits {
		if addrKey(e.Address) == addrKey(addr) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (t *tx) TokenState() (*entity.TokenState, error) {
	if t.st.token == nil {
		return nil, entity.ErrNotFound
	}
	s := *t.st.token

	return &s, nil
}

func (t *tx) SetTokenState(s *entity.TokenState) error {
	c := *s
	t.st.token = &c

	return nil
}

func (t *tx) TokenBalance(addr string) (int64, error) {
	return t.st.balances[addrKey(addr)], nil
}

func (t *tx) SetTokenBalance(addr string, amount int64) error {
	t.st.balances[addrKey(addr)] = amount

	return nil
}

func (t *tx) TokenAllowance(owner, spender string) (int64, error) {
	return t.st.allowances[pairKey(owner, spender)], nil
}

func (t *tx) SetTokenAllowance(owner, spender string, amount int64) error {
	t.st.allowances[pairKey(owner, spender)] = amount

	return nil
}

func (t *tx) CreateAsset(a *entity.Asset) (int64, error) {
	a.TokenID = t.st.nextAsset
	t.st.nextAsset++
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	t.st.assets[a.TokenID] = *a

	return a.TokenID, nil
}

func (t *tx) AssetByID(tokenID int64) (*entity.Asset, error) {
	a, ok := t.st.assets[tokenID]
	if !ok {
		return nil, entity.ErrNotFound
	}

	return &a, nil
}

func (t *tx) SetAssetHolder(tokenID int64, holder string) error {
	a, ok := t.st.assets[tokenID]
	if !ok {
		return entity.ErrNotFound
	}
	a.Holder = holder
	t.st.assets[tokenID] = a

	return nil
}

func (t *tx) assetsWhere(match func(entity.Asset) bool) []entity.Asset {
	var out []entity.Asset
	for _, a := range t.st.assets {
		if match(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenID < out[j].TokenID })

	return out
}

func (t *tx) AssetsByHolder(addr string) ([]entity.Asset, error) {
	return t.assetsWhere(func(a entity.Asset) bool {
		return addrKey(a.Holder) == addrKey(addr)
	}), nil
}

func (t *tx) AssetsByCreator(addr string) ([]entity.Asset, error) {
	return t.assetsWhere(func(a entity.Asset) bool {
		return addrKey(a.Creator) == addrKey(addr)
	}), nil
}

func (t *tx) SetOperator(owner, operator string, approved bool) error {
	t.st.operators[pairKey(owner, operator)] = approved

	return nil
}

func (t *tx) OperatorApproved(owner, operator string) (bool, error) {
	return t.st.operators[pairKey(owner, operator)], nil
}

func (t *tx) CreateUser(u *entity.UserRecord) error {
	if _, ok := t.st.users[addrKey(u.Address)]; ok {
		return entity.ErrAlreadyRegistered
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	t.st.users[addrKey(u.Address)] = *u

	return nil
}

func (t *tx) UserByAddress(addr string) (*entity.UserRecord, error) {
	u, ok := t.st.users[addrKey(addr)]
	if !ok {
		return nil, entity.ErrNotFound
	}

	return &u, nil
}

func (t *tx) SaveUser(u *entity.UserRecord) error {
	if _, ok := t.st.users[addrKey(u.Address)]; !ok {
		return entity.ErrNotFound
	}
	t.st.users[addrKey(u.Address)] = *u

	return nil
}

func (t *tx) CreateListing(l *entity.Listing) (int64, error) {
	l.ID = t.st.nextListing
	t.st.nextListing++
	now := time.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	t.st.listings[l.ID] = *l

	return l.ID, nil
}

func (t *tx) ListingByID(id int64) (*entity.Listing, error) {
	l, ok := t.st.listings[id]
	if !ok {
		return nil, entity.ErrNotFound
	}

	return &l, nil
}

func (t *tx) ActiveListingByToken(tokenID int64) (*entity.Listing, error) {
	for _, l := range t.st.listings {
		if l.TokenID == tokenID && l.Active() {
			found := l
			return &found, nil
		}
	}

	return nil, entity.ErrNotFound
}

func (t *tx) LatestListingByToken(tokenID int64) (*entity.Listing, error) {
	var latest *entity.Listing
	for _, l := range t.st.listings {
		if l.TokenID != tokenID {
			continue
		}
		if latest == nil || l.ID > latest.ID {
			found := l
			latest = &found
		}
	}
	if latest == nil {
		return nil, entity.ErrNotFound
	}

	return latest, nil
}

func (t *tx) SaveListing(l *entity.Listing) error {
	if _, ok := t.st.listings[l.ID]; !ok {
		return entity.ErrNotFound
	}
	l.UpdatedAt = time.Now()
	t.st.listings[l.ID] = *l

	return nil
}

func (t *tx) Listings() ([]entity.Listing, error) {
	out := make([]entity.Listing, 0, len(t.st.listings))
	for _, l := range t.st.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}
