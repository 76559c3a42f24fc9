package market_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John840001/decentroz/internal/credit"
	"github.com/John840001/decentroz/internal/entity"
	"github.com/John840001/decentroz/internal/market"
	"github.com/John840001/decentroz/internal/registry"
	"github.com/John840001/decentroz/internal/storage/memory"
	"github.com/John840001/decentroz/internal/wallet"
)

const (
	tokenAddr    = "0x0000000000000000000000000000000000001001"
	contractAddr = "0x0000000000000000000000000000000000001002"
	marketAddr   = "0x0000000000000000000000000000000000001003"
	adminAddr    = "0x0000000000000000000000000000000000000001"
	sellerAddr   = "0x00000000000000000000000000000000000000a1"
	buyerAddr    = "0x00000000000000000000000000000000000000b2"
	otherAddr    = "0x00000000000000000000000000000000000000c3"
)

type fixture struct {
	market   *market.Service
	registry *registry.Service
	credit   *credit.Service
	wallet   *wallet.Service
}

func newFixture(t *testing.T, feeBps int64) *fixture {
	t.Helper()

	store := memory.New()
	f := &fixture{
		market:   market.NewService(store, contractAddr, tokenAddr, marketAddr, feeBps),
		registry: registry.NewService(store, contractAddr, marketAddr),
		credit:   credit.NewService(store, tokenAddr),
		wallet:   wallet.NewService(store),
	}
	require.NoError(t, f.credit.Bootstrap(context.Background(), adminAddr))

	return f
}

// mintAndList mints an asset for the seller, approves the marketplace and
// opens a listing at the given price.
func (f *fixture) mintAndList(t *testing.T, price int64) *entity.Listing {
	t.Helper()
	ctx := context.Background()

	asset, err := f.registry.Mint(ctx, sellerAddr, "ipfs://art")
	require.NoError(t, err)
	require.NoError(t, f.registry.SetApprovalForAll(ctx, sellerAddr, marketAddr, true))

	listing, err := f.market.CreateItem(ctx, sellerAddr, contractAddr, asset.TokenID, price)
	require.NoError(t, err)

	return listing
}

func (f *fixture) holderOf(t *testing.T, tokenID int64) string {
	t.Helper()

	owned, err := f.registry.OwnedBy(context.Background(), marketAddr)
	require.NoError(t, err)
	for _, a := range owned {
		if a.TokenID == tokenID {
			return marketAddr
		}
	}

	creator, err := f.registry.CreatedBy(context.Background(), sellerAddr)
	require.NoError(t, err)
	for _, a := range creator {
		if a.TokenID == tokenID {
			return a.Holder
		}
	}
	t.Fatalf("token %d not found", tokenID)

	return ""
}

func TestCreateItemEscrowsAsset(t *testing.T) {
	f := newFixture(t, 0)
	listing := f.mintAndList(t, 100)

	assert.Equal(t, int64(1), listing.ID)
	assert.Equal(t, sellerAddr, listing.Seller)
	assert.Equal(t, sellerAddr, listing.Creator)
	assert.Equal(t, entity.CustodyEscrowed, listing.Custody)
	assert.True(t, listing.Active())

	// The marketplace holds the asset while the listing is open.
	assert.Equal(t, marketAddr, f.holderOf(t, listing.TokenID))
}

func TestCreateItemValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	asset, err := f.registry.Mint(ctx, sellerAddr, "ipfs://art")
	require.NoError(t, err)

	_, err = f.market.CreateItem(ctx, sellerAddr, otherAddr, asset.TokenID, 100)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = f.market.CreateItem(ctx, sellerAddr, contractAddr, asset.TokenID, 0)
	assert.ErrorIs(t, err, entity.ErrInvalidPrice)

	_, err = f.market.CreateItem(ctx, buyerAddr, contractAddr, asset.TokenID, 100)
	assert.ErrorIs(t, err, entity.ErrNotOwner)

	// Holder without marketplace approval cannot list.
	_, err = f.market.CreateItem(ctx, sellerAddr, contractAddr, asset.TokenID, 100)
	assert.ErrorIs(t, err, entity.ErrNotApproved)

	_, err = f.market.CreateItem(ctx, sellerAddr, contractAddr, 99, 100)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestCreateItemRejectsDoubleListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	listing := f.mintAndList(t, 100)

	_, err := f.market.CreateItem(ctx, sellerAddr, contractAddr, listing.TokenID, 200)
	// The asset sits with the marketplace, so the seller no longer holds it.
	assert.Error(t, err)
}

func TestCancelReturnsAsset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	listing := f.mintAndList(t, 100)

	canceled, err := f.market.Cancel(ctx, sellerAddr, contractAddr, listing.TokenID)
	require.NoError(t, err)

	assert.True(t, canceled.Canceled)
	assert.False(t, canceled.Sold)
	assert.Equal(t, sellerAddr, canceled.Owner)
	assert.Equal(t, entity.CustodyReturned, canceled.Custody)
	assert.Equal(t, sellerAddr, f.holderOf(t, listing.TokenID))
}

func TestCancelOnlySeller(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	listing := f.mintAndList(t, 100)

	_, err := f.market.Cancel(ctx, otherAddr, contractAddr, listing.TokenID)
	assert.ErrorIs(t, err, entity.ErrNotSeller)
}

func TestCancelTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	listing := f.mintAndList(t, 100)

	_, err := f.market.Cancel(ctx, sellerAddr, contractAddr, listing.TokenID)
	require.NoError(t, err)

	_, err = f.market.Cancel(ctx, sellerAddr, contractAddr, listing.TokenID)
	assert.ErrorIs(t, err, entity.ErrNotActive)
}

func TestCancelNeverListed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	_, err := f.market.Cancel(ctx, sellerAddr, contractAddr, 42)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestRelistAfterCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	listing := f.mintAndList(t, 100)

	_, err := f.market.Cancel(ctx, sellerAddr, contractAddr, listing.TokenID)
	require.NoError(t, err)

	relisted, err := f.market.CreateItem(ctx, sellerAddr, contractAddr, listing.TokenID, 150)
	require.NoError(t, err)
	assert.Equal(t, int64(2), relisted.ID)
	assert.True(t, relisted.Active())
}

func TestBuyNative(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	listing := f.mintAndList(t, 100)
	require.NoError(t, f.wallet.Topup(ctx, buyerAddr, 150))

	sold, err := f.market.BuyNative(ctx, buyerAddr, contractAddr, listing.TokenID, 100)
	require.NoError(t, err)

	assert.True(t, sold.Sold)
	assert.False(t, sold.Canceled)
	assert.Equal(t, buyerAddr, sold.Owner)
	assert.Equal(t, entity.CustodyTransferred, sold.Custody)
	assert.Equal(t, buyerAddr, f.holderOf(t, listing.TokenID))

	buyerBal, err := f.wallet.Balance(ctx, buyerAddr)
	require.NoError(t, err)
	sellerBal, err := f.wallet.Balance(ctx, sellerAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(50), buyerBal)
	assert.Equal(t, int64(100), sellerBal)

	// Settlement leaves an audit trail on both sides.
	entries, err := f.wallet.Transactions(ctx, buyerAddr)
	require.NoError(t, err)
	var purchase bool
	for _, e := range entries {
		if e.Reason == "purchase" && e.Amount == 100 {
			purchase = true
		}
	}
	assert.True(t, purchase)
}

func TestBuyNativeWrongAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	listing := f.mintAndList(t, 100)
	require.NoError(t, f.wallet.Topup(ctx, buyerAddr, 500))

	_, err := f.market.BuyNative(ctx, buyerAddr, contractAddr, listing.TokenID, 99)
	assert.ErrorIs(t, err, entity.ErrWrongPaymentAmount)

	// Overpayment is rejected the same way, no change given.
	_, err = f.market.BuyNative(ctx, buyerAddr, contractAddr, listing.TokenID, 101)
	assert.ErrorIs(t, err, entity.ErrWrongPaymentAmount)

	balance, err := f.wallet.Balance(ctx, buyerAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)
}

func TestBuyNativeInsufficientFundsRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	listing := f.mintAndList(t, 100)
	require.NoError(t, f.wallet.Topup(ctx, buyerAddr, 40))

	_, err := f.market.BuyNative(ctx, buyerAddr, contractAddr, listing.TokenID, 100)
	assert.ErrorIs(t, err, entity.ErrInsufficientFunds)

	// Nothing moved: listing still active, asset still escrowed.
	available, err := f.market.Available(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, listing.ID, available[0].ID)
	assert.Equal(t, marketAddr, f.holderOf(t, listing.TokenID))

	balance, err := f.wallet.Balance(ctx, buyerAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(40), balance)
}

func TestBuySoldListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	listing := f.mintAndList(t, 100)
	require.NoError(t, f.wallet.Topup(ctx, buyerAddr, 100))
	require.NoError(t, f.wallet.Topup(ctx, otherAddr, 100))

	_, err := f.market.BuyNative(ctx, buyerAddr, contractAddr, listing.TokenID, 100)
	require.NoError(t, err)

	_, err = f.market.BuyNative(ctx, otherAddr, contractAddr, listing.TokenID, 100)
	assert.ErrorIs(t, err, entity.ErrNotActive)

	balance, err := f.wallet.Balance(ctx, otherAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}

func TestCompetingBuyersExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	listing := f.mintAndList(t, 100)
	require.NoError(t, f.wallet.Topup(ctx, buyerAddr, 100))
	require.NoError(t, f.wallet.Topup(ctx, otherAddr, 100))

	errs := make(chan error, 2)
	for _, buyer := range []string{buyerAddr, otherAddr} {
		go func(addr string) {
			_, err := f.market.BuyNative(ctx, addr, contractAddr, listing.TokenID, 100)
			errs <- err
		}(buyer)
	}

	var won, lost int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			won++
		case errors.Is(err, entity.ErrNotActive):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)

	// Exactly one payment settled.
	sellerBal, err := f.wallet.Balance(ctx, sellerAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(100), sellerBal)

	buyerBal, err := f.wallet.Balance(ctx, buyerAddr)
	require.NoError(t, err)
	otherBal, err := f.wallet.Balance(ctx, otherAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(100), buyerBal+otherBal)
}

func TestBuyNativeFeeSplit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 250) // 2.5%
	listing := f.mintAndList(t, 1000)
	require.NoError(t, f.wallet.Topup(ctx, buyerAddr, 1000))

	_, err := f.market.BuyNative(ctx, buyerAddr, contractAddr, listing.TokenID, 1000)
	require.NoError(t, err)

	sellerBal, err := f.wallet.Balance(ctx, sellerAddr)
	require.NoError(t, err)
	operatorBal, err := f.wallet.Balance(ctx, marketAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(975), sellerBal)
	assert.Equal(t, int64(25), operatorBal)
}

func TestBuyWithToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	listing := f.mintAndList(t, 100)
	require.NoError(t, f.credit.Mint(ctx, adminAddr, buyerAddr, 200))
	require.NoError(t, f.credit.Approve(ctx, buyerAddr, marketAddr, 100))

	sold, err := f.market.BuyWithToken(ctx, buyerAddr, contractAddr, tokenAddr, listing.TokenID)
	require.NoError(t, err)

	assert.True(t, sold.Sold)
	assert.Equal(t, buyerAddr, sold.Owner)
	assert.Equal(t, buyerAddr, f.holderOf(t, listing.TokenID))

	buyerBal, err := f.credit.BalanceOf(ctx, buyerAddr)
	require.NoError(t, err)
	sellerBal, err := f.credit.BalanceOf(ctx, sellerAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(100), buyerBal)
	assert.Equal(t, int64(100), sellerBal)

	remaining, err := f.credit.Allowance(ctx, buyerAddr, marketAddr)
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestBuyWithTokenWrongContract(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	listing := f.mintAndList(t, 100)

	_, err := f.market.BuyWithToken(ctx, buyerAddr, contractAddr, otherAddr, listing.TokenID)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestBuyWithTokenAllowanceShortfallRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	listing := f.mintAndList(t, 100)
	require.NoError(t, f.credit.Mint(ctx, adminAddr, buyerAddr, 200))
	require.NoError(t, f.credit.Approve(ctx, buyerAddr, marketAddr, 99))

	_, err := f.market.BuyWithToken(ctx, buyerAddr, contractAddr, tokenAddr, listing.TokenID)
	assert.ErrorIs(t, err, entity.ErrInsufficientAllowance)

	// No partial state: balances, allowance, custody and the listing are
	// all exactly as before the attempt.
	buyerBal, err := f.credit.BalanceOf(ctx, buyerAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(200), buyerBal)

	remaining, err := f.credit.Allowance(ctx, buyerAddr, marketAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(99), remaining)

	available, err := f.market.Available(ctx)
	require.NoError(t, err)
	assert.Len(t, available, 1)
	assert.Equal(t, marketAddr, f.holderOf(t, listing.TokenID))
}

func TestBuyWithTokenFeeSplit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 500) // 5%
	listing := f.mintAndList(t, 1000)
	require.NoError(t, f.credit.Mint(ctx, adminAddr, buyerAddr, 1000))
	require.NoError(t, f.credit.Approve(ctx, buyerAddr, marketAddr, 1000))

	_, err := f.market.BuyWithToken(ctx, buyerAddr, contractAddr, tokenAddr, listing.TokenID)
	require.NoError(t, err)

	sellerBal, err := f.credit.BalanceOf(ctx, sellerAddr)
	require.NoError(t, err)
	operatorBal, err := f.credit.BalanceOf(ctx, marketAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(950), sellerBal)
	assert.Equal(t, int64(50), operatorBal)
}

func TestAvailableExcludesTerminalListings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	first := f.mintAndList(t, 100)

	asset, err := f.registry.Mint(ctx, sellerAddr, "ipfs://second")
	require.NoError(t, err)
	second, err := f.market.CreateItem(ctx, sellerAddr, contractAddr, asset.TokenID, 200)
	require.NoError(t, err)

	_, err = f.market.Cancel(ctx, sellerAddr, contractAddr, first.TokenID)
	require.NoError(t, err)

	available, err := f.market.Available(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, second.ID, available[0].ID)
}

func TestByAddressProperty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	listing := f.mintAndList(t, 100)
	require.NoError(t, f.wallet.Topup(ctx, buyerAddr, 100))

	_, err := f.market.BuyNative(ctx, buyerAddr, contractAddr, listing.TokenID, 100)
	require.NoError(t, err)

	mine, err := f.market.ByAddressProperty(ctx, sellerAddr, market.RoleSeller)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, listing.ID, mine[0].ID)

	owned, err := f.market.ByAddressProperty(ctx, buyerAddr, market.RoleOwner)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, listing.ID, owned[0].ID)

	// The buyer never sold anything and the seller never ended up owning.
	empty, err := f.market.ByAddressProperty(ctx, buyerAddr, market.RoleSeller)
	require.NoError(t, err)
	assert.Empty(t, empty)
	empty, err = f.market.ByAddressProperty(ctx, sellerAddr, market.RoleOwner)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = f.market.ByAddressProperty(ctx, sellerAddr, "curator")
	assert.ErrorIs(t, err, entity.ErrInvalidRole)
}

func TestFee(t *testing.T) {
	f := newFixture(t, 250)

	assert.Equal(t, int64(25), f.market.Fee(1000))
	assert.Equal(t, int64(0), f.market.Fee(10))

	zero := newFixture(t, 0)
	assert.Equal(t, int64(0), zero.market.Fee(1000))
}
