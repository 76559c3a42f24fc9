package market

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/John840001/decentroz/internal/entity"
	"github.com/John840001/decentroz/internal/registry"
	"github.com/John840001/decentroz/internal/storage"
)

// Roles accepted by ByAddressProperty.
const (
	RoleSeller = "seller"
	RoleOwner  = "owner"
)

// Service is the escrow and settlement engine. It is the only component
// allowed to flip a listing's sold/canceled flags or move a custodied
// asset. Listings move Active -> Sold or Active -> Canceled, both
// terminal; while active, the asset's holder of record is the marketplace
// address.
type Service struct {
	store         storage.Store
	assetContract string
	tokenContract string
	address       string
	feeBps        int64
}

func NewService(store storage.Store, assetContract, tokenContract, address string, feeBps int64) *Service {
	return &Service{
		store:         store,
		assetContract: assetContract,
		tokenContract: tokenContract,
		address:       address,
		feeBps:        feeBps,
	}
}

// Address is the custody account escrowed assets are held under.
func (s *Service) Address() string {
	return s.address
}

// Fee is the amount withheld from the seller at settlement.
func (s *Service) Fee(price int64) int64 {
	return price * s.feeBps / 10000
}

// CreateItem escrows the asset and opens a listing. The caller must hold
// the token and must have approved the marketplace as operator.
func (s *Service) CreateItem(ctx context.Context, caller, assetContract string, tokenID, price int64) (*entity.Listing, error) {
	if !entity.SameAddress(assetContract, s.assetContract) {
		return nil, entity.ErrNotFound
	}
	if price <= 0 {
		return nil, entity.ErrInvalidPrice
	}

	listing := &entity.Listing{
		AssetContract: s.assetContract,
		TokenID:       tokenID,
		Seller:        caller,
		Price:         price,
		Custody:       entity.CustodyEscrowed,
		CreatedAt:     time.Now(),
	}
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		asset, err := tx.AssetByID(tokenID)
		if err != nil {
			return err
		}
		if !entity.SameAddress(asset.Holder, caller) {
			return entity.ErrNotOwner
		}
		approved, err := tx.OperatorApproved(caller, s.address)
		if err != nil {
			return err
		}
		if !approved {
			return entity.ErrNotApproved
		}
		if _, err = tx.ActiveListingByToken(tokenID); err == nil {
			return entity.ErrAlreadyListed
		} else if !errors.Is(err, entity.ErrNotFound) {
			return err
		}

		// Creator is recorded at listing time, never re-derived later.
		listing.Creator = asset.Creator

		if err = registry.ApplyTransfer(tx, s.address, caller, s.address, tokenID); err != nil {
			return err
		}
		_, err = tx.CreateListing(listing)

		return err
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("market item created",
		zap.Int64("listing_id", listing.ID),
		zap.Int64("token_id", tokenID),
		zap.String("seller", caller),
		zap.Int64("price", price))

	return listing, nil
}

// Cancel returns the escrowed asset to the seller and terminates the
// listing. Only the seller of the active listing may cancel; a second
// cancel fails with ErrNotActive.
func (s *Service) Cancel(ctx context.Context, caller, assetContract string, tokenID int64) (*entity.Listing, error) {
	if !entity.SameAddress(assetContract, s.assetContract) {
		return nil, entity.ErrNotFound
	}

	var listing *entity.Listing
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		listing, err = s.activeListing(tx, tokenID)
		if err != nil {
			return err
		}
		if !entity.SameAddress(listing.Seller, caller) {
			return entity.ErrNotSeller
		}

		if err = registry.ApplyTransfer(tx, s.address, s.address, listing.Seller, tokenID); err != nil {
			return err
		}
		listing.Canceled = true
		listing.Owner = listing.Seller
		listing.Custody = entity.CustodyReturned

		return tx.SaveListing(listing)
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("market item canceled",
		zap.Int64("listing_id", listing.ID),
		zap.Int64("token_id", tokenID))

	return listing, nil
}

// BuyNative settles the listing against an exact native-currency payment
// attached to the call.
func (s *Service) BuyNative(ctx context.Context, buyer, assetContract string, tokenID, payment int64) (*entity.Listing, error) {
	if !entity.SameAddress(assetContract, s.assetContract) {
		return nil, entity.ErrNotFound
	}

	return s.settle(ctx, buyer, tokenID, NativePayment{Amount: payment})
}

// BuyWithToken settles the listing by pulling the price from the buyer's
// credit token allowance.
func (s *Service) BuyWithToken(ctx context.Context, buyer, assetContract, tokenContract string, tokenID int64) (*entity.Listing, error) {
	if !entity.SameAddress(assetContract, s.assetContract) {
		return nil, entity.ErrNotFound
	}
	if !entity.SameAddress(tokenContract, s.tokenContract) {
		return nil, entity.ErrNotFound
	}

	return s.settle(ctx, buyer, tokenID, TokenPayment{Spender: s.address})
}

// settle is the single settlement routine behind both rails: collect the
// payment, release the asset to the buyer, close the listing. All inside
// one transaction; a failure in either half undoes the other.
func (s *Service) settle(ctx context.Context, buyer string, tokenID int64, pay Payment) (*entity.Listing, error) {
	var listing *entity.Listing
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		listing, err = s.activeListing(tx, tokenID)
		if err != nil {
			return err
		}

		fee := s.Fee(listing.Price)
		if err = pay.collect(tx, listing, buyer, s.address, fee); err != nil {
			return err
		}
		if err = registry.ApplyTransfer(tx, s.address, s.address, buyer, tokenID); err != nil {
			return err
		}

		listing.Sold = true
		listing.Owner = buyer
		listing.Custody = entity.CustodyTransferred
		if err = tx.SaveListing(listing); err != nil {
			return err
		}

		ref := strconv.FormatInt(listing.ID, 10)
		if err = tx.AppendAudit(entity.NewAudit(buyer, pay.rail(), entity.DirectionDebit, listing.Price, "purchase", ref)); err != nil {
			return err
		}
		if err = tx.AppendAudit(entity.NewAudit(listing.Seller, pay.rail(), entity.DirectionCredit, listing.Price-fee, "sale", ref)); err != nil {
			return err
		}
		if fee > 0 {
			return tx.AppendAudit(entity.NewAudit(s.address, pay.rail(), entity.DirectionCredit, fee, "fee", ref))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("market item sold",
		zap.Int64("listing_id", listing.ID),
		zap.Int64("token_id", tokenID),
		zap.String("buyer", buyer),
		zap.String("rail", pay.rail()))

	return listing, nil
}

// activeListing resolves the active listing for a token, distinguishing
// "never listed" from "already terminal".
func (s *Service) activeListing(tx storage.Tx, tokenID int64) (*entity.Listing, error) {
	listing, err := tx.ActiveListingByToken(tokenID)
	if err == nil {
		return listing, nil
	}
	if !errors.Is(err, entity.ErrNotFound) {
		return nil, err
	}
	if _, latestErr := tx.LatestListingByToken(tokenID); latestErr == nil {
		return nil, entity.ErrNotActive
	}

	return nil, entity.ErrNotFound
}

// Available returns unsold, uncanceled listings in ascending listing id
// order. A point-in-time snapshot, not a subscription.
func (s *Service) Available(ctx context.Context) ([]entity.Listing, error) {
	return s.listingsWhere(ctx, func(l entity.Listing) bool {
		return l.Active()
	})
}

// ByAddressProperty filters the full listing set by the caller's role on
// each listing. "owner" is derived: the address that ended up holding the
// asset after the listing closed.
func (s *Service) ByAddressProperty(ctx context.Context, caller, role string) ([]entity.Listing, error) {
	switch role {
	case RoleSeller:
		return s.listingsWhere(ctx, func(l entity.Listing) bool {
			return entity.SameAddress(l.Seller, caller)
		})
	case RoleOwner:
		return s.listingsWhere(ctx, func(l entity.Listing) bool {
			return l.Owner != "" && entity.SameAddress(l.Owner, caller)
		})
	default:
		return nil, entity.ErrInvalidRole
	}
}

func (s *Service) listingsWhere(ctx context.Context, match func(entity.Listing) bool) ([]entity.Listing, error) {
	var out []entity.Listing
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		all, err := tx.Listings()
		if err != nil {
			return err
		}
		for _, l := range all {
			if match(l) {
				out = append(out, l)
			}
		}

		return nil
	})

	return out, err
}
