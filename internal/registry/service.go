package registry

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/John840001/decentroz/internal/entity"
	"github.com/John840001/decentroz/internal/storage"
)

const (
	Name   = "DecentrozNFT"
	Symbol = "DNFT"
)

// Service is the non-fungible asset registry. It records the creator of
// each token permanently and the current holder on every transfer. The
// marketplace address it carries is deployment metadata, not an
// authorization record.
type Service struct {
	store              storage.Store
	address            string
	marketplaceAddress string
}

func NewService(store storage.Store, address, marketplaceAddress string) *Service {
	return &Service{store: store, address: address, marketplaceAddress: marketplaceAddress}
}

func (s *Service) Address() string {
	return s.address
}

func (s *Service) MarketplaceAddress() string {
	return s.marketplaceAddress
}

// Mint registers a new asset with the caller as creator and first holder.
func (s *Service) Mint(ctx context.Context, caller, metadataURI string) (*entity.Asset, error) {
	if strings.TrimSpace(metadataURI) == "" {
		return nil, entity.ErrInvalidURI
	}

	asset := &entity.Asset{
		Creator:     caller,
		Holder:      caller,
		MetadataURI: metadataURI,
		CreatedAt:   time.Now(),
	}
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		_, err := tx.CreateAsset(asset)

		return err
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("token minted",
		zap.Int64("token_id", asset.TokenID),
		zap.String("creator", caller),
		zap.String("metadata_uri", metadataURI))

	return asset, nil
}

// Transfer moves tokenID from `from` to `to`. The caller must be the
// holder or an approved operator of the holder.
func (s *Service) Transfer(ctx context.Context, caller, from, to string, tokenID int64) error {
	if !entity.ValidAddress(to) {
		return entity.ErrInvalidAddress
	}

	return s.store.WithTx(ctx, func(tx storage.Tx) error {
		return ApplyTransfer(tx, caller, from, to, tokenID)
	})
}

// SetApprovalForAll grants or revokes operator rights over all of the
// caller's assets.
func (s *Service) SetApprovalForAll(ctx context.Context, owner, operator string, approved bool) error {
	if !entity.ValidAddress(operator) {
		return entity.ErrInvalidAddress
	}

	return s.store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.SetOperator(owner, operator, approved)
	})
}

// OwnedBy is a point-in-time snapshot of tokens currently held by addr.
func (s *Service) OwnedBy(ctx context.Context, addr string) ([]entity.Asset, error) {
	var out []entity.Asset
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.AssetsByHolder(addr)

		return err
	})

	return out, err
}

// CreatedBy lists tokens minted by addr regardless of current holder.
func (s *Service) CreatedBy(ctx context.Context, addr string) ([]entity.Asset, error) {
	var out []entity.Asset
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.AssetsByCreator(addr)

		return err
	})

	return out, err
}

// CreatorOf returns the original minter of tokenID.
func (s *Service) CreatorOf(ctx context.Context, tokenID int64) (string, error) {
	var creator string
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		asset, err := tx.AssetByID(tokenID)
		if err != nil {
			return err
		}
		creator = asset.Creator

		return nil
	})

	return creator, err
}

// ApplyTransfer performs the holder change inside an open transaction.
// The marketplace escrow pulls and releases custody through this routine.
func ApplyTransfer(tx storage.Tx, caller, from, to string, tokenID int64) error {
	asset, err := tx.AssetByID(tokenID)
	if err != nil {
		return err
	}
	if !entity.SameAddress(asset.Holder, from) {
		return entity.ErrNotOwnerOrApproved
	}
	if !entity.SameAddress(caller, asset.Holder) {
		approved, err := tx.OperatorApproved(asset.Holder, caller)
		if err != nil {
			return err
		}
		if !approved {
			return entity.ErrNotOwnerOrApproved
		}
	}

	return tx.SetAssetHolder(tokenID, to)
}
