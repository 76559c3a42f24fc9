package credit

import (
	"context"

	"go.uber.org/zap"

	"github.com/John840001/decentroz/internal/entity"
	"github.com/John840001/decentroz/internal/storage"
)

const (
	Name   = "Decentroz"
	Symbol = "DCZ"
)

// Service is the fungible credit ledger. A single mutable admin may mint;
// everything else is standard transfer/approve semantics.
type Service struct {
	store   storage.Store
	address string
}

func NewService(store storage.Store, address string) *Service {
	return &Service{store: store, address: address}
}

// Address is the fixed deployment address of the token.
func (s *Service) Address() string {
	return s.address
}

// Bootstrap creates the token control record on first start. An existing
// record is left alone, so the configured initial admin never clobbers a
// handoff done through SetAdmin.
func (s *Service) Bootstrap(ctx context.Context, admin string) error {
	return s.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.TokenState(); err == nil {
			return nil
		}
		zap.L().Info("initializing credit token state", zap.String("admin", admin))

		return tx.SetTokenState(&entity.TokenState{Admin: admin})
	})
}

func (s *Service) Info(ctx context.Context) (*entity.TokenState, error) {
	var state *entity.TokenState
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		state, err = tx.TokenState()

		return err
	})

	return state, err
}

func (s *Service) Mint(ctx context.Context, caller, to string, amount int64) error {
	if !entity.ValidAddress(to) {
		return entity.ErrInvalidAddress
	}
	if amount <= 0 {
		return entity.ErrInvalidAmount
	}

	return s.store.WithTx(ctx, func(tx storage.Tx) error {
		state, err := tx.TokenState()
		if err != nil {
			return err
		}
		if !entity.SameAddress(caller, state.Admin) {
			return entity.ErrUnauthorized
		}

		balance, err := tx.TokenBalance(to)
		if err != nil {
			return err
		}
		if err = tx.SetTokenBalance(to, balance+amount); err != nil {
			return err
		}

		state.TotalSupply += amount
		if err = tx.SetTokenState(state); err != nil {
			return err
		}

		return tx.AppendAudit(entity.NewAudit(to, entity.RailToken, entity.DirectionCredit, amount, "mint", ""))
	})
}

func (s *Service) SetAdmin(ctx context.Context, caller, newAdmin string) error {
	if !entity.ValidAddress(newAdmin) {
		return entity.ErrInvalidAddress
	}

	return s.store.WithTx(ctx, func(tx storage.Tx) error {
		state, err := tx.TokenState()
		if err != nil {
			return err
		}
		if !entity.SameAddress(caller, state.Admin) {
			return entity.ErrUnauthorized
		}

		state.Admin = newAdmin

		return tx.SetTokenState(state)
	})
}

func (s *Service) Transfer(ctx context.Context, from, to string, amount int64) error {
	if !entity.ValidAddress(to) {
		return entity.ErrInvalidAddress
	}
	if amount <= 0 {
		return entity.ErrInvalidAmount
	}

	return s.store.WithTx(ctx, func(tx storage.Tx) error {
		if err := ApplyTransfer(tx, from, to, amount); err != nil {
			return err
		}
		if err := tx.AppendAudit(entity.NewAudit(from, entity.RailToken, entity.DirectionDebit, amount, "transfer", "")); err != nil {
			return err
		}

		return tx.AppendAudit(entity.NewAudit(to, entity.RailToken, entity.DirectionCredit, amount, "transfer", ""))
	})
}

func (s *Service) Approve(ctx context.Context, owner, spender string, amount int64) error {
	if !entity.ValidAddress(spender) {
		return entity.ErrInvalidAddress
	}
	if amount < 0 {
		return entity.ErrInvalidAmount
	}

	return s.store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.SetTokenAllowance(owner, spender, amount)
	})
}

func (s *Service) TransferFrom(ctx context.Context, spender, from, to string, amount int64) error {
	if !entity.ValidAddress(from) || !entity.ValidAddress(to) {
		return entity.ErrInvalidAddress
	}
	if amount <= 0 {
		return entity.ErrInvalidAmount
	}

	return s.store.WithTx(ctx, func(tx storage.Tx) error {
		if err := ApplyTransferFrom(tx, spender, from, to, amount); err != nil {
			return err
		}
		if err := tx.AppendAudit(entity.NewAudit(from, entity.RailToken, entity.DirectionDebit, amount, "transfer_from", "")); err != nil {
			return err
		}

		return tx.AppendAudit(entity.NewAudit(to, entity.RailToken, entity.DirectionCredit, amount, "transfer_from", ""))
	})
}

func (s *Service) BalanceOf(ctx context.Context, addr string) (int64, error) {
	var balance int64
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		balance, err = tx.TokenBalance(addr)

		return err
	})

	return balance, err
}

func (s *Service) Allowance(ctx context.Context, owner, spender string) (int64, error) {
	var amount int64
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		amount, err = tx.TokenAllowance(owner, spender)

		return err
	})

	return amount, err
}

// ApplyTransfer moves balance between two holders inside an open
// transaction. The whole transaction aborts on a shortfall. The credit
// side re-reads after the debit so a transfer to oneself nets to zero
// instead of committing a stale balance.
func ApplyTransfer(tx storage.Tx, from, to string, amount int64) error {
	fromBalance, err := tx.TokenBalance(from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return entity.ErrInsufficientBalance
	}
	if err = tx.SetTokenBalance(from, fromBalance-amount); err != nil {
		return err
	}

	toBalance, err := tx.TokenBalance(to)
	if err != nil {
		return err
	}

	return tx.SetTokenBalance(to, toBalance+amount)
}

// ApplyTransferFrom is the delegated variant: it consumes the spender's
// allowance and the owner's balance atomically. The marketplace settlement
// pulls token payments through this same routine, so there is exactly one
// place the allowance check lives.
func ApplyTransferFrom(tx storage.Tx, spender, from, to string, amount int64) error {
	allowance, err := tx.TokenAllowance(from, spender)
	if err != nil {
		return err
	}
	if allowance < amount {
		return entity.ErrInsufficientAllowance
	}
	if err = ApplyTransfer(tx, from, to, amount); err != nil {
		return err
	}

	return tx.SetTokenAllowance(from, spender, allowance-amount)
}
