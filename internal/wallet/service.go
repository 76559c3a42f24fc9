package wallet

import (
	"context"

	"github.com/John840001/decentroz/internal/entity"
	"github.com/John840001/decentroz/internal/storage"
)

// Service holds native-currency balances. Topups are the funding boundary
// (the payment-provider side is external); settlements debit and credit
// these balances on the native rail.
type Service struct {
	store storage.Store
}

func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

func (s *Service) Balance(ctx context.Context, addr string) (int64, error) {
	var balance int64
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		balance, err = tx.WalletBalance(addr)

		return err
	})

	return balance, err
}

func (s *Service) Topup(ctx context.Context, addr string, amount int64) error {
	if amount <= 0 {
		return entity.ErrInvalidAmount
	}

	return s.store.WithTx(ctx, func(tx storage.Tx) error {
		if err := ApplyCredit(tx, addr, amount); err != nil {
			return err
		}

		return tx.AppendAudit(entity.NewAudit(addr, entity.RailNative, entity.DirectionCredit, amount, "topup", ""))
	})
}

func (s *Service) Withdraw(ctx context.Context, addr string, amount int64) error {
	if amount <= 0 {
		return entity.ErrInvalidAmount
	}

	return s.store.WithTx(ctx, func(tx storage.Tx) error {
		if err := ApplyDebit(tx, addr, amount); err != nil {
			return err
		}

		return tx.AppendAudit(entity.NewAudit(addr, entity.RailNative, entity.DirectionDebit, amount, "withdrawal", ""))
	})
}

func (s *Service) Transactions(ctx context.Context, addr string) ([]entity.AuditEntry, error) {
	var out []entity.AuditEntry
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.AuditByAddress(addr)

		return err
	})

	return out, err
}

// ApplyDebit removes native funds inside an open transaction, aborting it
// on a shortfall.
func ApplyDebit(tx storage.Tx, addr string, amount int64) error {
	balance, err := tx.WalletBalance(addr)
	if err != nil {
		return err
	}
	if balance < amount {
		return entity.ErrInsufficientFunds
	}

	return tx.SetWalletBalance(addr, balance-amount)
}

// ApplyCredit adds native funds inside an open transaction.
func ApplyCredit(tx storage.Tx, addr string, amount int64) error {
	balance, err := tx.WalletBalance(addr)
	if err != nil {
		return err
	}

	return tx.SetWalletBalance(addr, balance+amount)
}
