package market

import (
	"github.com/John840001/decentroz/internal/credit"
	"github.com/John840001/decentroz/internal/entity"
	"github.com/John840001/decentroz/internal/storage"
	"github.com/John840001/decentroz/internal/wallet"
)

// Payment is the rail the buyer settles on, resolved at purchase time.
// Native payments are pushed with the call; token payments are pulled
// through a pre-approved allowance. Both feed the same settle routine so
// the atomicity logic exists once.
type Payment interface {
	// collect moves the purchase price from the buyer: seller gets the
	// price minus fee, the operator gets the fee. Runs inside the
	// settlement transaction; any failure aborts the whole sale.
	collect(tx storage.Tx, l *entity.Listing, buyer, operator string, fee int64) error
	rail() string
}

// NativePayment is an exact-amount payment attached to the purchase call.
// Over- and under-payment are rejected; no change is refunded.
type NativePayment struct {
	Amount int64
}

func (p NativePayment) rail() string { return entity.RailNative }

func (p NativePayment) collect(tx storage.Tx, l *entity.Listing, buyer, operator string, fee int64) error {
	if p.Amount != l.Price {
		return entity.ErrWrongPaymentAmount
	}
	if err := wallet.ApplyDebit(tx, buyer, l.Price); err != nil {
		return err
	}
	if err := wallet.ApplyCredit(tx, l.Seller, l.Price-fee); err != nil {
		return err
	}
	if fee > 0 {
		return wallet.ApplyCredit(tx, operator, fee)
	}

	return nil
}

// TokenPayment pulls the price from the buyer's credit token balance via
// the allowance previously granted to the marketplace. Balance and
// allowance shortfalls surface from the token's own checks.
type TokenPayment struct {
	Spender string // the marketplace address holding the allowance
}

func (p TokenPayment) rail() string { return entity.RailToken }

func (p TokenPayment) collect(tx storage.Tx, l *entity.Listing, buyer, operator string, fee int64) error {
	if err := credit.ApplyTransferFrom(tx, p.Spender, buyer, l.Seller, l.Price-fee); err != nil {
		return err
	}
	if fee > 0 {
		return credit.ApplyTransferFrom(tx, p.Spender, buyer, operator, fee)
	}

	return nil
}
