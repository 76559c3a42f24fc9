package entity

import "time"

// Custody states of the escrowed asset. Recorded explicitly on the listing
// so custody never has to be inferred from "holder == marketplace".
const (
	CustodyEscrowed    = "escrowed"
	CustodyReturned    = "returned"
	CustodyTransferred = "transferred"
)

// Listing is one sale attempt. Sold and Canceled are each set at most once
// and never together; a listing with neither set is active.
type Listing struct {
	ID            int64     `json:"listing_id"`
	AssetContract string    `json:"asset_contract"`
	TokenID       int64     `json:"token_id"`
	Creator       string    `json:"creator"`
	Seller        string    `json:"seller"`
	Owner         string    `json:"owner,omitempty"`
	Price         int64     `json:"price"`
	Sold          bool      `json:"sold"`
	Canceled      bool      `json:"canceled"`
	Custody       string    `json:"custody"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Active reports whether the listing can still be bought or canceled.
func (l *Listing) Active() bool {
	return !l.Sold && !l.Canceled
}
