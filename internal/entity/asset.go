package entity

import "time"

// Asset is a registered NFT. Creator never changes after mint; Holder
// changes on every transfer, including escrow custody and settlement.
type Asset struct {
	TokenID     int64     `json:"token_id"`
	Creator     string    `json:"creator"`
	Holder      string    `json:"holder"`
	MetadataURI string    `json:"metadata_uri"`
	CreatedAt   time.Time `json:"created_at"`
}
