package entity

import "time"

// UserRecord is a directory profile. One per address, registered once.
type UserRecord struct {
	Address            string    `json:"address"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	IsBuyer            bool      `json:"is_buyer"`
	IsSeller           bool      `json:"is_seller"`
	TotalAssetsCreated int64     `json:"total_assets_created"`
	CreatedAt          time.Time `json:"created_at"`
}
