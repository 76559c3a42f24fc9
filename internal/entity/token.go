package entity

// TokenState is the singleton control record of the credit token: the one
// principal allowed to mint, and the running supply.
type TokenState struct {
	Admin       string `json:"admin"`
	TotalSupply int64  `json:"total_supply"`
}
