package postgres

import (
	"context"
	"fmt"
)

// ensureSchema creates any missing tables. Statements are idempotent so
// startup is safe against an already-provisioned database.
func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			address TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS wallets (
			address TEXT PRIMARY KEY,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			address TEXT NOT NULL,
			rail TEXT NOT NULL CHECK (rail IN ('native', 'token')),
			direction TEXT NOT NULL CHECK (direction IN ('credit', 'debit')),
			amount BIGINT NOT NULL,
			reason TEXT NOT NULL,
			reference TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_address_created
			ON transactions (address, created_at)`,
		`CREATE TABLE IF NOT EXISTS token_state (
			id INT PRIMARY KEY CHECK (id = 1),
			admin TEXT NOT NULL,
			total_supply BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS token_balances (
			address TEXT PRIMARY KEY,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS token_allowances (
			owner TEXT NOT NULL,
			spender TEXT NOT NULL,
			amount BIGINT NOT NULL DEFAULT 0 CHECK (amount >= 0),
			PRIMARY KEY (owner, spender)
		)`,
		`CREATE TABLE IF NOT EXISTS assets (
			token_id BIGSERIAL PRIMARY KEY,
			creator TEXT NOT NULL,
			holder TEXT NOT NULL,
			metadata_uri TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assets_holder ON assets (holder)`,
		`CREATE INDEX IF NOT EXISTS idx_assets_creator ON assets (creator)`,
		`CREATE TABLE IF NOT EXISTS asset_operators (
			owner TEXT NOT NULL,
			operator TEXT NOT NULL,
			approved BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (owner, operator)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			address TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			is_buyer BOOLEAN NOT NULL DEFAULT FALSE,
			is_seller BOOLEAN NOT NULL DEFAULT FALSE,
			total_assets_created BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS listings (
			id BIGSERIAL PRIMARY KEY,
			asset_contract TEXT NOT NULL,
			token_id BIGINT NOT NULL,
			creator TEXT NOT NULL,
			seller TEXT NOT NULL,
			owner TEXT NOT NULL DEFAULT '',
			price BIGINT NOT NULL CHECK (price > 0),
			sold BOOLEAN NOT NULL DEFAULT FALSE,
			canceled BOOLEAN NOT NULL DEFAULT FALSE,
			custody TEXT NOT NULL CHECK (custody IN ('escrowed', 'returned', 'transferred')),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			CHECK (NOT (sold AND canceled))
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_listings_active_token
			ON listings (token_id) WHERE NOT sold AND NOT canceled`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}
