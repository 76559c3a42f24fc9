package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/John840001/decentroz/internal/config"
	"github.com/John840001/decentroz/internal/entity"
	"github.com/John840001/decentroz/internal/storage"
	"github.com/John840001/decentroz/internal/storage/postgres"
)

func main() {
	address := flag.String("address", "", "Address of the new credit token admin")
	flag.Parse()

	if !entity.ValidAddress(*address) {
		log.Fatalf("usage: go run cmd/adminutil/transferadmin/main.go -address 0x<40 hex chars>")
	}

	config.Init()
	cfg := config.Get()

	ctx := context.Background()

	store, err := postgres.New(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	var previous string
	err = store.WithTx(ctx, func(tx storage.Tx) error {
		st, err := tx.TokenState()
		if err != nil {
			return err
		}

		previous = st.Admin
		st.Admin = *address

		return tx.SetTokenState(st)
	})
	if err != nil {
		log.Fatalf("failed to transfer token admin: %v", err)
	}

	fmt.Printf("Credit token admin transferred from %s to %s.\n", previous, *address)
}
