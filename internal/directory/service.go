package directory

import (
	"context"
	"errors"
	"time"

	"github.com/John840001/decentroz/internal/entity"
	"github.com/John840001/decentroz/internal/storage"
)

// Service keeps one profile per participant address. Registration happens
// at most once; every update requires an existing record.
type Service struct {
	store storage.Store
}

func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

func (s *Service) Register(ctx context.Context, addr, name, description string, isBuyer, isSeller bool) error {
	return s.store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.CreateUser(&entity.UserRecord{
			Address:     addr,
			Name:        name,
			Description: description,
			IsBuyer:     isBuyer,
			IsSeller:    isSeller,
			CreatedAt:   time.Now(),
		})
	})
}

func (s *Service) UpdateDetails(ctx context.Context, addr, name, description string) error {
	return s.update(ctx, addr, func(u *entity.UserRecord) {
		u.Name = name
		u.Description = description
	})
}

func (s *Service) UpdateRole(ctx context.Context, addr string, isBuyer, isSeller bool) error {
	return s.update(ctx, addr, func(u *entity.UserRecord) {
		u.IsBuyer = isBuyer
		u.IsSeller = isSeller
	})
}

// IncrementAssets bumps the lifetime mint counter. The registry mint flow
// calls this as a side effect; the counter never decreases.
func (s *Service) IncrementAssets(ctx context.Context, addr string) error {
	return s.update(ctx, addr, func(u *entity.UserRecord) {
		u.TotalAssetsCreated++
	})
}

func (s *Service) update(ctx context.Context, addr string, mutate func(*entity.UserRecord)) error {
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		u, err := tx.UserByAddress(addr)
		if err != nil {
			return err
		}
		mutate(u)

		return tx.SaveUser(u)
	})
	if errors.Is(err, entity.ErrNotFound) {
		return entity.ErrNotRegistered
	}

	return err
}

// Details returns the profile for addr, or a zero-valued record when the
// address was never registered. The registered flag is the sentinel
// callers use to tell an empty profile from a missing one.
func (s *Service) Details(ctx context.Context, addr string) (*entity.UserRecord, bool, error) {
	var (
		record     *entity.UserRecord
		registered bool
	)
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		u, err := tx.UserByAddress(addr)
		if errors.Is(err, entity.ErrNotFound) {
			record = &entity.UserRecord{Address: addr}

			return nil
		}
		if err != nil {
			return err
		}
		record = u
		registered = true

		return nil
	})

	return record, registered, err
}
