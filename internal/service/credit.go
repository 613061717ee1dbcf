package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tanjiaxian99/nusfitness-api/internal/metrics"
	"github.com/tanjiaxian99/nusfitness-api/internal/repository"
)

// CreditStore is satisfied by repository.CreditRepo.
type CreditStore interface {
	Get(ctx context.Context, email string) (int, error)
	Decrement(ctx context.Context, email string) error
	ResetAll(ctx context.Context, credits int) (int64, error)
}

// CreditService manages the weekly booking allowance.  Consuming a credit
// is independent of booking; clients call both.
type CreditService struct {
	store    CreditStore
	defaults int
	metrics  metrics.Recorder
	log      zerolog.Logger
}

func NewCreditService(store CreditStore, defaultCredits int, m metrics.Recorder, log zerolog.Logger) *CreditService {
	return &CreditService{
		store:    store,
		defaults: defaultCredits,
		metrics:  m,
		log:      log.With().Str("component", "credits").Logger(),
	}
}

// Remaining returns id's balance.  An identity without a balance is
// treated as unauthorized.
func (s *CreditService) Remaining(ctx context.Context, id Identity) (int, error) {
	n, err := s.store.Get(ctx, id.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, ErrUnauthorized
	}
	if err != nil {
		return 0, fmt.Errorf("get credits: %w", err)
	}
	return n, nil
}

// Consume takes one credit.  The balance never goes below zero.
func (s *CreditService) Consume(ctx context.Context, id Identity) error {
	n, err := s.Remaining(ctx, id)
	if err != nil {
		s.metrics.IncCreditsConsumed("error")
		return err
	}
	if n <= 0 {
		s.metrics.IncCreditsConsumed("none_left")
		return ErrNoCreditsLeft
	}
	if err := s.store.Decrement(ctx, id.Email); err != nil {
		if errors.Is(err, repository.ErrNoCredits) {
			s.metrics.IncCreditsConsumed("none_left")
			return ErrNoCreditsLeft
		}
		s.metrics.IncCreditsConsumed("error")
		return fmt.Errorf("decrement credits: %w", err)
	}
	s.metrics.IncCreditsConsumed("ok")
	return nil
}

// ResetAll restores every balance to the default allowance.
func (s *CreditService) ResetAll(ctx context.Context) error {
	n, err := s.store.ResetAll(ctx, s.defaults)
	if err != nil {
		return fmt.Errorf("reset credits: %w", err)
	}
	s.log.Info().Int64("balances", n).Int("credits", s.defaults).Msg("credits reset")
	return nil
}
