package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

var (
	cardNumberPattern = regexp.MustCompile(`^[0-9]{12,19}$`)
	cardExpiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
)

// CardService manages saved payment cards. Full card numbers are never
// stored.
type CardService struct {
	repo ports.CardRepository
	log  zerolog.Logger
}

var _ ports.CardService = (*CardService)(nil)

func NewCardService(repo ports.CardRepository, log zerolog.Logger) *CardService {
	return &CardService{repo: repo, log: log}
}

func (s *CardService) AddCard(ctx context.Context, in ports.AddCardInput) (*domain.Card, error) {
	if in.AccountID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	number := strings.NewReplacer(" ", "", "-", "").Replace(in.Number)
	holder := strings.TrimSpace(in.HolderName)
	expiry := strings.TrimSpace(in.Expiry)
	if holder == "" || !cardNumberPattern.MatchString(number) || !cardExpiryPattern.MatchString(expiry) {
		return nil, domain.ErrInvalidCard
	}

	card := &domain.Card{
		AccountID:  in.AccountID,
		HolderName: holder,
		Brand:      domain.DetectBrand(number),
		Last4:      number[len(number)-4:],
		Expiry:     expiry,
		CreatedAt:  time.Now().UTC(),
	}
	created, err := s.repo.Insert(ctx, card)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("account_id", in.AccountID).
		Str("card_id", created.ID).
		Str("brand", string(created.Brand)).
		Msg("card added")
	return created, nil
}

func (s *CardService) ListCards(ctx context.Context, accountID string) ([]domain.Card, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// RemoveCard deletes one of the caller's cards. Cards of other accounts
// report domain.ErrCardNotFound.
func (s *CardService) RemoveCard(ctx context.Context, accountID, cardID string) error {
	return s.repo.Delete(ctx, accountID, cardID)
}
