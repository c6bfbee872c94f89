package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tours_manager/internal/domain"
)

type QueryService struct {
	repo     domain.Store
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.Store, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func tourReviewsKey(id uuid.UUID) string   { return fmt.Sprintf("reviews:tour:%s", id) }
func agencyReviewsKey(id uuid.UUID) string { return fmt.Sprintf("reviews:agency:%s", id) }

func (s *QueryService) Tour(ctx context.Context, id uuid.UUID) (domain.Tour, error) {
	return s.repo.GetTour(ctx, id)
}

func (s *QueryService) Account(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	return s.repo.GetAccount(ctx, id)
}

func (s *QueryService) AccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	return s.repo.GetAccountByUsername(ctx, username)
}

func (s *QueryService) ReviewsForTour(ctx context.Context, tourID uuid.UUID) ([]domain.Review, error) {
	return s.cached(ctx, tourReviewsKey(tourID), func() ([]domain.Review, error) {
		return s.repo.FindReviewsForTour(ctx, tourID)
	})
}

func (s *QueryService) ReviewsForAgency(ctx context.Context, agencyID uuid.UUID) ([]domain.Review, error) {
	return s.cached(ctx, agencyReviewsKey(agencyID), func() ([]domain.Review, error) {
		return s.repo.FindReviewsForAgency(ctx, agencyID)
	})
}

// ReviewsByAccount is not cached: it backs the "my reviews" list whose
// entries the same viewer mutates.
func (s *QueryService) ReviewsByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Review, error) {
	return s.repo.FindReviewsByAccount(ctx, accountID)
}

// Tours loads the filtered tours with every tour's reviews.
func (s *QueryService) Tours(ctx context.Context, f domain.TourFilter) ([]domain.Tour, map[uuid.UUID][]domain.Review, error) {
	tours, err := s.repo.ListTours(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	byTour := make(map[uuid.UUID][]domain.Review, len(tours))
	for _, t := range tours {
		rs, err := s.ReviewsForTour(ctx, t.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("reviews for tour %s: %w", t.ID, err)
		}
		byTour[t.ID] = rs
	}
	return tours, byTour, nil
}

// Agencies loads the filtered agencies with the reviews of all their tours.
func (s *QueryService) Agencies(ctx context.Context, f domain.AgencyFilter) ([]domain.Agency, map[uuid.UUID][]domain.Review, error) {
	agencies, err := s.repo.ListAgencies(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	byAgency := make(map[uuid.UUID][]domain.Review, len(agencies))
	for _, a := range agencies {
		rs, err := s.ReviewsForAgency(ctx, a.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("reviews for agency %s: %w", a.ID, err)
		}
		byAgency[a.ID] = rs
	}
	return agencies, byAgency, nil
}

func (s *QueryService) AgencyRequests(ctx context.Context) ([]domain.AgencyRequest, error) {
	return s.repo.ListAgencyRequests(ctx)
}

func (s *QueryService) cached(ctx context.Context, key string, load func() ([]domain.Review, error)) ([]domain.Review, error) {
	if s.cache != nil {
		var out []domain.Review
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}
	rs, err := load()
	if err != nil {
		return nil, err
	}
	// copy so later mutations of the caller's slice never reach the cache
	out := make([]domain.Review, len(rs))
	copy(out, rs)
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}
