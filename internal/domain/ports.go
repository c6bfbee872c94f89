package domain

import (
	"context"

	"github.com/google/uuid"
)

type ReviewRepository interface {
	// Read paths. Results are fully materialized, oldest first.
	FindReviewsForTour(ctx context.Context, tourID uuid.UUID) ([]Review, error)
	FindReviewsForAgency(ctx context.Context, agencyID uuid.UUID) ([]Review, error)
	FindReviewsByAccount(ctx context.Context, accountID uuid.UUID) ([]Review, error)

	// Write paths. CreateReview returns ErrDuplicateReview when the (tour, account) pair exists.
	CreateReview(ctx context.Context, r Review) error
	UpdateReview(ctx context.Context, r Review) error
	DeleteReview(ctx context.Context, id uuid.UUID) error
}

type CatalogRepository interface {
	GetTour(ctx context.Context, id uuid.UUID) (Tour, error)
	GetCity(ctx context.Context, id uuid.UUID) (City, error)
	ListTours(ctx context.Context, f TourFilter) ([]Tour, error)
	ListAgencies(ctx context.Context, f AgencyFilter) ([]Agency, error)
	UpsertCountries(ctx context.Context, cs []Country) error
}

type AccountRepository interface {
	GetAccount(ctx context.Context, id uuid.UUID) (Account, error)
	GetAccountByUsername(ctx context.Context, username string) (Account, error)
}

type AgencyRequestRepository interface {
	ListAgencyRequests(ctx context.Context) ([]AgencyRequest, error)
	FindAgencyRequestByAccount(ctx context.Context, accountID uuid.UUID) (AgencyRequest, error)
	// SubmitAgencyRequest stores the address, the proposed agency and the request
	// atomically. An address in an unknown city yields ErrUnknownReference.
	SubmitAgencyRequest(ctx context.Context, addr Address, ag Agency, req AgencyRequest) error
	// AcceptAgencyRequest links the account to the agency and drops the request.
	AcceptAgencyRequest(ctx context.Context, req AgencyRequest) error
	// DeclineAgencyRequest drops the proposed agency together with the request.
	DeclineAgencyRequest(ctx context.Context, req AgencyRequest) error
}

// Store is everything a page view needs from persistence.
type Store interface {
	ReviewRepository
	CatalogRepository
	AccountRepository
	AgencyRequestRepository
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

// Queries

type TourFilter struct {
	StartingCityID *uuid.UUID
	CountryID      *uuid.UUID
	AgencyID       *uuid.UUID
}

type AgencyFilter struct {
	CityID *uuid.UUID
	// only agencies that have a managing account
	WithAccountOnly bool
}
