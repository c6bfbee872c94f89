package app

import (
	"github.com/google/uuid"

	"tours_manager/internal/domain"
)

// Card is one tour or agency on a listing page with its aggregated rating.
type Card[T any] struct {
	Item   T       `json:"item"`
	Rating float64 `json:"rating"`
}

type CardsBlock[T any] struct {
	Items []Card[T]  `json:"items"`
	Pages PageWindow `json:"pages"`
}

// Cards paginates tour and agency collections. Caller order is kept.
type Cards struct {
	paging PagingConfig
}

func NewCards(p PagingConfig) Cards { return Cards{paging: p} }

func (c Cards) Tours(tours []domain.Tour, reviewsByTour map[uuid.UUID][]domain.Review, page int) CardsBlock[domain.Tour] {
	return buildCards(tours, c.paging.ToursPerPage, page, c.paging, func(t domain.Tour) float64 {
		return TourRating(t, reviewsByTour[t.ID])
	})
}

func (c Cards) Agencies(agencies []domain.Agency, reviewsByAgency map[uuid.UUID][]domain.Review, page int) CardsBlock[domain.Agency] {
	return buildCards(agencies, c.paging.AgenciesPerPage, page, c.paging, func(a domain.Agency) float64 {
		return AgencyRating(a, reviewsByAgency[a.ID])
	})
}

func buildCards[T any](items []T, perPage, page int, cfg PagingConfig, rate func(T) float64) CardsBlock[T] {
	pager := NewPaginator(items, perPage)
	onPage := pager.Page(page)
	out := make([]Card[T], 0, len(onPage))
	for _, it := range onPage {
		out = append(out, Card[T]{Item: it, Rating: rate(it)})
	}
	return CardsBlock[T]{Items: out, Pages: cfg.window(page, pager.NumPages())}
}
