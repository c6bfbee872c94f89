package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"tours_manager/internal/app"
	"tours_manager/internal/domain"
)

func TestReviewsForTour_CacheMissThenHit(t *testing.T) {
	w := newWorld(t)
	w.review(t, w.tour, w.traveler, 4)
	ctx := context.Background()

	// Miss (first time, populates cache)
	rs, err := w.query.ReviewsForTour(ctx, w.tour.ID)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(rs) != 1 || rs[0].AuthorUsername != "alice" {
		t.Fatalf("unexpected reviews: %+v", rs)
	}

	// Write behind the service's back; the second read must come from cache
	w.review(t, w.tour, w.other, 2)
	rs2, err := w.query.ReviewsForTour(ctx, w.tour.ID)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(rs2) != 1 {
		t.Fatalf("expected cached reviews, got %d", len(rs2))
	}
}

func TestReviewsForTour_NoCache(t *testing.T) {
	w := newWorld(t)
	q := app.NewQueryService(w.store, nil, time.Minute)
	w.review(t, w.tour, w.traveler, 4)
	rs, err := q.ReviewsForTour(context.Background(), w.tour.ID)
	if err != nil || len(rs) != 1 {
		t.Fatalf("uncached read: %v %+v", err, rs)
	}
}

func TestTours_Filters(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	otherCity := domain.City{ID: uuid.New(), Name: "Kazan", CountryID: uuid.New()}
	w.store.AddCity(otherCity)
	stop := domain.Address{ID: uuid.New(), CityID: otherCity.ID, Street: "Baumana", HouseNumber: "5"}
	w.store.AddAddress(stop)
	// starts in Moscow, visits Kazan
	elsewhere := domain.Tour{ID: uuid.New(), Name: "Kremlin", AgencyID: w.agency.ID, StartingCityID: w.tour.StartingCityID, AddressIDs: []uuid.UUID{stop.ID}}
	w.store.AddTour(elsewhere)

	tours, byTour, err := w.query.Tours(ctx, domain.TourFilter{CountryID: &otherCity.CountryID})
	if err != nil {
		t.Fatalf("tours: %v", err)
	}
	if len(tours) != 1 || tours[0].ID != elsewhere.ID {
		t.Fatalf("country filter: %+v", tours)
	}
	if _, ok := byTour[elsewhere.ID]; !ok {
		t.Fatalf("reviews map missing the tour")
	}

	tours, _, _ = w.query.Tours(ctx, domain.TourFilter{StartingCityID: &otherCity.ID})
	if len(tours) != 0 {
		t.Fatalf("city filter: %+v", tours)
	}
	tours, _, _ = w.query.Tours(ctx, domain.TourFilter{StartingCityID: &w.tour.StartingCityID})
	if len(tours) != 2 {
		t.Fatalf("city filter: %+v", tours)
	}
}
