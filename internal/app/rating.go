package app

import (
	"math"

	"tours_manager/internal/domain"
)

// Mean is the average rating rounded to two decimals, 0 when there are no reviews.
func Mean(reviews []domain.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(sum/float64(len(reviews))*100) / 100
}

// TravelerReviews drops reviews written by agency accounts. An account can
// become an agency after reviewing; such reviews stay stored but no longer count.
func TravelerReviews(reviews []domain.Review) []domain.Review {
	out := make([]domain.Review, 0, len(reviews))
	for _, r := range reviews {
		if !r.AuthorIsAgency {
			out = append(out, r)
		}
	}
	return out
}

// TourRating aggregates the traveler reviews of one tour. Reviews of other
// tours in the input are ignored.
func TourRating(t domain.Tour, reviews []domain.Review) float64 {
	own := make([]domain.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.TourID == t.ID {
			own = append(own, r)
		}
	}
	return Mean(TravelerReviews(own))
}

// AgencyRating aggregates the traveler reviews across all tours of an agency.
func AgencyRating(a domain.Agency, reviews []domain.Review) float64 {
	scoped := make([]domain.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.AgencyID == a.ID {
			scoped = append(scoped, r)
		}
	}
	return Mean(TravelerReviews(scoped))
}

// Ratings lists the raw traveler ratings of a tour for the rating widget.
func Ratings(reviews []domain.Review) []float64 {
	out := make([]float64, 0, len(reviews))
	for _, r := range TravelerReviews(reviews) {
		out = append(out, r.Rating)
	}
	return out
}
