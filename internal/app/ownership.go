package app

import "tours_manager/internal/domain"

// ReviewSlot is one position of a reviews list: either an existing review or
// the empty slot where the viewer can write theirs.
type ReviewSlot struct {
	review *domain.Review
}

func Existing(r domain.Review) ReviewSlot { return ReviewSlot{review: &r} }

func EmptySlot() ReviewSlot { return ReviewSlot{} }

func (s ReviewSlot) IsEmpty() bool { return s.review == nil }

// Review returns the slot's review; ok is false for the empty slot.
func (s ReviewSlot) Review() (domain.Review, bool) {
	if s.review == nil {
		return domain.Review{}, false
	}
	return *s.review, true
}

// FindOwned returns the first review written by viewer.
func FindOwned(reviews []domain.Review, viewer *domain.Account) (domain.Review, bool) {
	if viewer == nil {
		return domain.Review{}, false
	}
	for _, r := range reviews {
		if r.WrittenBy(viewer) {
			return r, true
		}
	}
	return domain.Review{}, false
}

// ArrangeSlots wraps reviews into slots and puts the viewer's review first.
// A signed-in traveler without a review gets an empty slot at the head instead.
// Must run before pagination so the head lands on page 1.
func ArrangeSlots(reviews []domain.Review, viewer *domain.Account) []ReviewSlot {
	slots := make([]ReviewSlot, 0, len(reviews)+1)
	owned, ok := FindOwned(reviews, viewer)
	switch {
	case ok:
		slots = append(slots, Existing(owned))
		for _, r := range reviews {
			if r.ID != owned.ID {
				slots = append(slots, Existing(r))
			}
		}
		return slots
	case viewer != nil && viewer.CanReview():
		slots = append(slots, EmptySlot())
	}
	for _, r := range reviews {
		slots = append(slots, Existing(r))
	}
	return slots
}

// PlainSlots wraps reviews without any reordering.
func PlainSlots(reviews []domain.Review) []ReviewSlot {
	slots := make([]ReviewSlot, 0, len(reviews))
	for _, r := range reviews {
		slots = append(slots, Existing(r))
	}
	return slots
}
