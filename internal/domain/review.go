package domain

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	TourID    uuid.UUID  `db:"tour_id" json:"tour_id"`
	AccountID uuid.UUID  `db:"account_id" json:"account_id"`
	Rating    float64    `db:"rating" json:"rating"`
	Text      string     `db:"text" json:"text,omitempty"`
	Created   time.Time  `db:"created" json:"created"`
	Edited    *time.Time `db:"edited" json:"edited,omitempty"`

	// joined from the author's account and the reviewed tour
	AuthorUsername string    `db:"author_username" json:"author_username"`
	AuthorIsAgency bool      `db:"author_is_agency" json:"author_is_agency"`
	TourName       string    `db:"tour_name" json:"tour_name,omitempty"`
	AgencyID       uuid.UUID `db:"agency_id" json:"agency_id"`
}

// WrittenBy reports whether the review belongs to the given account.
func (r Review) WrittenBy(a *Account) bool {
	return a != nil && r.AccountID == a.ID
}
