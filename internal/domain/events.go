package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event names published after successful mutations.
const (
	EventReviewCreated          = "review.created"
	EventReviewUpdated          = "review.updated"
	EventReviewDeleted          = "review.deleted"
	EventAgencyRequestSubmitted = "agency_request.submitted"
	EventAgencyRequestAccepted  = "agency_request.accepted"
	EventAgencyRequestDeclined  = "agency_request.declined"
)

type Event struct {
	Name      string    `json:"name"`
	Key       uuid.UUID `json:"key"` // aggregate id, used as the partition key
	AccountID uuid.UUID `json:"account_id"`
	TourID    uuid.UUID `json:"tour_id,omitempty"`
	AgencyID  uuid.UUID `json:"agency_id,omitempty"`
	Rating    float64   `json:"rating,omitempty"`
	At        time.Time `json:"at"`
}
