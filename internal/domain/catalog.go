package domain

import (
	"time"

	"github.com/google/uuid"
)

type Tour struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	Name           string      `db:"name" json:"name"`
	Description    string      `db:"description" json:"description"`
	AgencyID       uuid.UUID   `db:"agency_id" json:"agency_id"`
	StartingCityID uuid.UUID   `db:"starting_city_id" json:"starting_city_id"`
	Price          float64     `db:"price" json:"price"`
	AddressIDs     []uuid.UUID `db:"-" json:"address_ids,omitempty"`
}

type Agency struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	PhoneNumber string     `db:"phone_number" json:"phone_number"`
	AddressID   uuid.UUID  `db:"address_id" json:"address_id"`
	AccountID   *uuid.UUID `db:"account_id" json:"account_id,omitempty"` // managing account, if any
}

// Account wraps the auth identity. A non-nil AgencyID makes it an agency account.
type Account struct {
	ID       uuid.UUID  `db:"id" json:"id"`
	Username string     `db:"username" json:"username"`
	IsStaff  bool       `db:"is_staff" json:"is_staff"`
	AgencyID *uuid.UUID `db:"agency_id" json:"agency_id,omitempty"`
}

func (a Account) IsAgency() bool { return a.AgencyID != nil }

// CanReview is false for agency accounts: only travelers write reviews.
func (a Account) CanReview() bool { return !a.IsAgency() }

type AgencyRequest struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AccountID uuid.UUID `db:"account_id" json:"account_id"`
	AgencyID  uuid.UUID `db:"agency_id" json:"agency_id"`
	Created   time.Time `db:"created" json:"created"`

	Username   string `db:"username" json:"username"`
	AgencyName string `db:"agency_name" json:"agency_name"`
}

type Country struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}

type City struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CountryID uuid.UUID `db:"country_id" json:"country_id"`
}

type Address struct {
	ID          uuid.UUID `db:"id" json:"id"`
	CityID      uuid.UUID `db:"city_id" json:"city_id"`
	Street      string    `db:"street" json:"street"`
	HouseNumber string    `db:"house_number" json:"house_number"`
}
