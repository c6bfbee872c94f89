// Package memory is a mutex-guarded in-process Store used for local runs
// (STORAGE_DRIVER=memory) and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"tours_manager/internal/domain"
)

type Store struct {
	mu sync.RWMutex

	countries map[uuid.UUID]domain.Country
	cities    map[uuid.UUID]domain.City
	addresses map[uuid.UUID]domain.Address
	accounts  map[uuid.UUID]domain.Account

	// insertion ordered
	agencies []domain.Agency
	tours    []domain.Tour
	reviews  []domain.Review
	requests []domain.AgencyRequest
}

func New() *Store {
	return &Store{
		countries: make(map[uuid.UUID]domain.Country),
		cities:    make(map[uuid.UUID]domain.City),
		addresses: make(map[uuid.UUID]domain.Address),
		accounts:  make(map[uuid.UUID]domain.Account),
	}
}

var _ domain.Store = (*Store)(nil)

// ---- seeding ----

func (s *Store) AddCity(c domain.City) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cities[c.ID] = c
}

func (s *Store) AddAddress(a domain.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses[a.ID] = a
}

func (s *Store) AddAgency(a domain.Agency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.agencyNamedLocked(a.Name) {
		return domain.ErrDuplicateAgency
	}
	a.AccountID = nil
	s.agencies = append(s.agencies, a)
	return nil
}

func (s *Store) AddAccount(a domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
}

func (s *Store) AddTour(t domain.Tour) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tours = append(s.tours, t)
}

// DeleteTour removes a tour and, like the SQL schema, its reviews.
func (s *Store) DeleteTour(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.tourIndexLocked(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	s.tours = append(s.tours[:i], s.tours[i+1:]...)
	s.reviews = filter(s.reviews, func(r domain.Review) bool { return r.TourID != id })
	return nil
}

// DeleteAccount removes an account with its reviews and pending request.
func (s *Store) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.accounts, id)
	s.reviews = filter(s.reviews, func(r domain.Review) bool { return r.AccountID != id })
	s.requests = filter(s.requests, func(r domain.AgencyRequest) bool { return r.AccountID != id })
	return nil
}

// ---- reviews ----

func (s *Store) FindReviewsForTour(ctx context.Context, tourID uuid.UUID) ([]domain.Review, error) {
	return s.findReviews(func(r domain.Review) bool { return r.TourID == tourID }), nil
}

func (s *Store) FindReviewsForAgency(ctx context.Context, agencyID uuid.UUID) ([]domain.Review, error) {
	return s.findReviews(func(r domain.Review) bool { return r.AgencyID == agencyID }), nil
}

func (s *Store) FindReviewsByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Review, error) {
	return s.findReviews(func(r domain.Review) bool { return r.AccountID == accountID }), nil
}

func (s *Store) findReviews(keep func(domain.Review) bool) []domain.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Review{}
	for _, r := range s.reviews {
		r = s.joinLocked(r)
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) joinLocked(r domain.Review) domain.Review {
	if a, ok := s.accounts[r.AccountID]; ok {
		r.AuthorUsername = a.Username
		r.AuthorIsAgency = a.IsAgency()
	}
	if i := s.tourIndexLocked(r.TourID); i >= 0 {
		r.TourName = s.tours[i].Name
		r.AgencyID = s.tours[i].AgencyID
	}
	return r
}

func (s *Store) CreateReview(ctx context.Context, r domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tourIndexLocked(r.TourID) < 0 {
		return domain.ErrNotFound
	}
	if _, ok := s.accounts[r.AccountID]; !ok {
		return domain.ErrNotFound
	}
	for _, x := range s.reviews {
		if x.TourID == r.TourID && x.AccountID == r.AccountID {
			return domain.ErrDuplicateReview
		}
	}
	s.reviews = append(s.reviews, r)
	return nil
}

func (s *Store) UpdateReview(ctx context.Context, r domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reviews {
		if s.reviews[i].ID == r.ID {
			s.reviews[i].Rating = r.Rating
			s.reviews[i].Text = r.Text
			s.reviews[i].Edited = r.Edited
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) DeleteReview(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.reviews)
	s.reviews = filter(s.reviews, func(r domain.Review) bool { return r.ID != id })
	if len(s.reviews) == n {
		return domain.ErrNotFound
	}
	return nil
}

// ---- catalog ----

func (s *Store) GetTour(ctx context.Context, id uuid.UUID) (domain.Tour, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.tourIndexLocked(id)
	if i < 0 {
		return domain.Tour{}, domain.ErrNotFound
	}
	return s.tours[i], nil
}

func (s *Store) GetCity(ctx context.Context, id uuid.UUID) (domain.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cities[id]
	if !ok {
		return domain.City{}, domain.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListTours(ctx context.Context, f domain.TourFilter) ([]domain.Tour, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Tour{}
	for _, t := range s.tours {
		if f.StartingCityID != nil && t.StartingCityID != *f.StartingCityID {
			continue
		}
		if f.CountryID != nil && !s.visitsCountryLocked(t, *f.CountryID) {
			continue
		}
		if f.AgencyID != nil && t.AgencyID != *f.AgencyID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) ListAgencies(ctx context.Context, f domain.AgencyFilter) ([]domain.Agency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Agency{}
	for _, a := range s.agencies {
		if f.CityID != nil && s.addresses[a.AddressID].CityID != *f.CityID {
			continue
		}
		a.AccountID = s.managerLocked(a.ID)
		if f.WithAccountOnly && a.AccountID == nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) UpsertCountries(ctx context.Context, cs []domain.Country) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cs {
		s.countries[c.ID] = c
	}
	return nil
}

func (s *Store) Countries() []domain.Country {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Country, 0, len(s.countries))
	for _, c := range s.countries {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ---- accounts ----

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return a, nil
}

func (s *Store) GetAccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrNotFound
}

// ---- agency requests ----

func (s *Store) ListAgencyRequests(ctx context.Context) ([]domain.AgencyRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AgencyRequest, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, s.joinRequestLocked(r))
	}
	return out, nil
}

func (s *Store) FindAgencyRequestByAccount(ctx context.Context, accountID uuid.UUID) (domain.AgencyRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.AccountID == accountID {
			return s.joinRequestLocked(r), nil
		}
	}
	return domain.AgencyRequest{}, domain.ErrNotFound
}

func (s *Store) joinRequestLocked(r domain.AgencyRequest) domain.AgencyRequest {
	r.Username = s.accounts[r.AccountID].Username
	if i := s.agencyIndexLocked(r.AgencyID); i >= 0 {
		r.AgencyName = s.agencies[i].Name
	}
	return r
}

func (s *Store) SubmitAgencyRequest(ctx context.Context, addr domain.Address, ag domain.Agency, req domain.AgencyRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cities[addr.CityID]; !ok {
		return domain.ErrUnknownReference
	}
	if s.agencyNamedLocked(ag.Name) {
		return domain.ErrDuplicateAgency
	}
	for _, r := range s.requests {
		if r.AccountID == req.AccountID {
			return domain.ErrDuplicateAgency
		}
	}
	ag.AccountID = nil
	s.addresses[addr.ID] = addr
	s.agencies = append(s.agencies, ag)
	s.requests = append(s.requests, req)
	return nil
}

func (s *Store) AcceptAgencyRequest(ctx context.Context, req domain.AgencyRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[req.AccountID]
	if !ok || !s.dropRequestLocked(req.ID) {
		return domain.ErrNotFound
	}
	agencyID := req.AgencyID
	acc.AgencyID = &agencyID
	s.accounts[acc.ID] = acc
	return nil
}

func (s *Store) DeclineAgencyRequest(ctx context.Context, req domain.AgencyRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dropRequestLocked(req.ID) {
		return domain.ErrNotFound
	}
	if i := s.agencyIndexLocked(req.AgencyID); i >= 0 {
		delete(s.addresses, s.agencies[i].AddressID)
		s.agencies = append(s.agencies[:i], s.agencies[i+1:]...)
	}
	return nil
}

func (s *Store) dropRequestLocked(id uuid.UUID) bool {
	n := len(s.requests)
	s.requests = filter(s.requests, func(r domain.AgencyRequest) bool { return r.ID != id })
	return len(s.requests) != n
}

// ---- helpers ----

func (s *Store) tourIndexLocked(id uuid.UUID) int {
	for i, t := range s.tours {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) agencyIndexLocked(id uuid.UUID) int {
	for i, a := range s.agencies {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) agencyNamedLocked(name string) bool {
	for _, a := range s.agencies {
		if a.Name == name {
			return true
		}
	}
	return false
}

// visitsCountryLocked reports whether any of the tour's addresses lies in the country.
func (s *Store) visitsCountryLocked(t domain.Tour, countryID uuid.UUID) bool {
	for _, id := range t.AddressIDs {
		if s.cities[s.addresses[id].CityID].CountryID == countryID {
			return true
		}
	}
	return false
}

func (s *Store) managerLocked(agencyID uuid.UUID) *uuid.UUID {
	for _, acc := range s.accounts {
		if acc.AgencyID != nil && *acc.AgencyID == agencyID {
			id := acc.ID
			return &id
		}
	}
	return nil
}

func filter[T any](xs []T, keep func(T) bool) []T {
	out := xs[:0]
	for _, x := range xs {
		if keep(x) {
			out = append(out, x)
		}
	}
	return out
}
