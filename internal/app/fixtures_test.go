package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"tours_manager/internal/app"
	"tours_manager/internal/domain"
	"tours_manager/internal/storage/memory"
)

// ---- fakes ----

type fakeCache struct {
	mu    sync.Mutex
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	if d, isReviews := dst.(*[]domain.Review); isReviews {
		*d = v.([]domain.Review)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, e domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *fakePublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

type fakeRecorder struct {
	mu        sync.Mutex
	mutations map[string]int
	decisions map[string]int
}

func newRecorder() *fakeRecorder {
	return &fakeRecorder{mutations: map[string]int{}, decisions: map[string]int{}}
}

func (r *fakeRecorder) ReviewMutation(action, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mutations[action+"/"+outcome]++
}

func (r *fakeRecorder) AgencyRequestDecision(decision string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions[decision]++
}

// failingStore breaks review writes.
type failingStore struct {
	*memory.Store
}

var errBroken = errors.New("store is down")

func (failingStore) CreateReview(ctx context.Context, r domain.Review) error { return errBroken }

// ---- world ----

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type world struct {
	store    *memory.Store
	cache    *fakeCache
	events   *fakePublisher
	metrics  *fakeRecorder
	cmd      *app.CommandService
	query    *app.QueryService
	paging   app.PagingConfig
	city     domain.City
	agency   domain.Agency
	tour     domain.Tour
	traveler domain.Account
	other    domain.Account
	staff    domain.Account
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{
		store:   memory.New(),
		cache:   &fakeCache{},
		events:  &fakePublisher{},
		metrics: newRecorder(),
		paging:  app.DefaultPaging(),
	}
	w.city = domain.City{ID: uuid.New(), Name: "Moscow", CountryID: uuid.New()}
	addr := domain.Address{ID: uuid.New(), CityID: w.city.ID, Street: "Tverskaya", HouseNumber: "1"}
	w.store.AddCity(w.city)
	w.store.AddAddress(addr)

	w.agency = domain.Agency{ID: uuid.New(), Name: "Sunny Trips", PhoneNumber: "+79990001122", AddressID: addr.ID}
	if err := w.store.AddAgency(w.agency); err != nil {
		t.Fatalf("seed agency: %v", err)
	}
	w.tour = domain.Tour{ID: uuid.New(), Name: "Golden Ring", AgencyID: w.agency.ID, StartingCityID: w.city.ID, Price: 100}
	w.store.AddTour(w.tour)

	w.traveler = domain.Account{ID: uuid.New(), Username: "alice"}
	w.other = domain.Account{ID: uuid.New(), Username: "bob"}
	w.staff = domain.Account{ID: uuid.New(), Username: "root", IsStaff: true}
	for _, a := range []domain.Account{w.traveler, w.other, w.staff} {
		w.store.AddAccount(a)
	}

	w.cmd = app.NewCommandService(w.store, w.cache, w.events, w.metrics).WithClock(func() time.Time { return fixedNow })
	w.query = app.NewQueryService(w.store, w.cache, time.Minute)
	return w
}

// traveler adds a new traveler account.
func (w *world) newTraveler(name string) domain.Account {
	a := domain.Account{ID: uuid.New(), Username: name}
	w.store.AddAccount(a)
	return a
}

// review writes a review directly to the store.
func (w *world) review(t *testing.T, tour domain.Tour, by domain.Account, rating float64) domain.Review {
	t.Helper()
	r := domain.Review{
		ID: uuid.New(), TourID: tour.ID, AccountID: by.ID, Rating: rating,
		Text: "text by " + by.Username, Created: fixedNow,
	}
	if err := w.store.CreateReview(context.Background(), r); err != nil {
		t.Fatalf("seed review: %v", err)
	}
	r.AgencyID = tour.AgencyID
	r.AuthorUsername = by.Username
	r.TourName = tour.Name
	return r
}

func ptr[T any](v T) *T { return &v }
