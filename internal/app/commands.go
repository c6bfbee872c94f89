package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tours_manager/internal/domain"
)

var ErrReviewNotAllowed = errors.New("agency accounts cannot write reviews")

// Recorder receives business counters. observability.Recorder is the
// Prometheus-backed implementation.
type Recorder interface {
	ReviewMutation(action, outcome string)
	AgencyRequestDecision(decision string)
}

type nopRecorder struct{}

func (nopRecorder) ReviewMutation(string, string) {}
func (nopRecorder) AgencyRequestDecision(string)  {}

// CommandService performs the writes behind the list managers and keeps the
// review caches and event consumers in step with them.
type CommandService struct {
	repo    domain.Store
	cache   domain.Cache
	events  domain.EventPublisher
	metrics Recorder
	now     func() time.Time
}

func NewCommandService(r domain.Store, c domain.Cache, e domain.EventPublisher, m Recorder) *CommandService {
	if m == nil {
		m = nopRecorder{}
	}
	return &CommandService{repo: r, cache: c, events: e, metrics: m, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source; used by tests.
func (s *CommandService) WithClock(now func() time.Time) *CommandService {
	s.now = now
	return s
}

func (s *CommandService) CreateReview(ctx context.Context, tour domain.Tour, author domain.Account, rating float64, text string) (domain.Review, error) {
	if !author.CanReview() {
		s.metrics.ReviewMutation("create", "rejected")
		return domain.Review{}, ErrReviewNotAllowed
	}
	r := domain.Review{
		ID:             uuid.New(),
		TourID:         tour.ID,
		AccountID:      author.ID,
		Rating:         rating,
		Text:           text,
		Created:        s.now(),
		AuthorUsername: author.Username,
		TourName:       tour.Name,
		AgencyID:       tour.AgencyID,
	}
	if err := s.repo.CreateReview(ctx, r); err != nil {
		if errors.Is(err, domain.ErrDuplicateReview) {
			s.metrics.ReviewMutation("create", "duplicate")
			return domain.Review{}, err
		}
		s.metrics.ReviewMutation("create", "error")
		return domain.Review{}, fmt.Errorf("create review: %w", err)
	}
	s.metrics.ReviewMutation("create", "ok")
	s.invalidateReviews(ctx, tour.ID, tour.AgencyID)
	s.publish(ctx, domain.Event{
		Name: domain.EventReviewCreated, Key: r.ID, AccountID: author.ID,
		TourID: tour.ID, AgencyID: tour.AgencyID, Rating: rating, At: r.Created,
	})
	log.Info().Str("review", r.ID.String()).Str("tour", tour.ID.String()).
		Str("account", author.ID.String()).Float64("rating", rating).Msg("review created")
	return r, nil
}

func (s *CommandService) UpdateReview(ctx context.Context, r domain.Review, rating float64, text string) (domain.Review, error) {
	now := s.now()
	r.Rating = rating
	r.Text = text
	r.Edited = &now
	if err := s.repo.UpdateReview(ctx, r); err != nil {
		s.metrics.ReviewMutation("update", "error")
		return domain.Review{}, fmt.Errorf("update review %s: %w", r.ID, err)
	}
	s.metrics.ReviewMutation("update", "ok")
	s.invalidateReviews(ctx, r.TourID, r.AgencyID)
	s.publish(ctx, domain.Event{
		Name: domain.EventReviewUpdated, Key: r.ID, AccountID: r.AccountID,
		TourID: r.TourID, AgencyID: r.AgencyID, Rating: rating, At: now,
	})
	log.Info().Str("review", r.ID.String()).Float64("rating", rating).Msg("review updated")
	return r, nil
}

func (s *CommandService) DeleteReview(ctx context.Context, r domain.Review) error {
	if err := s.repo.DeleteReview(ctx, r.ID); err != nil {
		s.metrics.ReviewMutation("delete", "error")
		return fmt.Errorf("delete review %s: %w", r.ID, err)
	}
	s.metrics.ReviewMutation("delete", "ok")
	s.invalidateReviews(ctx, r.TourID, r.AgencyID)
	s.publish(ctx, domain.Event{
		Name: domain.EventReviewDeleted, Key: r.ID, AccountID: r.AccountID,
		TourID: r.TourID, AgencyID: r.AgencyID, At: s.now(),
	})
	log.Info().Str("review", r.ID.String()).Msg("review deleted")
	return nil
}

// RejectMutation counts a POST that targeted a review the viewer does not own.
func (s *CommandService) RejectMutation(action string, reviewID string, viewer *domain.Account) {
	s.metrics.ReviewMutation(action, "ignored")
	ev := log.Debug().Str("action", action).Str("review", reviewID)
	if viewer != nil {
		ev = ev.Str("account", viewer.ID.String())
	}
	ev.Msg("review mutation ignored")
}

func (s *CommandService) SubmitAgencyRequest(ctx context.Context, viewer domain.Account, form *AgencySignupForm) (domain.AgencyRequest, error) {
	cityID, err := uuid.Parse(form.CityID)
	if err != nil {
		return domain.AgencyRequest{}, fmt.Errorf("city id %q: %w", form.CityID, domain.ErrUnknownReference)
	}
	if _, err := s.repo.GetCity(ctx, cityID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.AgencyRequest{}, fmt.Errorf("city %s: %w", cityID, domain.ErrUnknownReference)
		}
		return domain.AgencyRequest{}, fmt.Errorf("city %s: %w", cityID, err)
	}
	addr := domain.Address{ID: uuid.New(), CityID: cityID, Street: form.Street, HouseNumber: form.HouseNumber}
	ag := domain.Agency{ID: uuid.New(), Name: form.Name, PhoneNumber: form.PhoneNumber, AddressID: addr.ID}
	req := domain.AgencyRequest{
		ID: uuid.New(), AccountID: viewer.ID, AgencyID: ag.ID, Created: s.now(),
		Username: viewer.Username, AgencyName: ag.Name,
	}
	if err := s.repo.SubmitAgencyRequest(ctx, addr, ag, req); err != nil {
		if errors.Is(err, domain.ErrDuplicateAgency) || errors.Is(err, domain.ErrUnknownReference) {
			return domain.AgencyRequest{}, err
		}
		return domain.AgencyRequest{}, fmt.Errorf("submit agency request: %w", err)
	}
	s.publish(ctx, domain.Event{
		Name: domain.EventAgencyRequestSubmitted, Key: req.ID, AccountID: viewer.ID, AgencyID: ag.ID, At: req.Created,
	})
	log.Info().Str("account", viewer.ID.String()).Str("agency", ag.Name).Msg("agency request submitted")
	return req, nil
}

func (s *CommandService) AcceptAgencyRequest(ctx context.Context, req domain.AgencyRequest) error {
	// the account's reviews stop counting once it becomes an agency account
	written, err := s.repo.FindReviewsByAccount(ctx, req.AccountID)
	if err != nil {
		return fmt.Errorf("reviews of account %s: %w", req.AccountID, err)
	}
	if err := s.repo.AcceptAgencyRequest(ctx, req); err != nil {
		return fmt.Errorf("accept agency request %s: %w", req.ID, err)
	}
	for _, r := range written {
		s.invalidateReviews(ctx, r.TourID, r.AgencyID)
	}
	s.metrics.AgencyRequestDecision("accepted")
	s.publish(ctx, domain.Event{
		Name: domain.EventAgencyRequestAccepted, Key: req.ID, AccountID: req.AccountID, AgencyID: req.AgencyID, At: s.now(),
	})
	log.Info().Str("account", req.AccountID.String()).Str("agency", req.AgencyID.String()).Msg("agency request accepted")
	return nil
}

func (s *CommandService) DeclineAgencyRequest(ctx context.Context, req domain.AgencyRequest) error {
	if err := s.repo.DeclineAgencyRequest(ctx, req); err != nil {
		return fmt.Errorf("decline agency request %s: %w", req.ID, err)
	}
	s.metrics.AgencyRequestDecision("declined")
	s.publish(ctx, domain.Event{
		Name: domain.EventAgencyRequestDeclined, Key: req.ID, AccountID: req.AccountID, AgencyID: req.AgencyID, At: s.now(),
	})
	log.Info().Str("account", req.AccountID.String()).Str("agency", req.AgencyID.String()).Msg("agency request declined")
	return nil
}

func (s *CommandService) invalidateReviews(ctx context.Context, tourID, agencyID uuid.UUID) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, tourReviewsKey(tourID))
	_ = s.cache.Del(ctx, agencyReviewsKey(agencyID))
}

// publish is best effort: the write already happened and must not be undone
// because a consumer is unreachable.
func (s *CommandService) publish(ctx context.Context, e domain.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		log.Warn().Err(err).Str("event", e.Name).Str("key", e.Key.String()).Msg("event publish failed")
	}
}
