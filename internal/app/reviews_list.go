package app

import (
	"context"
	"errors"
	"net/url"

	"tours_manager/internal/domain"
)

// Outcome is what a list manager hands back to the page view: either a
// redirect after a successful mutation or a block to render.
type Outcome[B any] struct {
	Redirect string
	Block    *B
}

func redirectTo[B any](dest string) Outcome[B] { return Outcome[B]{Redirect: dest} }

func render[B any](b *B) Outcome[B] { return Outcome[B]{Block: b} }

type ListRequest struct {
	Viewer *domain.Account
	Page   int
	Form   url.Values // nil on GET
}

type ListOptions struct {
	Tour        *domain.Tour // needed for the create slot
	RedirectURL string
	TourURL     string

	// CheckViewerReview puts the viewer's review (or a create slot) first.
	CheckViewerReview bool
	LinkToTour        bool
	Display           bool
}

const (
	CardReview = "review"
	CardCreate = "create"
)

type ReviewCard struct {
	Kind       string         `json:"kind"`
	Review     *domain.Review `json:"review,omitempty"`
	Owned      bool           `json:"owned"`
	Form       *ReviewForm    `json:"form,omitempty"`
	LinkToTour bool           `json:"link_to_tour,omitempty"`
}

type ReviewsBlock struct {
	Items   []ReviewCard `json:"items"`
	Pages   PageWindow   `json:"pages"`
	Count   int          `json:"count"`
	Display bool         `json:"display"`
}

// ReviewList paginates a review collection and applies inline
// create/update/delete posted back to the same list.
type ReviewList struct {
	cmd    *CommandService
	paging PagingConfig
}

func NewReviewList(cmd *CommandService, p PagingConfig) *ReviewList {
	return &ReviewList{cmd: cmd, paging: p}
}

// posted review fields
const (
	fieldDelete = "delete"
	fieldReview = "review"
	fieldRating = "rating"
	fieldText   = "text"
)

func isReviewPost(v url.Values) bool {
	if v == nil {
		return false
	}
	for _, k := range []string{fieldDelete, fieldReview, fieldRating, fieldText} {
		if v.Has(k) {
			return true
		}
	}
	return false
}

func (l *ReviewList) Render(ctx context.Context, req ListRequest, reviews []domain.Review, opts ListOptions) (Outcome[ReviewsBlock], error) {
	var slots []ReviewSlot
	if opts.CheckViewerReview {
		slots = ArrangeSlots(reviews, req.Viewer)
	} else {
		slots = PlainSlots(reviews)
	}
	pager := NewPaginator(slots, l.paging.ReviewsPerPage)

	form := req.Form
	if !isReviewPost(form) {
		form = nil
	}
	claimed := false

	items := make([]ReviewCard, 0, l.paging.ReviewsPerPage)
	for _, slot := range pager.Page(req.Page) {
		r, ok := slot.Review()
		if !ok {
			card, dest, err := l.createSlot(ctx, req.Viewer, form, opts)
			if err != nil {
				return Outcome[ReviewsBlock]{}, err
			}
			if dest != "" {
				return redirectTo[ReviewsBlock](dest), nil
			}
			if form != nil && !form.Has(fieldDelete) && !form.Has(fieldReview) {
				claimed = true
			}
			items = append(items, card)
			continue
		}

		if !r.WrittenBy(req.Viewer) {
			items = append(items, ReviewCard{Kind: CardReview, Review: &r, LinkToTour: opts.LinkToTour})
			continue
		}

		var target url.Values
		if !claimed && form != nil && targets(form, r) {
			target = form
			claimed = true
		}
		card, dest, err := l.ownedCard(ctx, r, target, opts)
		if err != nil {
			return Outcome[ReviewsBlock]{}, err
		}
		if dest != "" {
			return redirectTo[ReviewsBlock](dest), nil
		}
		items = append(items, card)
	}

	if form != nil && !claimed {
		action := "update"
		if form.Has(fieldDelete) {
			action = "delete"
		}
		l.cmd.RejectMutation(action, form.Get(fieldDelete)+form.Get(fieldReview), req.Viewer)
	}

	return render(&ReviewsBlock{
		Items:   items,
		Pages:   l.paging.window(req.Page, pager.NumPages()),
		Count:   len(reviews),
		Display: opts.Display,
	}), nil
}

// targets reports whether a POST addressed to the viewer's own review r
// belongs to it. Without a review field the first owned card takes it.
func targets(form url.Values, r domain.Review) bool {
	if form.Has(fieldDelete) {
		return form.Get(fieldDelete) == r.ID.String()
	}
	if form.Has(fieldReview) {
		return form.Get(fieldReview) == r.ID.String()
	}
	return true
}

func (l *ReviewList) createSlot(ctx context.Context, viewer *domain.Account, form url.Values, opts ListOptions) (ReviewCard, string, error) {
	if opts.Tour == nil {
		return ReviewCard{}, "", domain.ErrNotFound
	}
	card := ReviewCard{Kind: CardCreate, Form: &ReviewForm{}}
	if form == nil || form.Has(fieldDelete) || form.Has(fieldReview) || viewer == nil {
		return card, "", nil
	}

	in, bound, ok := BindReviewForm(form)
	card.Form = bound
	if !ok {
		return card, "", nil
	}
	_, err := l.cmd.CreateReview(ctx, *opts.Tour, *viewer, in.Rating, in.Text)
	switch {
	case errors.Is(err, domain.ErrDuplicateReview), errors.Is(err, ErrReviewNotAllowed):
		bound.Errors.add(formErrorKey, err.Error())
		return card, "", nil
	case err != nil:
		return ReviewCard{}, "", err
	}
	return card, opts.TourURL + "#reviews", nil
}

func (l *ReviewList) ownedCard(ctx context.Context, r domain.Review, form url.Values, opts ListOptions) (ReviewCard, string, error) {
	card := ReviewCard{
		Kind:       CardReview,
		Review:     &r,
		Owned:      true,
		Form:       InitialReviewForm(r.Rating, r.Text),
		LinkToTour: opts.LinkToTour,
	}
	if form == nil {
		return card, "", nil
	}

	if form.Has(fieldDelete) {
		if err := l.cmd.DeleteReview(ctx, r); err != nil {
			return ReviewCard{}, "", err
		}
		return card, opts.RedirectURL, nil
	}

	in, bound, ok := BindReviewForm(form)
	card.Form = bound
	if !ok {
		return card, "", nil
	}
	if _, err := l.cmd.UpdateReview(ctx, r, in.Rating, in.Text); err != nil {
		return ReviewCard{}, "", err
	}
	return card, opts.RedirectURL, nil
}
