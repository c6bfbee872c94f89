package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tours_manager/internal/domain"
)

type RequestsRequest struct {
	Page        int
	Form        url.Values // nil on GET
	RedirectURL string
}

type RequestsBlock struct {
	Items []domain.AgencyRequest `json:"items"`
	Pages PageWindow             `json:"pages"`
}

// AgencyRequests drives the pending -> accepted | declined workflow of
// agency promotion requests. Callers check that the viewer is staff.
type AgencyRequests struct {
	repo   domain.AgencyRequestRepository
	cmd    *CommandService
	paging PagingConfig
}

func NewAgencyRequests(r domain.AgencyRequestRepository, cmd *CommandService, p PagingConfig) *AgencyRequests {
	return &AgencyRequests{repo: r, cmd: cmd, paging: p}
}

// IsDecision reports whether posted values carry an accept or decline.
func IsDecision(v url.Values) bool {
	return v != nil && (v.Has("accept") || v.Has("decline"))
}

func (a *AgencyRequests) Handle(ctx context.Context, req RequestsRequest, requests []domain.AgencyRequest) (Outcome[RequestsBlock], error) {
	if IsDecision(req.Form) {
		if err := a.decide(ctx, req.Form); err != nil {
			return Outcome[RequestsBlock]{}, err
		}
		return redirectTo[RequestsBlock](req.RedirectURL), nil
	}

	pager := NewPaginator(requests, a.paging.RequestsPerPage)
	return render(&RequestsBlock{
		Items: pager.Page(req.Page),
		Pages: a.paging.window(req.Page, pager.NumPages()),
	}), nil
}

func (a *AgencyRequests) decide(ctx context.Context, form url.Values) error {
	accountID, err := uuid.Parse(form.Get("id"))
	if err != nil {
		log.Debug().Str("id", form.Get("id")).Msg("agency request decision without a valid account id")
		return nil
	}
	pending, err := a.repo.FindAgencyRequestByAccount(ctx, accountID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug().Str("account", accountID.String()).Msg("no pending agency request")
		return nil
	}
	if err != nil {
		return fmt.Errorf("agency request of %s: %w", accountID, err)
	}
	if form.Has("accept") {
		return a.cmd.AcceptAgencyRequest(ctx, pending)
	}
	return a.cmd.DeclineAgencyRequest(ctx, pending)
}

// Eligible returns ErrNotFound unless viewer is a signed-in traveler without
// a pending agency request.
func (a *AgencyRequests) Eligible(ctx context.Context, viewer *domain.Account) error {
	if viewer == nil || viewer.IsStaff || viewer.IsAgency() {
		return domain.ErrNotFound
	}
	_, err := a.repo.FindAgencyRequestByAccount(ctx, viewer.ID)
	switch {
	case err == nil:
		return domain.ErrNotFound
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("agency request of %s: %w", viewer.ID, err)
	}
	return nil
}

// Submit files an agency signup for viewer once Eligible passes. A form with
// errors is returned together with a nil error.
func (a *AgencyRequests) Submit(ctx context.Context, viewer *domain.Account, values url.Values) (*AgencySignupForm, error) {
	if err := a.Eligible(ctx, viewer); err != nil {
		return nil, err
	}

	form, ok := BindAgencySignupForm(values)
	if !ok {
		return form, nil
	}
	if _, err := a.cmd.SubmitAgencyRequest(ctx, *viewer, form); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateAgency):
			form.Errors.add("name", domain.ErrDuplicateAgency.Error())
			return form, nil
		case errors.Is(err, domain.ErrUnknownReference):
			form.Errors.add("city_id", domain.ErrUnknownReference.Error())
			return form, nil
		}
		return nil, err
	}
	return form, nil
}
