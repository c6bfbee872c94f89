package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tours_manager/internal/app"
	"tours_manager/internal/domain"
	"tours_manager/internal/refdata"
)

const myProfileURL = "/v1/profile"

type Handlers struct {
	Q         *app.QueryService
	Reviews   *app.ReviewList
	Cards     app.Cards
	Requests  *app.AgencyRequests
	Countries *refdata.Countries
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/countries", h.countries)
	s.mux.Get("/v1/tours", h.tours)
	s.mux.Get("/v1/agencies", h.agencies)
	s.mux.Get("/v1/tours/{id}", h.tour)
	s.mux.Post("/v1/tours/{id}", h.tour)
	s.mux.Get("/v1/profile", h.myProfile)
	s.mux.Post("/v1/profile", h.myProfile)
	s.mux.Get("/v1/profile/{username}", h.profile)
	s.mux.Post("/v1/profile/{username}", h.profile)
	s.mux.Get("/v1/agency-requests/new", h.agencySignup)
	s.mux.Post("/v1/agency-requests", h.agencySignup)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps app errors onto problems; anything unexpected is logged.
func writeError(w http.ResponseWriter, r *http.Request, err error, what string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", what+" not found")
		return
	}
	log.Error().Err(err).Str("route", routeOf(r)).Msg(what + " failed")
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON renders v with status 200. GET responses carry an ETag and honour
// If-None-Match.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if r.Method == http.MethodGet {
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write body")
	}
}

// postedForm returns the urlencoded body of a POST and nil for any other method.
func postedForm(r *http.Request) (url.Values, error) {
	if r.Method != http.MethodPost {
		return nil, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	if r.PostForm == nil {
		return url.Values{}, nil
	}
	return r.PostForm, nil
}

func queryUUID(q url.Values, key string) (uuid.UUID, bool) {
	raw := q.Get(key)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	return id, err == nil
}

// ---- listings ----

func (h *Handlers) countries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.Countries.All())
}

// tours filters by starting city and visited country only when both are given.
func (h *Handlers) tours(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f domain.TourFilter
	city, okCity := queryUUID(q, "starting_city")
	country, okCountry := queryUUID(q, "country")
	if okCity && okCountry {
		f.StartingCityID, f.CountryID = &city, &country
	}
	tours, reviews, err := h.Q.Tours(r.Context(), f)
	if err != nil {
		writeError(w, r, err, "tours")
		return
	}
	writeJSON(w, r, h.Cards.Tours(tours, reviews, app.ParsePage(q.Get("page"))))
}

func (h *Handlers) agencies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.AgencyFilter{WithAccountOnly: true}
	if city, ok := queryUUID(q, "city"); ok {
		f.CityID = &city
	}
	agencies, reviews, err := h.Q.Agencies(r.Context(), f)
	if err != nil {
		writeError(w, r, err, "agencies")
		return
	}
	writeJSON(w, r, h.Cards.Agencies(agencies, reviews, app.ParsePage(q.Get("page"))))
}

// ---- tour page ----

type tourPage struct {
	Tour    domain.Tour       `json:"tour"`
	Rating  float64           `json:"rating"`
	Ratings []float64         `json:"ratings"`
	Reviews *app.ReviewsBlock `json:"reviews"`
}

func (h *Handlers) tour(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "tour not found")
		return
	}
	form, err := postedForm(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "malformed form body")
		return
	}
	ctx := r.Context()

	t, err := h.Q.Tour(ctx, id)
	if err != nil {
		writeError(w, r, err, "tour")
		return
	}
	all, err := h.Q.ReviewsForTour(ctx, id)
	if err != nil {
		writeError(w, r, err, "tour reviews")
		return
	}
	travelers := app.TravelerReviews(all)

	self := "/v1/tours/" + id.String()
	out, err := h.Reviews.Render(ctx, app.ListRequest{
		Viewer: ViewerFrom(ctx),
		Page:   app.ParsePage(r.URL.Query().Get("page")),
		Form:   form,
	}, travelers, app.ListOptions{
		Tour:              &t,
		RedirectURL:       self,
		TourURL:           self,
		CheckViewerReview: true,
	})
	if err != nil {
		writeError(w, r, err, "tour reviews")
		return
	}
	if out.Redirect != "" {
		http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
		return
	}
	writeJSON(w, r, tourPage{
		Tour:    t,
		Rating:  app.TourRating(t, all),
		Ratings: app.Ratings(all),
		Reviews: out.Block,
	})
}

// ---- profile ----

type profilePage struct {
	Account  domain.Account               `json:"account"`
	Tours    *app.CardsBlock[domain.Tour] `json:"tours,omitempty"`
	Reviews  *app.ReviewsBlock            `json:"reviews,omitempty"`
	Requests *app.RequestsBlock           `json:"requests,omitempty"`
}

func (h *Handlers) myProfile(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerFrom(r.Context())
	if viewer == nil {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "sign in to see your profile")
		return
	}
	h.renderProfile(w, r, *viewer, myProfileURL)
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) {
	acc, err := h.Q.AccountByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, err, "account")
		return
	}
	h.renderProfile(w, r, acc, r.URL.Path)
}

func (h *Handlers) renderProfile(w http.ResponseWriter, r *http.Request, acc domain.Account, self string) {
	form, err := postedForm(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "malformed form body")
		return
	}
	ctx := r.Context()
	viewer := ViewerFrom(ctx)
	q := r.URL.Query()
	page := profilePage{Account: acc}

	// the requests block belongs to a staff member looking at their own page
	if acc.IsStaff && viewer != nil && viewer.ID == acc.ID {
		pending, err := h.Q.AgencyRequests(ctx)
		if err != nil {
			writeError(w, r, err, "agency requests")
			return
		}
		var decision url.Values
		if app.IsDecision(form) {
			decision, form = form, nil
		}
		out, err := h.Requests.Handle(ctx, app.RequestsRequest{
			Page:        app.ParsePage(q.Get("r_page")),
			Form:        decision,
			RedirectURL: self,
		}, pending)
		if err != nil {
			writeError(w, r, err, "agency request")
			return
		}
		if out.Redirect != "" {
			http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
			return
		}
		page.Requests = out.Block
	}

	if acc.IsAgency() {
		tours, reviews, err := h.Q.Tours(ctx, domain.TourFilter{AgencyID: acc.AgencyID})
		if err != nil {
			writeError(w, r, err, "agency tours")
			return
		}
		block := h.Cards.Tours(tours, reviews, app.ParsePage(q.Get("page")))
		page.Tours = &block
		writeJSON(w, r, page)
		return
	}

	reviews, err := h.Q.ReviewsByAccount(ctx, acc.ID)
	if err != nil {
		writeError(w, r, err, "account reviews")
		return
	}
	out, err := h.Reviews.Render(ctx, app.ListRequest{
		Viewer: viewer,
		Page:   app.ParsePage(q.Get("page")),
		Form:   form,
	}, reviews, app.ListOptions{
		RedirectURL: self,
		LinkToTour:  true,
		Display:     true,
	})
	if err != nil {
		writeError(w, r, err, "account reviews")
		return
	}
	if out.Redirect != "" {
		http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
		return
	}
	page.Reviews = out.Block
	writeJSON(w, r, page)
}

// ---- agency signup ----

func (h *Handlers) agencySignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := ViewerFrom(ctx)
	if r.Method == http.MethodGet {
		if err := h.Requests.Eligible(ctx, viewer); err != nil {
			writeError(w, r, err, "agency signup")
			return
		}
		writeJSON(w, r, &app.AgencySignupForm{})
		return
	}

	values, err := postedForm(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "malformed form body")
		return
	}
	form, err := h.Requests.Submit(ctx, viewer, values)
	if err != nil {
		writeError(w, r, err, "agency signup")
		return
	}
	if len(form.Errors) > 0 {
		writeJSON(w, r, form)
		return
	}
	http.Redirect(w, r, myProfileURL, http.StatusSeeOther)
}
