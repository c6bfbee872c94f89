// Package sqlstore implements domain.Store on MySQL or PostgreSQL through sqlx.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tours_manager/internal/domain"
)

const (
	mysqlDuplicateEntry      = 1062
	mysqlNoReferencedRow     = 1452
	postgresUniqueReject     = "23505"
	postgresForeignKeyReject = "23503"
)

type Repo struct{ db *sqlx.DB }

var _ domain.Store = (*Repo)(nil)

func New(db *sqlx.DB) *Repo { return &Repo{db: db} }

// Open connects with the given driver ("mysql" or "postgres") without
// pinging; callers wait for the database with shared.Retry.
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return db, nil
}

func (r *Repo) q(query string) string { return r.db.Rebind(query) }

func (r *Repo) isPostgres() bool { return r.db.DriverName() == "postgres" }

// translate maps driver errors onto domain sentinels. dup is returned for
// unique constraint violations, ErrUnknownReference for foreign key ones.
func translate(err error, dup error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch {
		case me.Number == mysqlDuplicateEntry && dup != nil:
			return dup
		case me.Number == mysqlNoReferencedRow:
			return domain.ErrUnknownReference
		}
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		switch {
		case string(pe.Code) == postgresUniqueReject && dup != nil:
			return dup
		case string(pe.Code) == postgresForeignKeyReject:
			return domain.ErrUnknownReference
		}
	}
	return err
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ---- reviews ----

func (r *Repo) FindReviewsForTour(ctx context.Context, tourID uuid.UUID) ([]domain.Review, error) {
	return r.selectReviews(ctx, reviewsForTourSQL, tourID)
}

func (r *Repo) FindReviewsForAgency(ctx context.Context, agencyID uuid.UUID) ([]domain.Review, error) {
	return r.selectReviews(ctx, reviewsForAgencySQL, agencyID)
}

func (r *Repo) FindReviewsByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Review, error) {
	return r.selectReviews(ctx, reviewsByAccountSQL, accountID)
}

func (r *Repo) selectReviews(ctx context.Context, query string, id uuid.UUID) ([]domain.Review, error) {
	out := []domain.Review{}
	if err := r.db.SelectContext(ctx, &out, r.q(query), id); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CreateReview(ctx context.Context, rv domain.Review) error {
	_, err := r.db.ExecContext(ctx, r.q(insertReviewSQL),
		rv.ID, rv.TourID, rv.AccountID, rv.Rating, rv.Text, rv.Created, rv.Edited)
	return translate(err, domain.ErrDuplicateReview)
}

func (r *Repo) UpdateReview(ctx context.Context, rv domain.Review) error {
	res, err := r.db.ExecContext(ctx, r.q(updateReviewSQL), rv.Rating, rv.Text, rv.Edited, rv.ID)
	if err != nil {
		return err
	}
	// MySQL reports 0 affected rows when nothing changed, so only Postgres
	// can tell a missing row apart here.
	if r.isPostgres() {
		return affectedOne(res)
	}
	return nil
}

func (r *Repo) DeleteReview(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.q(deleteReviewSQL), id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// ---- catalog ----

func (r *Repo) GetTour(ctx context.Context, id uuid.UUID) (domain.Tour, error) {
	var t domain.Tour
	if err := r.db.GetContext(ctx, &t, r.q(getTourSQL), id); err != nil {
		return domain.Tour{}, translate(err, nil)
	}
	if err := r.db.SelectContext(ctx, &t.AddressIDs, r.q(tourAddressesSQL), id); err != nil {
		return domain.Tour{}, fmt.Errorf("tour addresses: %w", err)
	}
	return t, nil
}

func (r *Repo) GetCity(ctx context.Context, id uuid.UUID) (domain.City, error) {
	var c domain.City
	err := r.db.GetContext(ctx, &c, r.q(getCitySQL), id)
	return c, translate(err, nil)
}

func (r *Repo) ListTours(ctx context.Context, f domain.TourFilter) ([]domain.Tour, error) {
	var (
		where []string
		args  []any
	)
	if f.StartingCityID != nil {
		where, args = append(where, "t.starting_city_id = ?"), append(args, *f.StartingCityID)
	}
	if f.CountryID != nil {
		where, args = append(where, tourInCountrySQL), append(args, *f.CountryID)
	}
	if f.AgencyID != nil {
		where, args = append(where, "t.agency_id = ?"), append(args, *f.AgencyID)
	}
	query := tourColumns + whereClause(where) + " ORDER BY t.name, t.id"

	out := []domain.Tour{}
	if err := r.db.SelectContext(ctx, &out, r.q(query), args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) ListAgencies(ctx context.Context, f domain.AgencyFilter) ([]domain.Agency, error) {
	var (
		where []string
		args  []any
	)
	if f.CityID != nil {
		where, args = append(where, "ad.city_id = ?"), append(args, *f.CityID)
	}
	if f.WithAccountOnly {
		where = append(where, "a.id IS NOT NULL")
	}
	query := agencyColumns + whereClause(where) + " ORDER BY g.name, g.id"

	out := []domain.Agency{}
	if err := r.db.SelectContext(ctx, &out, r.q(query), args...); err != nil {
		return nil, err
	}
	return out, nil
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conds, " AND ")
}

// UpsertCountries writes one multi-row statement per call.
func (r *Repo) UpsertCountries(ctx context.Context, cs []domain.Country) error {
	if len(cs) == 0 {
		return nil
	}
	values := make([]string, 0, len(cs))
	args := make([]any, 0, len(cs)*2)
	for _, c := range cs {
		values = append(values, "(?, ?)")
		args = append(args, c.ID, c.Name)
	}
	query := "INSERT INTO countries (id, name) VALUES " + strings.Join(values, ",")
	if r.isPostgres() {
		query += upsertCountriesPostgres
	} else {
		query += upsertCountriesMySQL
	}
	_, err := r.db.ExecContext(ctx, r.q(query), args...)
	return err
}

// ---- accounts ----

func (r *Repo) GetAccount(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	var a domain.Account
	err := r.db.GetContext(ctx, &a, r.q(getAccountSQL), id)
	return a, translate(err, nil)
}

func (r *Repo) GetAccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	var a domain.Account
	err := r.db.GetContext(ctx, &a, r.q(getAccountByUsernameSQL), username)
	return a, translate(err, nil)
}

// ---- agency requests ----

func (r *Repo) ListAgencyRequests(ctx context.Context) ([]domain.AgencyRequest, error) {
	out := []domain.AgencyRequest{}
	if err := r.db.SelectContext(ctx, &out, r.q(listRequestsSQL)); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) FindAgencyRequestByAccount(ctx context.Context, accountID uuid.UUID) (domain.AgencyRequest, error) {
	var q domain.AgencyRequest
	err := r.db.GetContext(ctx, &q, r.q(requestByAccountSQL), accountID)
	return q, translate(err, nil)
}

func (r *Repo) SubmitAgencyRequest(ctx context.Context, addr domain.Address, ag domain.Agency, req domain.AgencyRequest) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(insertAddressSQL), addr.ID, addr.CityID, addr.Street, addr.HouseNumber); err != nil {
			return fmt.Errorf("insert address: %w", translate(err, nil))
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(insertAgencySQL), ag.ID, ag.Name, ag.PhoneNumber, ag.AddressID); err != nil {
			return translate(err, domain.ErrDuplicateAgency)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(insertRequestSQL), req.ID, req.AccountID, req.AgencyID, req.Created); err != nil {
			return translate(err, domain.ErrDuplicateAgency)
		}
		return nil
	})
}

func (r *Repo) AcceptAgencyRequest(ctx context.Context, req domain.AgencyRequest) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(deleteRequestSQL), req.ID)
		if err != nil {
			return err
		}
		if err := affectedOne(res); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(promoteAccountSQL), req.AgencyID, req.AccountID); err != nil {
			return fmt.Errorf("promote account: %w", err)
		}
		return nil
	})
}

// DeclineAgencyRequest also drops the address created for the proposed agency.
func (r *Repo) DeclineAgencyRequest(ctx context.Context, req domain.AgencyRequest) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(deleteRequestSQL), req.ID)
		if err != nil {
			return err
		}
		if err := affectedOne(res); err != nil {
			return err
		}
		var addressID uuid.UUID
		if err := tx.GetContext(ctx, &addressID, tx.Rebind(agencyAddressSQL), req.AgencyID); err != nil {
			return fmt.Errorf("agency address: %w", translate(err, nil))
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(deleteAgencySQL), req.AgencyID); err != nil {
			return fmt.Errorf("delete agency: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(deleteAddressSQL), addressID); err != nil {
			return fmt.Errorf("delete address: %w", err)
		}
		return nil
	})
}

func (r *Repo) inTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
