package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"tours_manager/internal/domain"
)

// ImportService loads reference data into the catalog in parallel batches.
type ImportService struct {
	repo      domain.CatalogRepository
	workers   int64
	batchSize int
}

func NewImportService(r domain.CatalogRepository, workers, batchSize int) *ImportService {
	if workers < 1 {
		workers = 1
	}
	if batchSize < 1 {
		batchSize = 100
	}
	return &ImportService{repo: r, workers: int64(workers), batchSize: batchSize}
}

// ImportCountries upserts cs and returns how many rows were written. The first
// failing batch cancels the rest.
func (s *ImportService) ImportCountries(ctx context.Context, cs []domain.Country) (int, error) {
	sem := semaphore.NewWeighted(s.workers)
	g, gctx := errgroup.WithContext(ctx)

	batches := 0
	for start := 0; start < len(cs); start += s.batchSize {
		batch := cs[start:min(start+s.batchSize, len(cs))]
		batches++

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := s.repo.UpsertCountries(gctx, batch); err != nil {
				return fmt.Errorf("countries %s..%s: %w", batch[0].Name, batch[len(batch)-1].Name, err)
			}
			log.Debug().Int("rows", len(batch)).Str("first", batch[0].Name).Msg("country batch imported")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	log.Info().Int("countries", len(cs)).Int("batches", batches).Msg("countries imported")
	return len(cs), nil
}
