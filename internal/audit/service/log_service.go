package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/projects-backend/internal/audit/domain"
	"github.com/GoSim-25-26J-441/projects-backend/internal/pagination"
)

type LogStore interface {
	List(ctx context.Context, q domain.Query) ([]domain.LogEntry, error)
	Count(ctx context.Context, q domain.Query) (int64, error)
	Stats(ctx context.Context) ([]domain.Stat, error)
}

// LogService answers read queries over the audit log.
type LogService struct {
	store LogStore
}

func NewLogService(store LogStore) *LogService {
	return &LogService{store: store}
}

// List returns one page of entries, newest first, together with the total
// count under the same filters.
func (s *LogService) List(ctx context.Context, q domain.Query) (*domain.ListResult, error) {
	if q.Page < 1 {
		q.Page = pagination.DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = pagination.DefaultLimit
	}
	if q.Limit > pagination.MaxLimit {
		q.Limit = pagination.MaxLimit
	}

	var (
		entries []domain.LogEntry
		total   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.store.List(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.Count(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.ListResult{
		Success:    true,
		Data:       entries,
		Pagination: pagination.New(q.Page, q.Limit, total),
	}, nil
}

func (s *LogService) Stats(ctx context.Context) ([]domain.Stat, error) {
	return s.store.Stats(ctx)
}
