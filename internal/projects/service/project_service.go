package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	auditdomain "github.com/GoSim-25-26J-441/projects-backend/internal/audit/domain"
	"github.com/GoSim-25-26J-441/projects-backend/internal/cache"
	"github.com/GoSim-25-26J-441/projects-backend/internal/logging"
	"github.com/GoSim-25-26J-441/projects-backend/internal/pagination"
	"github.com/GoSim-25-26J-441/projects-backend/internal/projects/domain"
)

// CachePrefix namespaces every cached project listing.
const CachePrefix = "projects"

const DefaultCacheTTL = 60 * time.Second

type ProjectStore interface {
	List(ctx context.Context, p domain.ListParams) ([]domain.Project, error)
	Count(ctx context.Context, p domain.ListParams) (int64, error)
	GetByID(ctx context.Context, id int64, forUpdate bool) (*domain.Project, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	ExistingNames(ctx context.Context, names []string) ([]string, error)
	Create(ctx context.Context, in domain.CreateInput) (*domain.Project, error)
	CreateMany(ctx context.Context, in []domain.CreateInput) ([]domain.Project, error)
	Update(ctx context.Context, in domain.UpdateInput) (*domain.Project, error)
	Delete(ctx context.Context, id int64) (*domain.Project, error)
	DeleteMany(ctx context.Context, ids []int64) ([]domain.Project, error)
	DeleteAll(ctx context.Context) ([]domain.Project, error)
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Cache is the subset of the cache gateway the service needs. Implementations
// swallow their own errors.
type Cache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	InvalidatePrefix(ctx context.Context, prefix string) int
}

type Auditor interface {
	Record(ctx context.Context, e auditdomain.Entry)
}

type Options struct {
	CacheTTL     time.Duration
	ExcludeNames []string
}

// ProjectService handles project business logic. Every successful mutation
// is followed by cache invalidation and then by exactly one audit entry.
type ProjectService struct {
	store   ProjectStore
	tx      TxRunner
	cache   Cache
	audit   Auditor
	ttl     time.Duration
	exclude []string
}

func NewProjectService(store ProjectStore, tx TxRunner, c Cache, a Auditor, opts Options) *ProjectService {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	exclude := make([]string, len(opts.ExcludeNames))
	copy(exclude, opts.ExcludeNames)

	return &ProjectService{
		store:   store,
		tx:      tx,
		cache:   c,
		audit:   a,
		ttl:     opts.CacheTTL,
		exclude: exclude,
	}
}

// ListCacheKey is the cache key for a listing request.
func ListCacheKey(p domain.ListParams) string {
	return cache.GenerateKey(CachePrefix, map[string]any{
		"page":        p.Page,
		"limit":       p.Limit,
		"search":      p.Search,
		"chinaRegion": p.Regions,
	})
}

// FindMany returns one page of projects. A cached snapshot is returned as-is
// when present; otherwise the page and total are read concurrently and cached.
func (s *ProjectService) FindMany(ctx context.Context, p domain.ListParams) (*domain.ListResult, error) {
	p = normalizeListParams(p)
	key := ListCacheKey(p)

	var cached domain.ListResult
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	var (
		items []domain.Project
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.store.List(gctx, p)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.Count(gctx, p)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Project{}
	}

	res := &domain.ListResult{
		Success:    true,
		Data:       items,
		Pagination: pagination.New(p.Page, p.Limit, total),
	}
	s.cache.Set(ctx, key, res, s.ttl)
	return res, nil
}

func (s *ProjectService) Create(ctx context.Context, in domain.CreateInput) (*domain.Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in.Name, in.Description); err != nil {
		return nil, err
	}

	exists, err := s.store.ExistsByName(ctx, in.Name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateName
	}

	p, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, auditdomain.Entry{
		Operation:   auditdomain.OpCreate,
		NewData:     p,
		Description: "created project: " + p.Name,
	})
	logging.FromContext(ctx).Info("project created", "id", p.ID, "name", p.Name)
	return p, nil
}

// Update replaces name and description of an existing project. The row is
// locked for the duration of the name check and the write.
func (s *ProjectService) Update(ctx context.Context, in domain.UpdateInput) (*domain.Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.ID < 1 {
		return nil, fmt.Errorf("%w: id must be positive", domain.ErrValidation)
	}
	if err := validate(in.Name, in.Description); err != nil {
		return nil, err
	}

	var before, after *domain.Project
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		before, err = s.store.GetByID(ctx, in.ID, true)
		if err != nil {
			return err
		}

		if in.Name != before.Name {
			exists, err := s.store.ExistsByName(ctx, in.Name, in.ID)
			if err != nil {
				return err
			}
			if exists {
				return domain.ErrDuplicateName
			}
		}

		after, err = s.store.Update(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, auditdomain.Entry{
		Operation:   auditdomain.OpUpdate,
		OldData:     before,
		NewData:     after,
		Description: "updated project: " + after.Name,
	})
	logging.FromContext(ctx).Info("project updated", "id", after.ID)
	return after, nil
}

func (s *ProjectService) Delete(ctx context.Context, id int64) (*domain.Project, error) {
	if id < 1 {
		return nil, fmt.Errorf("%w: id must be positive", domain.ErrValidation)
	}

	p, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, auditdomain.Entry{
		Operation:   auditdomain.OpDelete,
		OldData:     p,
		Description: "deleted project: " + p.Name,
	})
	logging.FromContext(ctx).Info("project deleted", "id", p.ID)
	return p, nil
}

// CreateMany inserts every input whose name is not taken. Names already
// stored, repeated within the input (first occurrence wins) or claimed by a
// concurrent writer are reported in Skipped, in input order.
func (s *ProjectService) CreateMany(ctx context.Context, in []domain.CreateInput) (*domain.BatchCreateResult, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: at least one project is required", domain.ErrValidation)
	}

	names := make([]string, len(in))
	for i := range in {
		in[i].Name = strings.TrimSpace(in[i].Name)
		if err := validate(in[i].Name, in[i].Description); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		names[i] = in[i].Name
	}

	existing, err := s.store.ExistingNames(ctx, names)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(existing)+len(in))
	for _, n := range existing {
		taken[n] = struct{}{}
	}

	candidates := make([]domain.CreateInput, 0, len(in))
	for _, item := range in {
		if _, ok := taken[item.Name]; ok {
			continue
		}
		taken[item.Name] = struct{}{}
		candidates = append(candidates, item)
	}

	var inserted []domain.Project
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		inserted, err = s.store.CreateMany(ctx, candidates)
		return err
	})
	if err != nil {
		return nil, err
	}
	if inserted == nil {
		inserted = []domain.Project{}
	}

	// Every input position that did not produce a row is skipped; the first
	// inserted occurrence of a name consumes it.
	remaining := make(map[string]int, len(inserted))
	for _, p := range inserted {
		remaining[p.Name]++
	}
	skipped := make([]string, 0, len(in)-len(inserted))
	for _, item := range in {
		if remaining[item.Name] > 0 {
			remaining[item.Name]--
			continue
		}
		skipped = append(skipped, item.Name)
	}

	s.afterMutation(ctx, auditdomain.Entry{
		Operation:   auditdomain.OpBatchCreate,
		NewData:     inserted,
		Description: fmt.Sprintf("batch created projects: %d/%d inserted", len(inserted), len(in)),
	})
	logging.FromContext(ctx).Info("projects batch created", "inserted", len(inserted), "skipped", len(skipped))

	return &domain.BatchCreateResult{Inserted: inserted, Skipped: skipped}, nil
}

// DeleteMany removes the given ids; unknown ids are ignored. It returns the
// number of rows removed.
func (s *ProjectService) DeleteMany(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: at least one id is required", domain.ErrValidation)
	}
	for _, id := range ids {
		if id < 1 {
			return 0, fmt.Errorf("%w: id must be positive", domain.ErrValidation)
		}
	}

	deleted, err := s.store.DeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}

	s.afterMutation(ctx, auditdomain.Entry{
		Operation:   auditdomain.OpBatchDelete,
		OldData:     nonNil(deleted),
		Description: fmt.Sprintf("batch deleted projects: %d removed", len(deleted)),
	})
	logging.FromContext(ctx).Info("projects batch deleted", "requested", len(ids), "deleted", len(deleted))
	return len(deleted), nil
}

// DeleteAll empties the projects table. Zero rows is a success.
func (s *ProjectService) DeleteAll(ctx context.Context) (int, error) {
	deleted, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}

	s.afterMutation(ctx, auditdomain.Entry{
		Operation:   auditdomain.OpDeleteAll,
		OldData:     nonNil(deleted),
		Description: fmt.Sprintf("deleted all projects: %d removed", len(deleted)),
	})
	logging.FromContext(ctx).Warn("all projects deleted", "deleted", len(deleted))
	return len(deleted), nil
}

// ExcludeNames returns the configured list of names hidden by clients.
func (s *ProjectService) ExcludeNames() []string {
	out := make([]string, len(s.exclude))
	copy(out, s.exclude)
	return out
}

// afterMutation runs once the store write has committed. Neither step may be
// cut short by the caller going away.
func (s *ProjectService) afterMutation(ctx context.Context, e auditdomain.Entry) {
	ctx = context.WithoutCancel(ctx)
	s.cache.InvalidatePrefix(ctx, CachePrefix)

	e.TableName = auditdomain.TableProject
	s.audit.Record(ctx, e)
}

func normalizeListParams(p domain.ListParams) domain.ListParams {
	if p.Page < 1 {
		p.Page = pagination.DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = pagination.DefaultLimit
	}
	if p.Limit > pagination.MaxLimit {
		p.Limit = pagination.MaxLimit
	}
	p.Search = strings.TrimSpace(p.Search)
	return p
}

func validate(name string, description *string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(name) > domain.MaxNameLength {
		return fmt.Errorf("%w: name must be at most %d characters", domain.ErrValidation, domain.MaxNameLength)
	}
	if description != nil && utf8.RuneCountInString(*description) > domain.MaxDescriptionLength {
		return fmt.Errorf("%w: description must be at most %d characters", domain.ErrValidation, domain.MaxDescriptionLength)
	}
	return nil
}

func nonNil(ps []domain.Project) []domain.Project {
	if ps == nil {
		return []domain.Project{}
	}
	return ps
}
