package repository

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/GoSim-25-26J-441/projects-backend/internal/pagination"
	"github.com/GoSim-25-26J-441/projects-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/projects-backend/internal/storage/postgres"
)

const (
	table   = "projects"
	columns = "id, name, description, created_at, updated_at"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides persistence operations for projects. Every method runs on the
// transaction carried by ctx when there is one.
type Repo struct {
	db postgres.Querier
}

func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

func (r *Repo) q(ctx context.Context) postgres.Querier {
	return postgres.QuerierFromCtx(ctx, r.db)
}

// List returns one page of projects ordered newest first.
func (r *Repo) List(ctx context.Context, p domain.ListParams) ([]domain.Project, error) {
	query := psql.Select(columns).
		From(table).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(p.Limit)).
		Offset(uint64(pagination.Offset(p.Page, p.Limit)))
	query = applyFilters(query, p)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	out := make([]domain.Project, 0, p.Limit)
	if err := pgxscan.Select(ctx, r.q(ctx), &out, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

// Count returns the number of projects matching the same filters as List.
func (r *Repo) Count(ctx context.Context, p domain.ListParams) (int64, error) {
	query := applyFilters(psql.Select("COUNT(*)").From(table), p)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err := r.q(ctx).QueryRow(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return total, nil
}

func applyFilters(b sq.SelectBuilder, p domain.ListParams) sq.SelectBuilder {
	if s := strings.TrimSpace(p.Search); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		b = b.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"description": pattern},
		})
	}

	regions := sq.Or{}
	for _, region := range p.Regions {
		region = strings.TrimSpace(region)
		if region == "" {
			continue
		}
		regions = append(regions, sq.Like{"name": "%" + escapeLike(region) + "%"})
	}
	if len(regions) > 0 {
		b = b.Where(regions)
	}
	return b
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// GetByID loads a project. With forUpdate the row stays locked until the
// surrounding transaction ends.
func (r *Repo) GetByID(ctx context.Context, id int64, forUpdate bool) (*domain.Project, error) {
	q := `SELECT ` + columns + ` FROM projects WHERE id = $1`
	if forUpdate {
		q += ` FOR UPDATE`
	}

	var p domain.Project
	if err := pgxscan.Get(ctx, r.q(ctx), &p, q, id); err != nil {
		if postgres.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return &p, nil
}

// ExistsByName reports whether a project other than excludeID owns name.
// Pass 0 to check against every row.
func (r *Repo) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM projects WHERE name = $1 AND id <> $2)`

	var exists bool
	if err := r.q(ctx).QueryRow(ctx, q, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check project name: %w", err)
	}
	return exists, nil
}

// ExistingNames returns the subset of names already stored.
func (r *Repo) ExistingNames(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return []string{}, nil
	}

	const q = `SELECT name FROM projects WHERE name = ANY($1)`

	out := []string{}
	if err := pgxscan.Select(ctx, r.q(ctx), &out, q, names); err != nil {
		return nil, fmt.Errorf("find existing names: %w", err)
	}
	return out, nil
}

func (r *Repo) Create(ctx context.Context, in domain.CreateInput) (*domain.Project, error) {
	const q = `
INSERT INTO projects (name, description)
VALUES ($1, $2)
RETURNING ` + columns

	var p domain.Project
	if err := pgxscan.Get(ctx, r.q(ctx), &p, q, in.Name, in.Description); err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return &p, nil
}

// batchInsertSize bounds the rows per INSERT so a statement stays well below
// the 65535 bind parameter limit of the extended protocol.
var batchInsertSize = 1000

// CreateMany inserts the rows in chunks of batchInsertSize. Rows whose name is
// already taken are silently left out of the result. Callers wanting all or
// nothing run it inside a transaction.
func (r *Repo) CreateMany(ctx context.Context, in []domain.CreateInput) ([]domain.Project, error) {
	out := make([]domain.Project, 0, len(in))
	for start := 0; start < len(in); start += batchInsertSize {
		end := min(start+batchInsertSize, len(in))

		insert := psql.Insert(table).Columns("name", "description")
		for _, item := range in[start:end] {
			insert = insert.Values(item.Name, item.Description)
		}
		insert = insert.Suffix("ON CONFLICT (name) DO NOTHING RETURNING " + columns)

		sqlStr, args, err := insert.ToSql()
		if err != nil {
			return nil, fmt.Errorf("build batch insert: %w", err)
		}

		var chunk []domain.Project
		if err := pgxscan.Select(ctx, r.q(ctx), &chunk, sqlStr, args...); err != nil {
			return nil, fmt.Errorf("batch insert projects: %w", err)
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func (r *Repo) Update(ctx context.Context, in domain.UpdateInput) (*domain.Project, error) {
	const q = `
UPDATE projects
SET name = $2, description = $3, updated_at = now()
WHERE id = $1
RETURNING ` + columns

	var rows []domain.Project
	if err := pgxscan.Select(ctx, r.q(ctx), &rows, q, in.ID, in.Name, in.Description); err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, fmt.Errorf("update project %d: %w", in.ID, err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return &rows[0], nil
}

// Delete removes a project and returns the row as it was.
func (r *Repo) Delete(ctx context.Context, id int64) (*domain.Project, error) {
	const q = `DELETE FROM projects WHERE id = $1 RETURNING ` + columns

	var rows []domain.Project
	if err := pgxscan.Select(ctx, r.q(ctx), &rows, q, id); err != nil {
		return nil, fmt.Errorf("delete project %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return &rows[0], nil
}

// DeleteMany removes the listed ids and returns the deleted rows. Unknown ids are ignored.
func (r *Repo) DeleteMany(ctx context.Context, ids []int64) ([]domain.Project, error) {
	if len(ids) == 0 {
		return []domain.Project{}, nil
	}

	const q = `DELETE FROM projects WHERE id = ANY($1) RETURNING ` + columns

	out := []domain.Project{}
	if err := pgxscan.Select(ctx, r.q(ctx), &out, q, ids); err != nil {
		return nil, fmt.Errorf("delete projects: %w", err)
	}
	return out, nil
}

// DeleteAll empties the table and returns every row that was removed.
func (r *Repo) DeleteAll(ctx context.Context) ([]domain.Project, error) {
	const q = `DELETE FROM projects RETURNING ` + columns

	out := []domain.Project{}
	if err := pgxscan.Select(ctx, r.q(ctx), &out, q); err != nil {
		return nil, fmt.Errorf("delete all projects: %w", err)
	}
	return out, nil
}
