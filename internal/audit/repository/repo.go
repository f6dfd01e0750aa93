package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/GoSim-25-26J-441/projects-backend/internal/audit/domain"
	"github.com/GoSim-25-26J-441/projects-backend/internal/pagination"
	"github.com/GoSim-25-26J-441/projects-backend/internal/storage/postgres"
)

const columns = "id, operation, table_name, old_data, new_data, description, created_at"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo persists audit rows. The table is append-only: there is no update or delete.
type Repo struct {
	db postgres.Querier
}

func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// Create inserts one audit row. oldData and newData are raw JSON; nil is stored as NULL.
func (r *Repo) Create(ctx context.Context, op domain.Operation, table string, oldData, newData []byte, description string) error {
	const q = `
INSERT INTO logs (operation, table_name, old_data, new_data, description)
VALUES ($1, $2, $3, $4, $5)`

	var desc *string
	if description != "" {
		desc = &description
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, q, string(op), table, oldData, newData, desc); err != nil {
		if postgres.IsCheckViolation(err) {
			return fmt.Errorf("insert log %q: %w", op, domain.ErrUnknownOperation)
		}
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

func (r *Repo) List(ctx context.Context, query domain.Query) ([]domain.LogEntry, error) {
	b := psql.Select(columns).
		From("logs").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(query.Limit)).
		Offset(uint64(pagination.Offset(query.Page, query.Limit)))
	b = applyFilters(b, query)

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build log query: %w", err)
	}

	out := make([]domain.LogEntry, 0, query.Limit)
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &out, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return out, nil
}

func (r *Repo) Count(ctx context.Context, query domain.Query) (int64, error) {
	sqlStr, args, err := applyFilters(psql.Select("COUNT(*)").From("logs"), query).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build log count: %w", err)
	}

	var total int64
	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count logs: %w", err)
	}
	return total, nil
}

// Stats counts rows per operation.
func (r *Repo) Stats(ctx context.Context) ([]domain.Stat, error) {
	const q = `SELECT operation, COUNT(*) AS count FROM logs GROUP BY operation ORDER BY operation`

	out := []domain.Stat{}
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &out, q); err != nil {
		return nil, fmt.Errorf("log stats: %w", err)
	}
	return out, nil
}

func applyFilters(b sq.SelectBuilder, query domain.Query) sq.SelectBuilder {
	if query.Operation != "" {
		b = b.Where(sq.Eq{"operation": query.Operation})
	}
	if query.TableName != "" {
		b = b.Where(sq.Eq{"table_name": query.TableName})
	}
	if query.StartDate != nil {
		b = b.Where(sq.GtOrEq{"created_at": *query.StartDate})
	}
	if query.EndDate != nil {
		b = b.Where(sq.LtOrEq{"created_at": *query.EndDate})
	}
	return b
}
