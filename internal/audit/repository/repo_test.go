package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/projects-backend/internal/audit/domain"
)

var logColumns = []string{"id", "operation", "table_name", "old_data", "new_data", "description", "created_at"}

func newMockRepo(t *testing.T) (*Repo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(mock), mock
}

func TestRepo_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	newData := []byte(`{"name":"A"}`)
	desc := "created A"

	mock.ExpectExec(`INSERT INTO logs`).
		WithArgs("CREATE", "Project", []byte(nil), newData, &desc).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), domain.OpCreate, domain.TableProject, nil, newData, desc)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Create_EmptyDescriptionIsNull(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO logs`).
		WithArgs("DELETE_ALL", "Project", []byte(`[]`), []byte(nil), (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), domain.OpDeleteAll, domain.TableProject, []byte(`[]`), nil, "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Create_RejectedOperation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO logs`).
		WithArgs("RENAME", "Project", []byte(nil), []byte(nil), (*string)(nil)).
		WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "logs_operation_check"})

	err := repo.Create(context.Background(), domain.Operation("RENAME"), domain.TableProject, nil, nil, "")
	assert.ErrorIs(t, err, domain.ErrUnknownOperation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_List_WithFilters(t *testing.T) {
	repo, mock := newMockRepo(t)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	desc := "d"

	rows := pgxmock.NewRows(logColumns).
		AddRow(int64(3), domain.OpUpdate, "Project", json.RawMessage(`{"name":"A"}`), json.RawMessage(`{"name":"B"}`), &desc, start)
	mock.ExpectQuery(`SELECT .* FROM logs WHERE operation = \$1 AND table_name = \$2 AND created_at >= \$3 AND created_at <= \$4 ORDER BY created_at DESC, id DESC LIMIT 20 OFFSET 20`).
		WithArgs("UPDATE", "Project", start, end).
		WillReturnRows(rows)

	out, err := repo.List(context.Background(), domain.Query{
		Page: 2, Limit: 20, Operation: "UPDATE", TableName: "Project", StartDate: &start, EndDate: &end,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.OpUpdate, out[0].Operation)
	assert.JSONEq(t, `{"name":"B"}`, string(out[0].NewData))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Count(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM logs$`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))

	total, err := repo.Count(context.Background(), domain.Query{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(42), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Stats(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT operation, COUNT\(\*\) AS count FROM logs GROUP BY operation`).
		WillReturnRows(pgxmock.NewRows([]string{"operation", "count"}).
			AddRow(domain.OpCreate, int64(5)).
			AddRow(domain.OpDelete, int64(2)))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Stat{{Operation: domain.OpCreate, Count: 5}, {Operation: domain.OpDelete, Count: 2}}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
