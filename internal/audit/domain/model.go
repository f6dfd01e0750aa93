package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/GoSim-25-26J-441/projects-backend/internal/pagination"
)

// ErrUnknownOperation is returned when the logs table rejects an operation name.
var ErrUnknownOperation = errors.New("unknown log operation")

type Operation string

const (
	OpCreate      Operation = "CREATE"
	OpUpdate      Operation = "UPDATE"
	OpDelete      Operation = "DELETE"
	OpBatchCreate Operation = "BATCH_CREATE"
	OpBatchDelete Operation = "BATCH_DELETE"
	OpDeleteAll   Operation = "DELETE_ALL"
)

// TableProject is the tableName recorded for project mutations.
const TableProject = "Project"

func (o Operation) Valid() bool {
	switch o {
	case OpCreate, OpUpdate, OpDelete, OpBatchCreate, OpBatchDelete, OpDeleteAll:
		return true
	}
	return false
}

// Entry is what callers hand to the recorder. OldData and NewData are
// serialised to JSON when the entry is recorded.
type Entry struct {
	Operation   Operation
	TableName   string
	OldData     any
	NewData     any
	Description string
}

// LogEntry is a stored audit row.
type LogEntry struct {
	ID          int64           `json:"id" db:"id"`
	Operation   Operation       `json:"operation" db:"operation"`
	TableName   string          `json:"tableName" db:"table_name"`
	OldData     json.RawMessage `json:"oldData" db:"old_data"`
	NewData     json.RawMessage `json:"newData" db:"new_data"`
	Description *string         `json:"description" db:"description"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

// Query filters the log listing. Zero values mean "no filter".
type Query struct {
	Page      int
	Limit     int
	Operation string
	TableName string
	StartDate *time.Time
	EndDate   *time.Time
}

type ListResult struct {
	Success    bool                  `json:"success"`
	Data       []LogEntry            `json:"data"`
	Pagination pagination.Pagination `json:"pagination"`
}

type Stat struct {
	Operation Operation `json:"operation" db:"operation"`
	Count     int64     `json:"count" db:"count"`
}
