package domain

import (
	"time"

	"github.com/GoSim-25-26J-441/projects-backend/internal/pagination"
)

const (
	MaxNameLength        = 255
	MaxDescriptionLength = 500
)

// Project is a single named project row.
type Project struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// ListParams filters and pages a project listing. Regions match as substrings of the name.
type ListParams struct {
	Page    int
	Limit   int
	Search  string
	Regions []string
}

// ListResult is the payload returned for a listing and the value stored in the cache.
type ListResult struct {
	Success    bool                  `json:"success"`
	Data       []Project             `json:"data"`
	Pagination pagination.Pagination `json:"pagination"`
}

type CreateInput struct {
	Name        string
	Description *string
}

type UpdateInput struct {
	ID          int64
	Name        string
	Description *string
}

// BatchCreateResult reports which names were inserted and which were skipped as duplicates.
type BatchCreateResult struct {
	Inserted []Project `json:"created"`
	Skipped  []string  `json:"skipped"`
}
