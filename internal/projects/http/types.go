package http

import (
	"context"

	"github.com/GoSim-25-26J-441/projects-backend/internal/projects/domain"
)

// ProjectService is what the handlers need from the service layer.
type ProjectService interface {
	FindMany(ctx context.Context, p domain.ListParams) (*domain.ListResult, error)
	Create(ctx context.Context, in domain.CreateInput) (*domain.Project, error)
	Update(ctx context.Context, in domain.UpdateInput) (*domain.Project, error)
	Delete(ctx context.Context, id int64) (*domain.Project, error)
	CreateMany(ctx context.Context, in []domain.CreateInput) (*domain.BatchCreateResult, error)
	DeleteMany(ctx context.Context, ids []int64) (int, error)
	DeleteAll(ctx context.Context) (int, error)
	ExcludeNames() []string
}

// Handler bundles the dependencies for projects HTTP endpoints.
type Handler struct {
	svc ProjectService
}

func New(svc ProjectService) *Handler {
	return &Handler{svc: svc}
}

type listQuery struct {
	Page   *int   `form:"page" binding:"omitempty,min=1"`
	Limit  *int   `form:"limit" binding:"omitempty,min=1,max=100"`
	Search string `form:"search" binding:"max=255"`
}

type projectReq struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

type updateReq struct {
	ID          int64   `json:"id" binding:"required,min=1"`
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

type deleteReq struct {
	ID int64 `json:"id" binding:"required,min=1"`
}
