package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// PlanLoader evaluates plan files into products.
//
//go:generate mockgen -source=plan.go -destination=mocks/mock_plan.go -package=mocks
type PlanLoader interface {
	// Load decodes the products defined by one plan file.
	Load(ctx context.Context, plan domain.FileContent) ([]*domain.Product, error)
}
