package repository

import (
	"context"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/entity"
)

type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}
