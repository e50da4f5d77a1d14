package repository

import (
	"context"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
