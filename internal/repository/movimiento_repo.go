package repository

import (
	"context"

	"ayudasocial/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoRepository stores the stock card of each product
type MovimientoRepository interface {
	Create(ctx context.Context, mov *model.MovimientoStock) error
	ListByProducto(ctx context.Context, productoID uuid.UUID, page, limit int) ([]model.MovimientoStock, int64, error)
}

type movimientoRepository struct {
	db *gorm.DB
}

func NewMovimientoRepository(db *gorm.DB) MovimientoRepository {
	return &movimientoRepository{db: db}
}

func (r *movimientoRepository) Create(ctx context.Context, mov *model.MovimientoStock) error {
	return GetDB(ctx, r.db).Create(mov).Error
}

func (r *movimientoRepository) ListByProducto(ctx context.Context, productoID uuid.UUID, page, limit int) ([]model.MovimientoStock, int64, error) {
	var movimientos []model.MovimientoStock
	var total int64

	query := GetDB(ctx, r.db).Model(&model.MovimientoStock{}).Where("producto_id = ?", productoID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").Scopes(paginate(page, limit)).Find(&movimientos).Error; err != nil {
		return nil, 0, err
	}
	return movimientos, total, nil
}
