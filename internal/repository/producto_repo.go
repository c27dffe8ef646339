package repository

import (
	"context"
	"strings"

	"ayudasocial/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductoFilter struct {
	Search      string
	Disponibles bool // only products with stock on hand
	Page        int
	Limit       int
}

type ProductoRepository interface {
	Create(ctx context.Context, producto *model.Producto) error
	Update(ctx context.Context, producto *model.Producto) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	FindByCodigo(ctx context.Context, codigo string) (*model.Producto, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	List(ctx context.Context, filter ProductoFilter) ([]model.Producto, int64, error)
}

type productoRepository struct {
	db *gorm.DB
}

func NewProductoRepository(db *gorm.DB) ProductoRepository {
	return &productoRepository{db: db}
}

func (r *productoRepository) Create(ctx context.Context, producto *model.Producto) error {
	return GetDB(ctx, r.db).Create(producto).Error
}

func (r *productoRepository) Update(ctx context.Context, producto *model.Producto) error {
	return GetDB(ctx, r.db).Save(producto).Error
}

// Delete is a soft delete; delivery lines keep their snapshot of the product
func (r *productoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Producto{}).Error
}

func (r *productoRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var producto model.Producto
	if err := GetDB(ctx, r.db).First(&producto, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &producto, nil
}

// FindByCodigo also sees deleted products, since codigo stays unique across them
func (r *productoRepository) FindByCodigo(ctx context.Context, codigo string) (*model.Producto, error) {
	var producto model.Producto
	if err := GetDB(ctx, r.db).Unscoped().Where("codigo = ?", codigo).First(&producto).Error; err != nil {
		return nil, err
	}
	return &producto, nil
}

func (r *productoRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var producto model.Producto
	if err := forUpdate(GetDB(ctx, r.db)).Where("id = ?", id).First(&producto).Error; err != nil {
		return nil, err
	}
	return &producto, nil
}

func (r *productoRepository) List(ctx context.Context, filter ProductoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Producto{})
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(nombre) LIKE ? OR LOWER(codigo) LIKE ?", like, like)
	}
	if filter.Disponibles {
		query = query.Where("stock_actual > 0")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("nombre ASC").Scopes(paginate(filter.Page, filter.Limit)).Find(&productos).Error; err != nil {
		return nil, 0, err
	}

	return productos, total, nil
}
