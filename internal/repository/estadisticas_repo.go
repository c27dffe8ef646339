package repository

import (
	"context"
	"fmt"
	"time"

	"ayudasocial/internal/model"
	"ayudasocial/internal/policy"

	"gorm.io/gorm"
)

type EstadisticasRepository interface {
	ContarPorEstado(ctx context.Context, scope policy.Scope, desde, hasta time.Time) ([]model.EstadoCount, error)
	ContarInspeccionesPendientes(ctx context.Context, scope policy.Scope) (int64, error)
	ContarEntregasAbiertas(ctx context.Context, scope policy.Scope) (int64, error)
	TopProductosEntregados(ctx context.Context, desde, hasta time.Time, limit int) ([]model.ProductoRanking, error)
}

type estadisticasRepository struct {
	db *gorm.DB
}

func NewEstadisticasRepository(db *gorm.DB) EstadisticasRepository {
	return &estadisticasRepository{db: db}
}

// ContarPorEstado counts the requests in scope created within [desde, hasta], grouped by state
func (r *estadisticasRepository) ContarPorEstado(ctx context.Context, scope policy.Scope, desde, hasta time.Time) ([]model.EstadoCount, error) {
	var counts []model.EstadoCount
	if err := GetDB(ctx, r.db).Model(&model.Solicitud{}).
		Scopes(visibleSolicitudes(scope)).
		Select("estado, COUNT(*) as total").
		Where("fecha_creacion >= ? AND fecha_creacion <= ?", desde, hasta).
		Group("estado").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count solicitudes: %w", err)
	}
	return counts, nil
}

func (r *estadisticasRepository) ContarInspeccionesPendientes(ctx context.Context, scope policy.Scope) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Inspeccion{}).
		Scopes(visibleChildren(scope)).
		Where("resultado = ?", model.ResultadoPendiente).
		Count(&total).Error
	return total, err
}

func (r *estadisticasRepository) ContarEntregasAbiertas(ctx context.Context, scope policy.Scope) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Entrega{}).
		Scopes(visibleChildren(scope)).
		Where("completada = ?", false).
		Count(&total).Error
	return total, err
}

// TopProductosEntregados ranks products by units taken out of stock by completed deliveries.
// Deleted products keep their place in the ranking.
func (r *estadisticasRepository) TopProductosEntregados(ctx context.Context, desde, hasta time.Time, limit int) ([]model.ProductoRanking, error) {
	var rankings []model.ProductoRanking
	if err := GetDB(ctx, r.db).Table("movimientos_stock").
		Select("productos.id as producto_id, productos.nombre as nombre, productos.codigo as codigo, SUM(-movimientos_stock.cantidad) as total_cantidad").
		Joins("JOIN productos ON productos.id = movimientos_stock.producto_id").
		Where("movimientos_stock.tipo = ? AND movimientos_stock.created_at >= ? AND movimientos_stock.created_at <= ?", model.MovimientoEntrega, desde, hasta).
		Group("productos.id, productos.nombre, productos.codigo").
		Order("total_cantidad DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top productos: %w", err)
	}
	return rankings, nil
}
