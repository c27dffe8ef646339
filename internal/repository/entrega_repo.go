package repository

import (
	"context"

	"ayudasocial/internal/model"
	"ayudasocial/internal/policy"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EntregaFilter struct {
	SolicitudID *uuid.UUID
	Completada  *bool
	Programadas bool // only deliveries with a scheduled date
	Page        int
	Limit       int
}

type EntregaRepository interface {
	Create(ctx context.Context, entrega *model.Entrega) error
	Update(ctx context.Context, entrega *model.Entrega) error
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Entrega, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Entrega, error)
	ListAbiertasForUpdate(ctx context.Context, solicitudID uuid.UUID) ([]model.Entrega, error)
	ExistsByEncargado(ctx context.Context, solicitudID, encargadoID uuid.UUID) (bool, error)
	List(ctx context.Context, scope policy.Scope, filter EntregaFilter) ([]model.Entrega, int64, error)
}

type entregaRepository struct {
	db *gorm.DB
}

func NewEntregaRepository(db *gorm.DB) EntregaRepository {
	return &entregaRepository{db: db}
}

func (r *entregaRepository) Create(ctx context.Context, entrega *model.Entrega) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(entrega).Error
}

func (r *entregaRepository) Update(ctx context.Context, entrega *model.Entrega) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(entrega).Error
}

func (r *entregaRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Entrega, error) {
	var entrega model.Entrega
	if err := forUpdate(GetDB(ctx, r.db)).Where("id = ?", id).First(&entrega).Error; err != nil {
		return nil, err
	}
	return &entrega, nil
}

func (r *entregaRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Entrega, error) {
	var entrega model.Entrega
	if err := GetDB(ctx, r.db).Preload("Encargado").
		First(&entrega, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entrega, nil
}

// ListAbiertasForUpdate locks the deliveries of a request that were never completed
func (r *entregaRepository) ListAbiertasForUpdate(ctx context.Context, solicitudID uuid.UUID) ([]model.Entrega, error) {
	var entregas []model.Entrega
	err := forUpdate(GetDB(ctx, r.db)).
		Where("solicitud_id = ? AND completada = ?", solicitudID, false).
		Order("id").
		Find(&entregas).Error
	return entregas, err
}

func (r *entregaRepository) ExistsByEncargado(ctx context.Context, solicitudID, encargadoID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Entrega{}).
		Where("solicitud_id = ? AND encargado_id = ?", solicitudID, encargadoID).
		Count(&count).Error
	return count > 0, err
}

func (r *entregaRepository) List(ctx context.Context, scope policy.Scope, filter EntregaFilter) ([]model.Entrega, int64, error) {
	var entregas []model.Entrega
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Entrega{}).Scopes(visibleChildren(scope))
	if filter.SolicitudID != nil {
		query = query.Where("solicitud_id = ?", *filter.SolicitudID)
	}
	if filter.Completada != nil {
		query = query.Where("completada = ?", *filter.Completada)
	}
	order := "fecha_entrega DESC"
	if filter.Programadas {
		query = query.Where("fecha_programada IS NOT NULL")
		order = "fecha_programada ASC"
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Encargado").
		Order(order).
		Scopes(paginate(filter.Page, filter.Limit)).
		Find(&entregas).Error; err != nil {
		return nil, 0, err
	}

	return entregas, total, nil
}
