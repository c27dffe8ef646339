package repository

import (
	"context"

	"ayudasocial/internal/model"
	"ayudasocial/internal/policy"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InspeccionFilter struct {
	SolicitudID *uuid.UUID
	Resultado   model.ResultadoInspeccion
	Programadas bool // only inspections with a scheduled date
	Page        int
	Limit       int
}

type InspeccionRepository interface {
	Create(ctx context.Context, insp *model.Inspeccion) error
	Update(ctx context.Context, insp *model.Inspeccion) error
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Inspeccion, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Inspeccion, error)
	HasPendiente(ctx context.Context, solicitudID uuid.UUID) (bool, error)
	ExistsByInspector(ctx context.Context, solicitudID, inspectorID uuid.UUID) (bool, error)
	List(ctx context.Context, scope policy.Scope, filter InspeccionFilter) ([]model.Inspeccion, int64, error)
}

type inspeccionRepository struct {
	db *gorm.DB
}

func NewInspeccionRepository(db *gorm.DB) InspeccionRepository {
	return &inspeccionRepository{db: db}
}

func (r *inspeccionRepository) Create(ctx context.Context, insp *model.Inspeccion) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(insp).Error
}

func (r *inspeccionRepository) Update(ctx context.Context, insp *model.Inspeccion) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(insp).Error
}

func (r *inspeccionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Inspeccion, error) {
	var insp model.Inspeccion
	if err := forUpdate(GetDB(ctx, r.db)).Where("id = ?", id).First(&insp).Error; err != nil {
		return nil, err
	}
	return &insp, nil
}

func (r *inspeccionRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Inspeccion, error) {
	var insp model.Inspeccion
	if err := GetDB(ctx, r.db).Preload("Inspector").
		First(&insp, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &insp, nil
}

func (r *inspeccionRepository) HasPendiente(ctx context.Context, solicitudID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Inspeccion{}).
		Where("solicitud_id = ? AND resultado = ?", solicitudID, model.ResultadoPendiente).
		Count(&count).Error
	return count > 0, err
}

func (r *inspeccionRepository) ExistsByInspector(ctx context.Context, solicitudID, inspectorID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Inspeccion{}).
		Where("solicitud_id = ? AND inspector_id = ?", solicitudID, inspectorID).
		Count(&count).Error
	return count > 0, err
}

func (r *inspeccionRepository) List(ctx context.Context, scope policy.Scope, filter InspeccionFilter) ([]model.Inspeccion, int64, error) {
	var inspecciones []model.Inspeccion
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Inspeccion{}).Scopes(visibleChildren(scope))
	if filter.SolicitudID != nil {
		query = query.Where("solicitud_id = ?", *filter.SolicitudID)
	}
	if filter.Resultado != "" {
		query = query.Where("resultado = ?", filter.Resultado)
	}
	order := "fecha_inspeccion DESC"
	if filter.Programadas {
		query = query.Where("fecha_programada IS NOT NULL")
		order = "fecha_programada ASC"
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Inspector").
		Order(order).
		Scopes(paginate(filter.Page, filter.Limit)).
		Find(&inspecciones).Error; err != nil {
		return nil, 0, err
	}

	return inspecciones, total, nil
}
