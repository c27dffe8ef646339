package repository

import (
	"context"

	"ayudasocial/internal/model"
	"ayudasocial/internal/policy"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SolicitudFilter narrows a request listing beyond what the caller's scope allows
type SolicitudFilter struct {
	Estado      model.EstadoSolicitud
	CiudadanoID *uuid.UUID
	Page        int
	Limit       int
}

type SolicitudRepository interface {
	Create(ctx context.Context, sol *model.Solicitud) error
	Update(ctx context.Context, sol *model.Solicitud) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Solicitud, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Solicitud, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Solicitud, error)
	List(ctx context.Context, scope policy.Scope, filter SolicitudFilter) ([]model.Solicitud, int64, error)
}

type solicitudRepository struct {
	db *gorm.DB
}

func NewSolicitudRepository(db *gorm.DB) SolicitudRepository {
	return &solicitudRepository{db: db}
}

func (r *solicitudRepository) Create(ctx context.Context, sol *model.Solicitud) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(sol).Error
}

func (r *solicitudRepository) Update(ctx context.Context, sol *model.Solicitud) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(sol).Error
}

func (r *solicitudRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Solicitud, error) {
	var sol model.Solicitud
	if err := GetDB(ctx, r.db).First(&sol, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sol, nil
}

func (r *solicitudRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Solicitud, error) {
	var sol model.Solicitud
	if err := forUpdate(GetDB(ctx, r.db)).Where("id = ?", id).First(&sol).Error; err != nil {
		return nil, err
	}
	return &sol, nil
}

func (r *solicitudRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Solicitud, error) {
	var sol model.Solicitud
	if err := GetDB(ctx, r.db).
		Preload("Ciudadano").Preload("CreadoPor").Preload("Representante").
		First(&sol, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sol, nil
}

func (r *solicitudRepository) List(ctx context.Context, scope policy.Scope, filter SolicitudFilter) ([]model.Solicitud, int64, error) {
	var solicitudes []model.Solicitud
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Solicitud{}).Scopes(visibleSolicitudes(scope))
	if filter.Estado != "" {
		query = query.Where("estado = ?", filter.Estado)
	}
	if filter.CiudadanoID != nil {
		query = query.Where("ciudadano_id = ?", *filter.CiudadanoID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Ciudadano").
		Order("fecha_creacion DESC").
		Scopes(paginate(filter.Page, filter.Limit)).
		Find(&solicitudes).Error; err != nil {
		return nil, 0, err
	}

	return solicitudes, total, nil
}
