package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ayudasocial/internal/model"
	"ayudasocial/internal/policy"
	"ayudasocial/internal/repository"
	"ayudasocial/internal/workflow"
	"ayudasocial/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var (
	maxLat = decimal.NewFromInt(90)
	maxLng = decimal.NewFromInt(180)
)

// DTOs
type CreateInspeccionRequest struct {
	SolicitudID     uuid.UUID `json:"solicitud_id" binding:"required"`
	DireccionVisita string    `json:"direccion_visita" binding:"required"`
	Notas           *string   `json:"notas"`
	FechaProgramada *string   `json:"fecha_programada"` // YYYY-MM-DD
}

type ResultadoInspeccionRequest struct {
	Resultado model.ResultadoInspeccion `json:"resultado" binding:"required"`
	Notas     *string                   `json:"notas"`
	Fotos     []string                  `json:"fotos"`
	Lat       *decimal.Decimal          `json:"lat"`
	Lng       *decimal.Decimal          `json:"lng"`
}

type ListInspeccionesQuery struct {
	SolicitudID *uuid.UUID
	Resultado   model.ResultadoInspeccion
	Programadas bool
	Page        int
	Limit       int
}

type InspeccionService interface {
	Create(ctx context.Context, actor policy.Actor, req CreateInspeccionRequest) (*model.Inspeccion, error)
	RegistrarResultado(ctx context.Context, actor policy.Actor, id uuid.UUID, req ResultadoInspeccionRequest) (*model.Inspeccion, error)
	Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.Inspeccion, error)
	List(ctx context.Context, actor policy.Actor, q ListInspeccionesQuery) ([]model.Inspeccion, int64, error)
}

type inspeccionService struct {
	inspeccionRepo repository.InspeccionRepository
	solicitudRepo  repository.SolicitudRepository
	relaciones     relaciones
	txManager      repository.TransactionManager
	now            Clock
}

func NewInspeccionService(
	inspeccionRepo repository.InspeccionRepository,
	entregaRepo repository.EntregaRepository,
	solicitudRepo repository.SolicitudRepository,
	txManager repository.TransactionManager,
	now Clock,
) InspeccionService {
	if now == nil {
		now = time.Now
	}
	return &inspeccionService{
		inspeccionRepo: inspeccionRepo,
		solicitudRepo:  solicitudRepo,
		relaciones:     relaciones{inspecciones: inspeccionRepo, entregas: entregaRepo},
		txManager:      txManager,
		now:            now,
	}
}

// Create opens an inspection and moves the request into en_inspeccion.
// Only one inspection per request may be pending at a time.
func (s *inspeccionService) Create(ctx context.Context, actor policy.Actor, req CreateInspeccionRequest) (*model.Inspeccion, error) {
	direccion := strings.TrimSpace(req.DireccionVisita)
	if direccion == "" {
		return nil, apperror.Validation("direccion_visita", campoVacio)
	}
	if req.SolicitudID == uuid.Nil {
		return nil, apperror.Validation("solicitud_id", campoVacio)
	}
	fecha, err := parseFecha("fecha_programada", req.FechaProgramada)
	if err != nil {
		return nil, err
	}

	cmd := workflow.AperturaInspeccion(actor.ID)
	insp := &model.Inspeccion{
		SolicitudID:     req.SolicitudID,
		InspectorID:     actor.ID,
		FechaProgramada: fecha,
		Resultado:       model.ResultadoPendiente,
		Notas:           trimmedOrNil(req.Notas),
		DireccionVisita: direccion,
	}

	var res workflow.Result
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sol, err := s.solicitudRepo.FindByIDForUpdate(txCtx, req.SolicitudID)
		if err != nil {
			return referenceErr(err, "solicitud_id", "Solicitud", req.SolicitudID)
		}
		visible, rel, err := s.relaciones.visible(txCtx, actor, sol)
		if err != nil {
			return err
		}
		if !visible {
			return noExiste("solicitud_id", "Solicitud", req.SolicitudID)
		}
		if err := workflow.Check(sol, cmd); err != nil {
			return err
		}
		if err := authorize(actor, policy.CrearInspeccion, sol.Estado, rel); err != nil {
			return err
		}

		pendiente, err := s.inspeccionRepo.HasPendiente(txCtx, sol.ID)
		if err != nil {
			return fmt.Errorf("failed to check pending inspections: %w", err)
		}
		if pendiente {
			return apperror.Conflict("Ya existe una inspección pendiente para esta solicitud")
		}

		if res, err = transitar(txCtx, s.solicitudRepo, sol, cmd, s.now()); err != nil {
			return err
		}
		if err := s.inspeccionRepo.Create(txCtx, insp); err != nil {
			return fmt.Errorf("failed to create inspeccion: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	registrarTransicion(ctx, req.SolicitudID, actor, cmd, res)
	return s.reload(ctx, insp.ID)
}

// RegistrarResultado records the one terminal result of a pending inspection and drives the
// request to aprobado_social or rechazado_social
func (s *inspeccionService) RegistrarResultado(ctx context.Context, actor policy.Actor, id uuid.UUID, req ResultadoInspeccionRequest) (*model.Inspeccion, error) {
	cmd, err := workflow.DesdeResultadoInspeccion(req.Resultado, actor.ID)
	if err != nil {
		return nil, err
	}
	lat, lng, err := coordenadas(req.Lat, req.Lng)
	if err != nil {
		return nil, err
	}

	var (
		res         workflow.Result
		solicitudID uuid.UUID
	)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// request first, then the inspection: the order every writer of a request follows
		actual, err := s.inspeccionRepo.FindByIDWithRelations(txCtx, id)
		if err != nil {
			return loadErr(err, "Inspección", id)
		}
		solicitudID = actual.SolicitudID

		sol, err := s.solicitudRepo.FindByIDForUpdate(txCtx, solicitudID)
		if err != nil {
			return loadErr(err, "Solicitud", solicitudID)
		}
		insp, err := s.inspeccionRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return loadErr(err, "Inspección", id)
		}
		rel := policy.RelationshipTo(actor, sol)
		rel.Inspector = insp.InspectorID == actor.ID
		if !policy.CanPerform(actor, policy.VerInspeccion, sol.Estado, rel) {
			return apperror.NotFound("Inspección", id)
		}

		if insp.Resultado != model.ResultadoPendiente {
			return apperror.Conflict("La inspección ya tiene un resultado registrado (%s)", insp.Resultado)
		}
		if err := workflow.Check(sol, cmd); err != nil {
			return err
		}
		if err := authorize(actor, policy.ResultadoInspeccion, sol.Estado, rel); err != nil {
			return err
		}

		insp.Resultado = req.Resultado
		if req.Notas != nil {
			insp.Notas = trimmedOrNil(req.Notas)
		}
		if req.Fotos != nil {
			insp.Fotos = datatypes.JSONSlice[string](req.Fotos)
		}
		if lat.Valid {
			insp.Lat = lat
		}
		if lng.Valid {
			insp.Lng = lng
		}
		if err := s.inspeccionRepo.Update(txCtx, insp); err != nil {
			return fmt.Errorf("failed to update inspeccion: %w", err)
		}

		res, err = transitar(txCtx, s.solicitudRepo, sol, cmd, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	registrarTransicion(ctx, solicitudID, actor, cmd, res)
	return s.reload(ctx, id)
}

func (s *inspeccionService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.Inspeccion, error) {
	insp, err := s.inspeccionRepo.FindByIDWithRelations(ctx, id)
	if err != nil {
		return nil, loadErr(err, "Inspección", id)
	}
	sol, err := s.solicitudRepo.FindByID(ctx, insp.SolicitudID)
	if err != nil {
		return nil, loadErr(err, "Solicitud", insp.SolicitudID)
	}

	rel := policy.RelationshipTo(actor, sol)
	rel.Inspector = insp.InspectorID == actor.ID
	if !policy.CanPerform(actor, policy.VerInspeccion, sol.Estado, rel) {
		return nil, apperror.NotFound("Inspección", id)
	}
	return insp, nil
}

func (s *inspeccionService) List(ctx context.Context, actor policy.Actor, q ListInspeccionesQuery) ([]model.Inspeccion, int64, error) {
	switch q.Resultado {
	case "", model.ResultadoPendiente, model.ResultadoAprobado, model.ResultadoRechazado:
	default:
		return nil, 0, apperror.Validation("resultado", "Resultado no válido: %q", q.Resultado)
	}
	page, limit := normalizePage(q.Page, q.Limit)

	inspecciones, total, err := s.inspeccionRepo.List(ctx, policy.ScopeFor(actor, policy.VerInspeccion), repository.InspeccionFilter{
		SolicitudID: q.SolicitudID,
		Resultado:   q.Resultado,
		Programadas: q.Programadas,
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inspecciones: %w", err)
	}
	return inspecciones, total, nil
}

func (s *inspeccionService) reload(ctx context.Context, id uuid.UUID) (*model.Inspeccion, error) {
	insp, err := s.inspeccionRepo.FindByIDWithRelations(ctx, id)
	if err != nil {
		return nil, loadErr(err, "Inspección", id)
	}
	return insp, nil
}

// coordenadas validates an optional point and rounds it to the stored precision
func coordenadas(lat, lng *decimal.Decimal) (decimal.NullDecimal, decimal.NullDecimal, error) {
	var outLat, outLng decimal.NullDecimal
	if lat != nil {
		if lat.Abs().GreaterThan(maxLat) {
			return outLat, outLng, apperror.Validation("lat", "La latitud debe estar entre -90 y 90")
		}
		outLat = decimal.NullDecimal{Decimal: lat.Round(6), Valid: true}
	}
	if lng != nil {
		if lng.Abs().GreaterThan(maxLng) {
			return outLat, outLng, apperror.Validation("lng", "La longitud debe estar entre -180 y 180")
		}
		outLng = decimal.NullDecimal{Decimal: lng.Round(6), Valid: true}
	}
	return outLat, outLng, nil
}
