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
)

// DTOs
type CreateSolicitudRequest struct {
	Titulo      string    `json:"titulo" binding:"required,max=200"`
	Descripcion string    `json:"descripcion" binding:"required"`
	CiudadanoID uuid.UUID `json:"ciudadano_id" binding:"required"`
}

// DecisionRequest carries a reviewer decision: the target estado and optional internal notes
type DecisionRequest struct {
	Estado        model.EstadoSolicitud `json:"estado" binding:"required"`
	NotasInternas *string               `json:"notas_internas"`
}

type RechazoRequest struct {
	NotasInternas *string `json:"notas_internas"`
}

type ListSolicitudesQuery struct {
	Estado model.EstadoSolicitud
	Page   int
	Limit  int
}

type SolicitudResponse struct {
	model.Solicitud
	EstadoDisplay string `json:"estado_display"`
}

func toSolicitudResponse(sol *model.Solicitud) *SolicitudResponse {
	return &SolicitudResponse{Solicitud: *sol, EstadoDisplay: sol.Estado.Display()}
}

type SolicitudService interface {
	Create(ctx context.Context, actor policy.Actor, req CreateSolicitudRequest) (*SolicitudResponse, error)
	Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*SolicitudResponse, error)
	List(ctx context.Context, actor policy.Actor, q ListSolicitudesQuery) ([]SolicitudResponse, int64, error)
	DecidirRepresentante(ctx context.Context, actor policy.Actor, id uuid.UUID, req DecisionRequest) (*SolicitudResponse, error)
	DecidirTrabajoSocial(ctx context.Context, actor policy.Actor, id uuid.UUID, req DecisionRequest) (*SolicitudResponse, error)
	Rechazar(ctx context.Context, actor policy.Actor, id uuid.UUID, req RechazoRequest) (*SolicitudResponse, error)
}

type solicitudService struct {
	solicitudRepo  repository.SolicitudRepository
	usuarioRepo    repository.UsuarioRepository
	inspeccionRepo repository.InspeccionRepository
	entregaRepo    repository.EntregaRepository
	stock          stockLedger
	txManager      repository.TransactionManager
	now            Clock
}

func NewSolicitudService(
	solicitudRepo repository.SolicitudRepository,
	usuarioRepo repository.UsuarioRepository,
	inspeccionRepo repository.InspeccionRepository,
	entregaRepo repository.EntregaRepository,
	productoRepo repository.ProductoRepository,
	movimientoRepo repository.MovimientoRepository,
	txManager repository.TransactionManager,
	now Clock,
) SolicitudService {
	if now == nil {
		now = time.Now
	}
	return &solicitudService{
		solicitudRepo:  solicitudRepo,
		usuarioRepo:    usuarioRepo,
		inspeccionRepo: inspeccionRepo,
		entregaRepo:    entregaRepo,
		stock:          stockLedger{productos: productoRepo, movimientos: movimientoRepo},
		txManager:      txManager,
		now:            now,
	}
}

func (s *solicitudService) Create(ctx context.Context, actor policy.Actor, req CreateSolicitudRequest) (*SolicitudResponse, error) {
	if err := authorize(actor, policy.CrearSolicitud, "", policy.Relationship{}); err != nil {
		return nil, err
	}

	titulo := strings.TrimSpace(req.Titulo)
	descripcion := strings.TrimSpace(req.Descripcion)
	if titulo == "" {
		return nil, apperror.Validation("titulo", campoVacio)
	}
	if len(titulo) > 200 {
		return nil, apperror.Validation("titulo", "Asegúrese de que este campo no tenga más de 200 caracteres")
	}
	if descripcion == "" {
		return nil, apperror.Validation("descripcion", campoVacio)
	}
	if req.CiudadanoID == uuid.Nil {
		return nil, apperror.Validation("ciudadano_id", campoVacio)
	}

	ciudadano, err := s.usuarioRepo.GetByID(ctx, req.CiudadanoID)
	if err != nil {
		return nil, referenceErr(err, "ciudadano_id", "Usuario", req.CiudadanoID)
	}
	if ciudadano.Rol != model.RolCiudadano {
		return nil, apperror.Validation("ciudadano_id", "El usuario seleccionado no es un ciudadano")
	}

	creador := actor.ID
	sol := &model.Solicitud{
		Titulo:      titulo,
		Descripcion: descripcion,
		Estado:      model.EstadoPendiente,
		CiudadanoID: ciudadano.ID,
		CreadoPorID: &creador,
	}
	if err := s.solicitudRepo.Create(ctx, sol); err != nil {
		return nil, fmt.Errorf("failed to create solicitud: %w", err)
	}

	return s.reload(ctx, sol.ID)
}

func (s *solicitudService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*SolicitudResponse, error) {
	sol, err := s.solicitudRepo.FindByIDWithRelations(ctx, id)
	if err != nil {
		return nil, loadErr(err, "Solicitud", id)
	}

	rel, err := s.relationship(ctx, actor, sol)
	if err != nil {
		return nil, err
	}
	if !policy.CanPerform(actor, policy.VerSolicitud, sol.Estado, rel) {
		return nil, apperror.NotFound("Solicitud", id)
	}
	return toSolicitudResponse(sol), nil
}

func (s *solicitudService) List(ctx context.Context, actor policy.Actor, q ListSolicitudesQuery) ([]SolicitudResponse, int64, error) {
	if q.Estado != "" && !q.Estado.Valid() {
		return nil, 0, apperror.Validation("estado", "Estado no válido: %q", q.Estado)
	}
	page, limit := normalizePage(q.Page, q.Limit)

	solicitudes, total, err := s.solicitudRepo.List(ctx, policy.ScopeFor(actor, policy.VerSolicitud), repository.SolicitudFilter{
		Estado: q.Estado,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list solicitudes: %w", err)
	}

	res := make([]SolicitudResponse, 0, len(solicitudes))
	for i := range solicitudes {
		res = append(res, *toSolicitudResponse(&solicitudes[i]))
	}
	return res, total, nil
}

func (s *solicitudService) DecidirRepresentante(ctx context.Context, actor policy.Actor, id uuid.UUID, req DecisionRequest) (*SolicitudResponse, error) {
	cmd := workflow.NuevaDecisionRepresentante(req.Estado, actor.ID, trimmedOrNil(req.NotasInternas))
	return s.decidir(ctx, actor, id, policy.DecisionRepresentante, cmd)
}

func (s *solicitudService) DecidirTrabajoSocial(ctx context.Context, actor policy.Actor, id uuid.UUID, req DecisionRequest) (*SolicitudResponse, error) {
	cmd := workflow.NuevaDecisionSocial(req.Estado, actor.ID, trimmedOrNil(req.NotasInternas))
	return s.decidir(ctx, actor, id, policy.DecisionSocial, cmd)
}

// decidir runs a reviewer decision. The state machine is consulted before the guard so a request
// in the wrong state is reported as a conflict. Only the representative decision does so for
// actors who cannot see the request; the others answer as Get would.
func (s *solicitudService) decidir(ctx context.Context, actor policy.Actor, id uuid.UUID, op policy.Operation, cmd workflow.Command) (*SolicitudResponse, error) {
	var res workflow.Result
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sol, err := s.solicitudRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return loadErr(err, "Solicitud", id)
		}
		rel, err := s.relationship(txCtx, actor, sol)
		if err != nil {
			return err
		}
		if op != policy.DecisionRepresentante && !policy.CanPerform(actor, policy.VerSolicitud, sol.Estado, rel) {
			return apperror.NotFound("Solicitud", id)
		}
		if err := workflow.Check(sol, cmd); err != nil {
			return err
		}
		if err := authorize(actor, op, sol.Estado, rel); err != nil {
			return err
		}

		res, err = transitar(txCtx, s.solicitudRepo, sol, cmd, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	registrarTransicion(ctx, id, actor, cmd, res)
	return s.reload(ctx, id)
}

func (s *solicitudService) Rechazar(ctx context.Context, actor policy.Actor, id uuid.UUID, req RechazoRequest) (*SolicitudResponse, error) {
	cmd := workflow.Rechazo(actor.ID, trimmedOrNil(req.NotasInternas))

	var res workflow.Result
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sol, err := s.solicitudRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return loadErr(err, "Solicitud", id)
		}
		rel, err := s.relationship(txCtx, actor, sol)
		if err != nil {
			return err
		}
		if !policy.CanPerform(actor, policy.VerSolicitud, sol.Estado, rel) {
			return apperror.NotFound("Solicitud", id)
		}
		if err := workflow.Check(sol, cmd); err != nil {
			return err
		}
		if err := authorize(actor, policy.RechazarSolicitud, sol.Estado, rel); err != nil {
			return err
		}
		// a creator who is not reviewing the request may reject it but not annotate it
		if !policy.CanPerform(actor, policy.AnotarSolicitud, sol.Estado, rel) {
			cmd.Notas = nil
		}

		// open deliveries give their committed units back
		if sol.Estado == model.EstadoEnEntrega {
			abiertas, err := s.entregaRepo.ListAbiertasForUpdate(txCtx, sol.ID)
			if err != nil {
				return fmt.Errorf("failed to load open entregas: %w", err)
			}
			for i := range abiertas {
				if err := s.stock.liberar(txCtx, &abiertas[i]); err != nil {
					return err
				}
			}
		}

		res, err = transitar(txCtx, s.solicitudRepo, sol, cmd, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	registrarTransicion(ctx, id, actor, cmd, res)
	return s.reload(ctx, id)
}

func (s *solicitudService) relationship(ctx context.Context, actor policy.Actor, sol *model.Solicitud) (policy.Relationship, error) {
	return relaciones{inspecciones: s.inspeccionRepo, entregas: s.entregaRepo}.de(ctx, actor, sol)
}

func (s *solicitudService) reload(ctx context.Context, id uuid.UUID) (*SolicitudResponse, error) {
	sol, err := s.solicitudRepo.FindByIDWithRelations(ctx, id)
	if err != nil {
		return nil, loadErr(err, "Solicitud", id)
	}
	return toSolicitudResponse(sol), nil
}
