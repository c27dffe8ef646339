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
	"gorm.io/datatypes"
)

// DTOs
type LineaEntregaRequest struct {
	ProductoID uuid.UUID `json:"producto_id" binding:"required"`
	Cantidad   int       `json:"cantidad" binding:"required,gt=0"`
}

type CreateEntregaRequest struct {
	SolicitudID     uuid.UUID             `json:"solicitud_id" binding:"required"`
	Productos       []LineaEntregaRequest `json:"productos" binding:"required,min=1,dive"`
	FechaProgramada *string               `json:"fecha_programada"` // YYYY-MM-DD
	Comentarios     *string               `json:"comentarios"`
}

type CompletarEntregaRequest struct {
	EvidenciaFotos []string `json:"evidencia_fotos"`
	FirmaReceptor  *string  `json:"firma_receptor"`
	Comentarios    *string  `json:"comentarios"`
}

type ListEntregasQuery struct {
	SolicitudID *uuid.UUID
	Completada  *bool
	Programadas bool
	Page        int
	Limit       int
}

type EntregaService interface {
	Create(ctx context.Context, actor policy.Actor, req CreateEntregaRequest) (*model.Entrega, error)
	Completar(ctx context.Context, actor policy.Actor, id uuid.UUID, req CompletarEntregaRequest) (*model.Entrega, error)
	Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.Entrega, error)
	List(ctx context.Context, actor policy.Actor, q ListEntregasQuery) ([]model.Entrega, int64, error)
}

type entregaService struct {
	entregaRepo   repository.EntregaRepository
	solicitudRepo repository.SolicitudRepository
	relaciones    relaciones
	stock         stockLedger
	txManager     repository.TransactionManager
	now           Clock
}

func NewEntregaService(
	entregaRepo repository.EntregaRepository,
	inspeccionRepo repository.InspeccionRepository,
	solicitudRepo repository.SolicitudRepository,
	productoRepo repository.ProductoRepository,
	movimientoRepo repository.MovimientoRepository,
	txManager repository.TransactionManager,
	now Clock,
) EntregaService {
	if now == nil {
		now = time.Now
	}
	return &entregaService{
		entregaRepo:   entregaRepo,
		solicitudRepo: solicitudRepo,
		relaciones:    relaciones{inspecciones: inspeccionRepo, entregas: entregaRepo},
		stock:         stockLedger{productos: productoRepo, movimientos: movimientoRepo},
		txManager:     txManager,
		now:           now,
	}
}

// Create schedules a delivery for an approved request. Every product is locked, checked against
// the stock not yet committed to other deliveries, and the requested units are committed.
func (s *entregaService) Create(ctx context.Context, actor policy.Actor, req CreateEntregaRequest) (*model.Entrega, error) {
	if req.SolicitudID == uuid.Nil {
		return nil, apperror.Validation("solicitud_id", campoVacio)
	}
	if len(req.Productos) == 0 {
		return nil, apperror.Validation("productos", "Debe incluir al menos un producto")
	}
	for _, l := range req.Productos {
		if l.ProductoID == uuid.Nil {
			return nil, apperror.Validation("productos", "Cada producto debe indicar producto_id")
		}
		if l.Cantidad <= 0 {
			return nil, apperror.Validation("productos", "La cantidad debe ser mayor que cero")
		}
	}
	fecha, err := parseFecha("fecha_programada", req.FechaProgramada)
	if err != nil {
		return nil, err
	}

	cmd := workflow.InicioEntrega(actor.ID)
	entrega := &model.Entrega{
		SolicitudID:     req.SolicitudID,
		EncargadoID:     actor.ID,
		FechaProgramada: fecha,
		Comentarios:     trimmedOrNil(req.Comentarios),
		Completada:      false,
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
		if err := authorize(actor, policy.CrearEntrega, sol.Estado, rel); err != nil {
			return err
		}

		lineas, err := s.reservar(txCtx, req.Productos)
		if err != nil {
			return err
		}
		entrega.Productos = lineas

		if res, err = transitar(txCtx, s.solicitudRepo, sol, cmd, s.now()); err != nil {
			return err
		}
		if err := s.entregaRepo.Create(txCtx, entrega); err != nil {
			return fmt.Errorf("failed to create entrega: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	registrarTransicion(ctx, req.SolicitudID, actor, cmd, res)
	return s.reload(ctx, entrega.ID)
}

// reservar checks and commits stock for the requested lines and returns their snapshots in
// request order
func (s *entregaService) reservar(ctx context.Context, pedidas []LineaEntregaRequest) (datatypes.JSONSlice[model.LineaEntrega], error) {
	lineas := make([]model.LineaEntrega, len(pedidas))
	for i, p := range pedidas {
		lineas[i] = model.LineaEntrega{ProductoID: p.ProductoID, Cantidad: p.Cantidad}
	}
	cantidades := cantidadesPorProducto(lineas)

	locked, err := s.stock.lock(ctx, idsOf(cantidades))
	if err != nil {
		return nil, err
	}

	for _, l := range lineas {
		p, ok := locked[l.ProductoID]
		if !ok {
			return nil, apperror.Validation("productos", "Producto %s no existe", l.ProductoID)
		}
		if cantidades[l.ProductoID] > p.Disponible() {
			return nil, apperror.Validation("productos", "Stock insuficiente para %s. Disponible: %d", p.Nombre, p.Disponible())
		}
	}

	for id, cantidad := range cantidades {
		p := locked[id]
		p.StockComprometido += cantidad
		if err := s.stock.productos.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to commit stock of producto %s: %w", id, err)
		}
	}

	for i := range lineas {
		p := locked[lineas[i].ProductoID]
		lineas[i].Nombre = p.Nombre
		lineas[i].Unidad = p.UnidadMedida
	}
	return datatypes.JSONSlice[model.LineaEntrega](lineas), nil
}

// Completar closes a delivery with photographic evidence, marks the request entregado and takes
// the delivered units out of stock
func (s *entregaService) Completar(ctx context.Context, actor policy.Actor, id uuid.UUID, req CompletarEntregaRequest) (*model.Entrega, error) {
	fotos := make([]string, 0, len(req.EvidenciaFotos))
	for _, f := range req.EvidenciaFotos {
		if f = strings.TrimSpace(f); f != "" {
			fotos = append(fotos, f)
		}
	}

	cmd := workflow.FinEntrega(actor.ID)

	var (
		res         workflow.Result
		solicitudID uuid.UUID
		movimientos []model.MovimientoStock
	)
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		actual, err := s.entregaRepo.FindByIDWithRelations(txCtx, id)
		if err != nil {
			return loadErr(err, "Entrega", id)
		}
		solicitudID = actual.SolicitudID

		sol, err := s.solicitudRepo.FindByIDForUpdate(txCtx, solicitudID)
		if err != nil {
			return loadErr(err, "Solicitud", solicitudID)
		}
		entrega, err := s.entregaRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return loadErr(err, "Entrega", id)
		}
		rel := policy.RelationshipTo(actor, sol)
		rel.Encargado = entrega.EncargadoID == actor.ID
		if !policy.CanPerform(actor, policy.VerEntrega, sol.Estado, rel) {
			return apperror.NotFound("Entrega", id)
		}

		if entrega.Completada {
			return apperror.Conflict("Esta entrega ya está marcada como completada")
		}
		if len(fotos) == 0 {
			return apperror.Validation("evidencia_fotos", "Debe incluir al menos una foto como evidencia")
		}
		if err := workflow.Check(sol, cmd); err != nil {
			return err
		}
		if err := authorize(actor, policy.CompletarEntrega, sol.Estado, rel); err != nil {
			return err
		}

		now := s.now()
		entrega.Completada = true
		entrega.FechaCompletada = &now
		entrega.EvidenciaFotos = datatypes.JSONSlice[string](fotos)
		if req.FirmaReceptor != nil {
			entrega.FirmaReceptor = trimmedOrNil(req.FirmaReceptor)
		}
		if req.Comentarios != nil {
			entrega.Comentarios = trimmedOrNil(req.Comentarios)
		}
		if err := s.entregaRepo.Update(txCtx, entrega); err != nil {
			return fmt.Errorf("failed to update entrega: %w", err)
		}

		if movimientos, err = s.stock.descontar(txCtx, entrega, actor.ID); err != nil {
			return err
		}

		res, err = transitar(txCtx, s.solicitudRepo, sol, cmd, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	registrarTransicion(ctx, solicitudID, actor, cmd, res)
	registrarMovimientos(ctx, movimientos)
	return s.reload(ctx, id)
}

func (s *entregaService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.Entrega, error) {
	entrega, err := s.entregaRepo.FindByIDWithRelations(ctx, id)
	if err != nil {
		return nil, loadErr(err, "Entrega", id)
	}
	sol, err := s.solicitudRepo.FindByID(ctx, entrega.SolicitudID)
	if err != nil {
		return nil, loadErr(err, "Solicitud", entrega.SolicitudID)
	}

	rel := policy.RelationshipTo(actor, sol)
	rel.Encargado = entrega.EncargadoID == actor.ID
	if !policy.CanPerform(actor, policy.VerEntrega, sol.Estado, rel) {
		return nil, apperror.NotFound("Entrega", id)
	}
	return entrega, nil
}

func (s *entregaService) List(ctx context.Context, actor policy.Actor, q ListEntregasQuery) ([]model.Entrega, int64, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	entregas, total, err := s.entregaRepo.List(ctx, policy.ScopeFor(actor, policy.VerEntrega), repository.EntregaFilter{
		SolicitudID: q.SolicitudID,
		Completada:  q.Completada,
		Programadas: q.Programadas,
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list entregas: %w", err)
	}
	return entregas, total, nil
}

func (s *entregaService) reload(ctx context.Context, id uuid.UUID) (*model.Entrega, error) {
	entrega, err := s.entregaRepo.FindByIDWithRelations(ctx, id)
	if err != nil {
		return nil, loadErr(err, "Entrega", id)
	}
	return entrega, nil
}
