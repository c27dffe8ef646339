package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ayudasocial/internal/model"
	"ayudasocial/internal/policy"
	"ayudasocial/internal/repository"
	"ayudasocial/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type CreateProductoRequest struct {
	Nombre       string  `json:"nombre" binding:"required,max=255"`
	Descripcion  *string `json:"descripcion"`
	UnidadMedida string  `json:"unidad_medida" binding:"required,max=50"`
	Codigo       string  `json:"codigo" binding:"required,max=50"`
	StockActual  int     `json:"stock_actual" binding:"min=0"`
}

// UpdateProductoRequest edits the product card; stock only changes through AjustarStock or deliveries
type UpdateProductoRequest struct {
	Nombre       string  `json:"nombre" binding:"required,max=255"`
	Descripcion  *string `json:"descripcion"`
	UnidadMedida string  `json:"unidad_medida" binding:"required,max=50"`
	Codigo       string  `json:"codigo" binding:"required,max=50"`
}

type AjustarStockRequest struct {
	Cantidad *int `json:"cantidad" binding:"required"`
}

type ListProductosQuery struct {
	Search      string
	Disponibles bool
	Page        int
	Limit       int
}

type ProductoResponse struct {
	model.Producto
	StockDisponible int `json:"stock_disponible"`
}

func toProductoResponse(p *model.Producto) *ProductoResponse {
	return &ProductoResponse{Producto: *p, StockDisponible: p.Disponible()}
}

type ProductoService interface {
	Create(ctx context.Context, actor policy.Actor, req CreateProductoRequest) (*ProductoResponse, error)
	Update(ctx context.Context, actor policy.Actor, id uuid.UUID, req UpdateProductoRequest) (*ProductoResponse, error)
	Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error
	Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*ProductoResponse, error)
	List(ctx context.Context, actor policy.Actor, q ListProductosQuery) ([]ProductoResponse, int64, error)
	AjustarStock(ctx context.Context, actor policy.Actor, id uuid.UUID, req AjustarStockRequest) (*ProductoResponse, error)
	Movimientos(ctx context.Context, actor policy.Actor, id uuid.UUID, page, limit int) ([]model.MovimientoStock, int64, error)
}

type productoService struct {
	productoRepo   repository.ProductoRepository
	movimientoRepo repository.MovimientoRepository
	stock          stockLedger
	txManager      repository.TransactionManager
}

func NewProductoService(
	productoRepo repository.ProductoRepository,
	movimientoRepo repository.MovimientoRepository,
	txManager repository.TransactionManager,
) ProductoService {
	return &productoService{
		productoRepo:   productoRepo,
		movimientoRepo: movimientoRepo,
		stock:          stockLedger{productos: productoRepo, movimientos: movimientoRepo},
		txManager:      txManager,
	}
}

func (s *productoService) Create(ctx context.Context, actor policy.Actor, req CreateProductoRequest) (*ProductoResponse, error) {
	if err := authorize(actor, policy.GestionarProducto, "", policy.Relationship{}); err != nil {
		return nil, err
	}
	producto, err := s.validarFicha(ctx, uuid.Nil, req.Nombre, req.UnidadMedida, req.Codigo)
	if err != nil {
		return nil, err
	}
	if req.StockActual < 0 {
		return nil, apperror.Validation("stock_actual", "El stock no puede ser negativo")
	}
	producto.Descripcion = trimmedOrNil(req.Descripcion)

	var movimientos []model.MovimientoStock
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productoRepo.Create(txCtx, producto); err != nil {
			return fmt.Errorf("failed to create producto: %w", err)
		}
		if req.StockActual > 0 {
			mov, err := s.stock.ajustar(txCtx, producto, req.StockActual, actor.ID)
			if err != nil {
				return err
			}
			movimientos = append(movimientos, mov)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	registrarMovimientos(ctx, movimientos)
	return toProductoResponse(producto), nil
}

func (s *productoService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, req UpdateProductoRequest) (*ProductoResponse, error) {
	if err := authorize(actor, policy.GestionarProducto, "", policy.Relationship{}); err != nil {
		return nil, err
	}
	ficha, err := s.validarFicha(ctx, id, req.Nombre, req.UnidadMedida, req.Codigo)
	if err != nil {
		return nil, err
	}

	var producto *model.Producto
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		producto, err = s.productoRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return loadErr(err, "Producto", id)
		}
		producto.Nombre = ficha.Nombre
		producto.UnidadMedida = ficha.UnidadMedida
		producto.Codigo = ficha.Codigo
		producto.Descripcion = trimmedOrNil(req.Descripcion)
		if err := s.productoRepo.Update(txCtx, producto); err != nil {
			return fmt.Errorf("failed to update producto: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toProductoResponse(producto), nil
}

// Delete soft-deletes the product. Deliveries keep their snapshot and completing one skips it.
func (s *productoService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if err := authorize(actor, policy.GestionarProducto, "", policy.Relationship{}); err != nil {
		return err
	}
	if _, err := s.productoRepo.FindByID(ctx, id); err != nil {
		return loadErr(err, "Producto", id)
	}
	if err := s.productoRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete producto: %w", err)
	}
	return nil
}

func (s *productoService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*ProductoResponse, error) {
	if err := authorize(actor, policy.VerProducto, "", policy.Relationship{}); err != nil {
		return nil, err
	}
	producto, err := s.productoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, loadErr(err, "Producto", id)
	}
	return toProductoResponse(producto), nil
}

func (s *productoService) List(ctx context.Context, actor policy.Actor, q ListProductosQuery) ([]ProductoResponse, int64, error) {
	if err := authorize(actor, policy.VerProducto, "", policy.Relationship{}); err != nil {
		return nil, 0, err
	}
	page, limit := normalizePage(q.Page, q.Limit)

	productos, total, err := s.productoRepo.List(ctx, repository.ProductoFilter{
		Search:      strings.TrimSpace(q.Search),
		Disponibles: q.Disponibles,
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list productos: %w", err)
	}

	res := make([]ProductoResponse, 0, len(productos))
	for i := range productos {
		res = append(res, *toProductoResponse(&productos[i]))
	}
	return res, total, nil
}

// AjustarStock adds a signed delta to the stock on hand, flooring the result at zero
func (s *productoService) AjustarStock(ctx context.Context, actor policy.Actor, id uuid.UUID, req AjustarStockRequest) (*ProductoResponse, error) {
	if err := authorize(actor, policy.AjustarStock, "", policy.Relationship{}); err != nil {
		return nil, err
	}
	if req.Cantidad == nil {
		return nil, apperror.Validation("cantidad", "Cantidad debe ser un número entero")
	}

	var (
		producto *model.Producto
		mov      model.MovimientoStock
	)
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		producto, err = s.productoRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return loadErr(err, "Producto", id)
		}
		mov, err = s.stock.ajustar(txCtx, producto, *req.Cantidad, actor.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	registrarMovimientos(ctx, []model.MovimientoStock{mov})
	return toProductoResponse(producto), nil
}

func (s *productoService) Movimientos(ctx context.Context, actor policy.Actor, id uuid.UUID, page, limit int) ([]model.MovimientoStock, int64, error) {
	if err := authorize(actor, policy.VerProducto, "", policy.Relationship{}); err != nil {
		return nil, 0, err
	}
	if _, err := s.productoRepo.FindByID(ctx, id); err != nil {
		return nil, 0, loadErr(err, "Producto", id)
	}
	page, limit = normalizePage(page, limit)

	movimientos, total, err := s.movimientoRepo.ListByProducto(ctx, id, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list movimientos: %w", err)
	}
	return movimientos, total, nil
}

// validarFicha checks the editable fields and that codigo is not taken by another product
func (s *productoService) validarFicha(ctx context.Context, id uuid.UUID, nombre, unidad, codigo string) (*model.Producto, error) {
	p := &model.Producto{
		Nombre:       strings.TrimSpace(nombre),
		UnidadMedida: strings.TrimSpace(unidad),
		Codigo:       strings.TrimSpace(codigo),
	}
	if p.Nombre == "" {
		return nil, apperror.Validation("nombre", campoVacio)
	}
	if p.UnidadMedida == "" {
		return nil, apperror.Validation("unidad_medida", campoVacio)
	}
	if p.Codigo == "" {
		return nil, apperror.Validation("codigo", campoVacio)
	}

	existing, err := s.productoRepo.FindByCodigo(ctx, p.Codigo)
	switch {
	case err == nil && existing.ID != id:
		return nil, apperror.Validation("codigo", "Ya existe un producto con este código")
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to check codigo: %w", err)
	}
	return p, nil
}
