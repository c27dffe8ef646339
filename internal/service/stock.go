package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	"ayudasocial/internal/logger"
	"ayudasocial/internal/metrics"
	"ayudasocial/internal/model"
	"ayudasocial/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stockLedger holds the stock rules shared by deliveries, request rejection and manual adjustment.
// Every method expects to run inside a transaction.
type stockLedger struct {
	productos   repository.ProductoRepository
	movimientos repository.MovimientoRepository
}

// cantidadesPorProducto sums the quantities of lines that reference the same product
func cantidadesPorProducto(lineas []model.LineaEntrega) map[uuid.UUID]int {
	total := make(map[uuid.UUID]int, len(lineas))
	for _, l := range lineas {
		total[l.ProductoID] += l.Cantidad
	}
	return total
}

// lock takes row locks on the products in ascending id order so concurrent deliveries touching
// the same products cannot deadlock. Products that do not exist (or were deleted) are left out.
func (l stockLedger) lock(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Producto, error) {
	sorted := slices.Clone(ids)
	slices.SortFunc(sorted, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	sorted = slices.Compact(sorted)

	locked := make(map[uuid.UUID]*model.Producto, len(sorted))
	for _, id := range sorted {
		p, err := l.productos.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to lock producto %s: %w", id, err)
		}
		locked[id] = p
	}
	return locked, nil
}

func idsOf(cantidades map[uuid.UUID]int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(cantidades))
	for id := range cantidades {
		ids = append(ids, id)
	}
	return ids
}

// liberar returns the units committed by an open delivery to the available stock
func (l stockLedger) liberar(ctx context.Context, entrega *model.Entrega) error {
	cantidades := cantidadesPorProducto(entrega.Productos)
	locked, err := l.lock(ctx, idsOf(cantidades))
	if err != nil {
		return err
	}
	for id, cantidad := range cantidades {
		p, ok := locked[id]
		if !ok {
			continue
		}
		p.StockComprometido = max(0, p.StockComprometido-cantidad)
		if err := l.productos.Update(ctx, p); err != nil {
			return fmt.Errorf("failed to release stock of producto %s: %w", id, err)
		}
	}
	return nil
}

// descontar takes the delivered units out of stock, floored at zero, and writes the stock card.
// Lines whose product no longer exists are skipped.
func (l stockLedger) descontar(ctx context.Context, entrega *model.Entrega, usuarioID uuid.UUID) ([]model.MovimientoStock, error) {
	cantidades := cantidadesPorProducto(entrega.Productos)
	locked, err := l.lock(ctx, idsOf(cantidades))
	if err != nil {
		return nil, err
	}

	var movimientos []model.MovimientoStock
	for _, linea := range entrega.Productos {
		cantidad, pending := cantidades[linea.ProductoID]
		if !pending {
			continue // already applied through an earlier line of the same product
		}
		delete(cantidades, linea.ProductoID)

		p, ok := locked[linea.ProductoID]
		if !ok {
			logger.FromContext(ctx).Debug("Skipping stock decrement for missing producto",
				zap.String("entrega_id", entrega.ID.String()),
				zap.String("producto_id", linea.ProductoID.String()),
				zap.String("nombre", linea.Nombre))
			continue
		}

		anterior := p.StockActual
		p.StockActual = max(0, p.StockActual-cantidad)
		p.StockComprometido = max(0, p.StockComprometido-cantidad)
		if err := l.productos.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to decrement stock of producto %s: %w", p.ID, err)
		}

		entregaID := entrega.ID
		mov := model.MovimientoStock{
			ProductoID:    p.ID,
			Tipo:          model.MovimientoEntrega,
			Cantidad:      p.StockActual - anterior,
			StockAnterior: anterior,
			StockNuevo:    p.StockActual,
			EntregaID:     &entregaID,
			UsuarioID:     &usuarioID,
		}
		if err := l.movimientos.Create(ctx, &mov); err != nil {
			return nil, fmt.Errorf("failed to record stock movement: %w", err)
		}
		movimientos = append(movimientos, mov)
	}
	return movimientos, nil
}

// ajustar applies a manual delta, floored at zero
func (l stockLedger) ajustar(ctx context.Context, p *model.Producto, delta int, usuarioID uuid.UUID) (model.MovimientoStock, error) {
	anterior := p.StockActual
	p.StockActual = max(0, p.StockActual+delta)
	if err := l.productos.Update(ctx, p); err != nil {
		return model.MovimientoStock{}, fmt.Errorf("failed to adjust stock of producto %s: %w", p.ID, err)
	}

	mov := model.MovimientoStock{
		ProductoID:    p.ID,
		Tipo:          model.MovimientoAjusteManual,
		Cantidad:      p.StockActual - anterior,
		StockAnterior: anterior,
		StockNuevo:    p.StockActual,
		UsuarioID:     &usuarioID,
	}
	if err := l.movimientos.Create(ctx, &mov); err != nil {
		return model.MovimientoStock{}, fmt.Errorf("failed to record stock movement: %w", err)
	}
	return mov, nil
}

func registrarMovimientos(ctx context.Context, movimientos []model.MovimientoStock) {
	for _, m := range movimientos {
		metrics.RecordMovimiento(m.Tipo)
		logger.FromContext(ctx).Info("Stock movement committed",
			zap.String("producto_id", m.ProductoID.String()),
			zap.String("tipo", m.Tipo),
			zap.Int("cantidad", m.Cantidad),
			zap.Int("stock_anterior", m.StockAnterior),
			zap.Int("stock_nuevo", m.StockNuevo),
		)
	}
}
