package service

import (
	"testing"

	"ayudasocial/internal/model"
	"ayudasocial/internal/testutil"
	"ayudasocial/pkg/apperror"
)

func TestProductoService_Create(t *testing.T) {
	f := newFixture(t)

	p, err := f.productos.Create(ctx, testutil.Actor(f.almacen), CreateProductoRequest{
		Nombre:       "Kit de higiene",
		UnidadMedida: "kit",
		Codigo:       "KH-01",
		StockActual:  10,
	})
	requireNoErr(t, err)
	if p.StockActual != 10 || p.StockDisponible != 10 {
		t.Errorf("Expected 10 on hand and available, got %d/%d", p.StockActual, p.StockDisponible)
	}

	movs, total, err := f.productos.Movimientos(ctx, testutil.Actor(f.almacen), p.ID, 1, 20)
	requireNoErr(t, err)
	if total != 1 || movs[0].Tipo != model.MovimientoAjusteManual || movs[0].Cantidad != 10 {
		t.Errorf("Expected an initial stock movement, got %+v", movs)
	}

	t.Run("codigo is unique", func(t *testing.T) {
		_, err := f.productos.Create(ctx, testutil.Actor(f.almacen), CreateProductoRequest{
			Nombre: "Otro", UnidadMedida: "kit", Codigo: "KH-01",
		})
		appErr := requireKind(t, err, apperror.KindValidation)
		if appErr.Field != "codigo" {
			t.Errorf("Expected field codigo, got %s", appErr.Field)
		}
	})

	t.Run("negative initial stock", func(t *testing.T) {
		_, err := f.productos.Create(ctx, testutil.Actor(f.almacen), CreateProductoRequest{
			Nombre: "Otro", UnidadMedida: "kit", Codigo: "KH-02", StockActual: -1,
		})
		requireKind(t, err, apperror.KindValidation)
	})

	t.Run("only almacen manages products", func(t *testing.T) {
		_, err := f.productos.Create(ctx, testutil.Actor(f.recepcion), CreateProductoRequest{
			Nombre: "Otro", UnidadMedida: "kit", Codigo: "KH-03",
		})
		requireKind(t, err, apperror.KindForbidden)
	})

	t.Run("citizens cannot browse the catalog", func(t *testing.T) {
		_, _, err := f.productos.List(ctx, testutil.Actor(f.ciudadano), ListProductosQuery{})
		requireKind(t, err, apperror.KindForbidden)
	})
}

func TestProductoService_AjustarStock(t *testing.T) {
	f := newFixture(t)
	p := testutil.SeedProducto(t, f.db, "Agua", 3)

	delta := -10
	res, err := f.productos.AjustarStock(ctx, testutil.Actor(f.almacen), p.ID, AjustarStockRequest{Cantidad: &delta})
	requireNoErr(t, err)
	if res.StockActual != 0 {
		t.Errorf("Expected stock floored at 0, got %d", res.StockActual)
	}

	movs, _, err := f.productos.Movimientos(ctx, testutil.Actor(f.almacen), p.ID, 1, 20)
	requireNoErr(t, err)
	if len(movs) != 1 || movs[0].Cantidad != -3 || movs[0].StockAnterior != 3 || movs[0].StockNuevo != 0 {
		t.Errorf("Expected the movement to record the applied change, got %+v", movs)
	}

	_, err = f.productos.AjustarStock(ctx, testutil.Actor(f.almacen), p.ID, AjustarStockRequest{})
	requireKind(t, err, apperror.KindValidation)

	delta = 1
	_, err = f.productos.AjustarStock(ctx, testutil.Actor(f.social), p.ID, AjustarStockRequest{Cantidad: &delta})
	requireKind(t, err, apperror.KindForbidden)
}

func TestProductoService_ListAndDelete(t *testing.T) {
	f := newFixture(t)
	testutil.SeedProducto(t, f.db, "Arroz blanco", 4)
	vacio := testutil.SeedProducto(t, f.db, "Arroz integral", 0)
	testutil.SeedProducto(t, f.db, "Fideos", 2)

	list, total, err := f.productos.List(ctx, testutil.Actor(f.recepcion), ListProductosQuery{Search: "ARROZ"})
	requireNoErr(t, err)
	if total != 2 || list[0].Nombre != "Arroz blanco" {
		t.Errorf("Expected both rice products ordered by name, got %v", list)
	}

	_, total, err = f.productos.List(ctx, testutil.Actor(f.recepcion), ListProductosQuery{Disponibles: true})
	requireNoErr(t, err)
	if total != 2 {
		t.Errorf("Expected 2 products in stock, got %d", total)
	}

	requireNoErr(t, f.productos.Delete(ctx, testutil.Actor(f.almacen), vacio.ID))
	if _, err := f.productos.Get(ctx, testutil.Actor(f.almacen), vacio.ID); !apperror.Is(err, apperror.KindNotFound) {
		t.Errorf("Expected deleted product to be not found, got %v", err)
	}
	if err := f.productos.Delete(ctx, testutil.Actor(f.almacen), vacio.ID); !apperror.Is(err, apperror.KindNotFound) {
		t.Errorf("Expected not found on second delete, got %v", err)
	}

	_, err = f.productos.Create(ctx, testutil.Actor(f.almacen), CreateProductoRequest{
		Nombre: "Reuso", UnidadMedida: "kg", Codigo: vacio.Codigo,
	})
	requireKind(t, err, apperror.KindValidation)
}

func TestProductoService_Update(t *testing.T) {
	f := newFixture(t)
	p := testutil.SeedProducto(t, f.db, "Harina", 7)

	res, err := f.productos.Update(ctx, testutil.Actor(f.almacen), p.ID, UpdateProductoRequest{
		Nombre:       "Harina de trigo",
		UnidadMedida: "kg",
		Codigo:       p.Codigo,
	})
	requireNoErr(t, err)
	if res.Nombre != "Harina de trigo" || res.StockActual != 7 {
		t.Errorf("Expected renamed product with stock untouched, got %+v", res.Producto)
	}
}
