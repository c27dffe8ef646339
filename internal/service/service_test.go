package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ayudasocial/internal/model"
	"ayudasocial/internal/repository"
	"ayudasocial/internal/testutil"
	"ayudasocial/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

type fixture struct {
	db           *gorm.DB
	solicitudes  SolicitudService
	inspecciones InspeccionService
	entregas     EntregaService
	productos    ProductoService
	usuarios     UsuarioService

	recepcion     *model.Usuario
	representante *model.Usuario
	social        *model.Usuario
	almacen       *model.Usuario
	ciudadano     *model.Usuario
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)

	solicitudRepo := repository.NewSolicitudRepository(db)
	usuarioRepo := repository.NewUsuarioRepository(db)
	inspeccionRepo := repository.NewInspeccionRepository(db)
	entregaRepo := repository.NewEntregaRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	movimientoRepo := repository.NewMovimientoRepository(db)
	txManager := repository.NewTransactionManager(db)
	clock := func() time.Time { return fixedNow }

	return &fixture{
		db:            db,
		solicitudes:   NewSolicitudService(solicitudRepo, usuarioRepo, inspeccionRepo, entregaRepo, productoRepo, movimientoRepo, txManager, clock),
		inspecciones:  NewInspeccionService(inspeccionRepo, entregaRepo, solicitudRepo, txManager, clock),
		entregas:      NewEntregaService(entregaRepo, inspeccionRepo, solicitudRepo, productoRepo, movimientoRepo, txManager, clock),
		productos:     NewProductoService(productoRepo, movimientoRepo, txManager),
		usuarios:      NewUsuarioService(usuarioRepo, []byte(testutil.JWTSecret), time.Hour),
		recepcion:     testutil.SeedUsuario(t, db, model.RolRecepcion),
		representante: testutil.SeedUsuario(t, db, model.RolRepresentante),
		social:        testutil.SeedUsuario(t, db, model.RolTrabajoSocial),
		almacen:       testutil.SeedUsuario(t, db, model.RolAlmacen),
		ciudadano:     testutil.SeedUsuario(t, db, model.RolCiudadano),
	}
}

// solicitudEn seeds a request for the fixture's citizen directly in estado
func (f *fixture) solicitudEn(t *testing.T, estado model.EstadoSolicitud) *model.Solicitud {
	t.Helper()
	return testutil.SeedSolicitud(t, f.db, f.ciudadano, f.recepcion, estado)
}

func (f *fixture) estadoDe(t *testing.T, id uuid.UUID) model.EstadoSolicitud {
	t.Helper()
	return testutil.Reload[model.Solicitud](t, f.db, id).Estado
}

func (f *fixture) stockDe(t *testing.T, id uuid.UUID) (actual, comprometido int) {
	t.Helper()
	p := testutil.Reload[model.Producto](t, f.db, id)
	return p.StockActual, p.StockComprometido
}

func requireKind(t *testing.T, err error, kind apperror.Kind) *apperror.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var appErr *apperror.Error
	if !errors.As(err, &appErr) || appErr.Kind != kind {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
	return appErr
}

func requireNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func strPtr(s string) *string { return &s }

var ctx = context.Background()
