package handler

import (
	"net/http"
	"testing"
	"time"

	"ayudasocial/internal/middleware"
	"ayudasocial/internal/model"
	"ayudasocial/internal/repository"
	"ayudasocial/internal/service"
	"ayudasocial/internal/testutil"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	secret := []byte(testutil.JWTSecret)

	solicitudRepo := repository.NewSolicitudRepository(db)
	inspeccionRepo := repository.NewInspeccionRepository(db)
	entregaRepo := repository.NewEntregaRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	movimientoRepo := repository.NewMovimientoRepository(db)
	usuarioRepo := repository.NewUsuarioRepository(db)
	txManager := repository.NewTransactionManager(db)

	r := testutil.SetupRouter()
	usuarioHandler := NewUsuarioHandler(service.NewUsuarioService(usuarioRepo, secret, time.Hour), time.Hour, false)
	usuarioHandler.RegisterPublicRoutes(r.Group(""))

	api := r.Group("/api", middleware.Authenticate(secret))
	usuarioHandler.RegisterRoutes(api)
	NewSolicitudHandler(service.NewSolicitudService(solicitudRepo, usuarioRepo, inspeccionRepo, entregaRepo, productoRepo, movimientoRepo, txManager, nil)).RegisterRoutes(api)
	NewInspeccionHandler(service.NewInspeccionService(inspeccionRepo, entregaRepo, solicitudRepo, txManager, nil)).RegisterRoutes(api)
	NewEntregaHandler(service.NewEntregaService(entregaRepo, inspeccionRepo, solicitudRepo, productoRepo, movimientoRepo, txManager, nil)).RegisterRoutes(api)
	NewProductoHandler(service.NewProductoService(productoRepo, movimientoRepo, txManager)).RegisterRoutes(api)
	NewEstadisticasHandler(service.NewEstadisticasService(repository.NewEstadisticasRepository(db))).RegisterRoutes(api)

	return &testEnv{router: r, db: db}
}

func (e *testEnv) token(t *testing.T, rol model.Rol) (string, *model.Usuario) {
	t.Helper()
	u := testutil.SeedUsuario(t, e.db, rol)
	return testutil.GenerateTestToken(u), u
}

func expectStatus(t *testing.T, got, want int, body string) {
	t.Helper()
	if got != want {
		t.Fatalf("Expected status %d, got %d: %s", want, got, body)
	}
}

func expectKind(t *testing.T, resp map[string]interface{}, kind string) {
	t.Helper()
	if resp["kind"] != kind {
		t.Errorf("Expected kind %q, got %v (%v)", kind, resp["kind"], resp["error"])
	}
}

func TestSolicitudLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	recepcionTok, _ := env.token(t, model.RolRecepcion)
	representanteTok, _ := env.token(t, model.RolRepresentante)
	socialTok, _ := env.token(t, model.RolTrabajoSocial)
	almacenTok, _ := env.token(t, model.RolAlmacen)
	_, ciudadano := env.token(t, model.RolCiudadano)
	producto := testutil.SeedProducto(t, env.db, "Colchón", 5)

	w := testutil.DoRequest(env.router, "POST", "/api/solicitudes", map[string]interface{}{
		"titulo":       "Colchón para adulto mayor",
		"descripcion":  "Duerme en el piso",
		"ciudadano_id": ciudadano.ID,
	}, recepcionTok)
	expectStatus(t, w.Code, http.StatusCreated, w.Body.String())
	sol := testutil.Data(w)
	solID := sol["id"].(string)
	if sol["estado"] != "pendiente" || sol["estado_display"] != "Pendiente de Revisión" {
		t.Fatalf("Unexpected new request %v", sol)
	}

	w = testutil.DoRequest(env.router, "POST", "/api/solicitudes/"+solID+"/aprobar-representante", map[string]interface{}{
		"estado": "aprobado_representante",
	}, representanteTok)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if testutil.Data(w)["fecha_aprobacion_representante"] == nil {
		t.Error("Expected the approval date to be set")
	}

	w = testutil.DoRequest(env.router, "POST", "/api/inspecciones", map[string]interface{}{
		"solicitud_id":     solID,
		"direccion_visita": "Av. Central 100",
		"fecha_programada": "2026-06-01",
	}, socialTok)
	expectStatus(t, w.Code, http.StatusCreated, w.Body.String())
	inspID := testutil.Data(w)["id"].(string)

	w = testutil.DoRequest(env.router, "GET", "/api/inspecciones/programadas", nil, socialTok)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if testutil.Data(w)["total"] != float64(1) {
		t.Errorf("Expected 1 scheduled inspection, got %v", testutil.Data(w)["total"])
	}

	w = testutil.DoRequest(env.router, "PATCH", "/api/inspecciones/"+inspID+"/resultado", map[string]interface{}{
		"resultado": "aprobado",
		"fotos":     []string{"/media/casa.jpg"},
		"lat":       "-12.046374",
		"lng":       "-77.042793",
	}, socialTok)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())

	w = testutil.DoRequest(env.router, "PATCH", "/api/inspecciones/"+inspID+"/resultado", map[string]interface{}{
		"resultado": "rechazado",
	}, socialTok)
	expectStatus(t, w.Code, http.StatusConflict, w.Body.String())

	w = testutil.DoRequest(env.router, "POST", "/api/entregas", map[string]interface{}{
		"solicitud_id": solID,
		"productos":    []map[string]interface{}{{"producto_id": producto.ID, "cantidad": 2}},
	}, almacenTok)
	expectStatus(t, w.Code, http.StatusCreated, w.Body.String())
	entregaID := testutil.Data(w)["id"].(string)

	w = testutil.DoRequest(env.router, "PATCH", "/api/entregas/"+entregaID+"/completar", map[string]interface{}{
		"evidencia_fotos": []string{},
	}, almacenTok)
	expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())
	expectKind(t, testutil.ParseResponse(w), "validation")

	w = testutil.DoRequest(env.router, "PATCH", "/api/entregas/"+entregaID+"/completar", map[string]interface{}{
		"evidencia_fotos": []string{"/media/entrega.jpg"},
	}, almacenTok)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if testutil.Data(w)["completada"] != true {
		t.Error("Expected the delivery to be completed")
	}

	w = testutil.DoRequest(env.router, "GET", "/api/solicitudes/"+solID, nil, testutil.GenerateTestToken(ciudadano))
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if testutil.Data(w)["estado"] != "entregado" {
		t.Errorf("Expected entregado, got %v", testutil.Data(w)["estado"])
	}

	w = testutil.DoRequest(env.router, "GET", "/api/productos/"+producto.ID.String(), nil, almacenTok)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if testutil.Data(w)["stock_actual"] != float64(3) {
		t.Errorf("Expected stock 3, got %v", testutil.Data(w)["stock_actual"])
	}

	w = testutil.DoRequest(env.router, "GET", "/api/productos/"+producto.ID.String()+"/movimientos", nil, almacenTok)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if testutil.Data(w)["total"] != float64(1) {
		t.Errorf("Expected 1 stock movement, got %v", testutil.Data(w)["total"])
	}
}

func TestErrorMapping(t *testing.T) {
	env := setupTestEnv(t)
	recepcionTok, recepcion := env.token(t, model.RolRecepcion)
	representanteTok, _ := env.token(t, model.RolRepresentante)
	almacenTok, _ := env.token(t, model.RolAlmacen)
	_, ciudadano := env.token(t, model.RolCiudadano)
	aprobada := testutil.SeedSolicitud(t, env.db, ciudadano, recepcion, model.EstadoAprobadoSocial)
	producto := testutil.SeedProducto(t, env.db, "Frazada", 1)

	t.Run("missing token", func(t *testing.T) {
		w := testutil.DoRequest(env.router, "GET", "/api/solicitudes", nil, "")
		expectStatus(t, w.Code, http.StatusUnauthorized, w.Body.String())
	})

	t.Run("malformed id is not found", func(t *testing.T) {
		w := testutil.DoRequest(env.router, "GET", "/api/solicitudes/not-a-uuid", nil, recepcionTok)
		expectStatus(t, w.Code, http.StatusNotFound, w.Body.String())
		expectKind(t, testutil.ParseResponse(w), "not_found")
	})

	t.Run("state conflict", func(t *testing.T) {
		w := testutil.DoRequest(env.router, "POST", "/api/solicitudes/"+aprobada.ID.String()+"/aprobar-representante", map[string]interface{}{
			"estado": "aprobado_representante",
		}, representanteTok)
		expectStatus(t, w.Code, http.StatusConflict, w.Body.String())
		expectKind(t, testutil.ParseResponse(w), "state_conflict")
	})

	t.Run("insufficient stock names the product", func(t *testing.T) {
		w := testutil.DoRequest(env.router, "POST", "/api/entregas", map[string]interface{}{
			"solicitud_id": aprobada.ID,
			"productos":    []map[string]interface{}{{"producto_id": producto.ID, "cantidad": 3}},
		}, almacenTok)
		expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())
		resp := testutil.ParseResponse(w)
		expectKind(t, resp, "validation")
		if resp["field"] != "productos" || resp["error"] != "Stock insuficiente para Frazada. Disponible: 1" {
			t.Errorf("Unexpected error body %v", resp)
		}
	})

	t.Run("forbidden", func(t *testing.T) {
		w := testutil.DoRequest(env.router, "POST", "/api/productos", map[string]interface{}{
			"nombre": "Carpa", "unidad_medida": "unidad", "codigo": "C-1",
		}, recepcionTok)
		expectStatus(t, w.Code, http.StatusForbidden, w.Body.String())
		expectKind(t, testutil.ParseResponse(w), "forbidden")
	})

	t.Run("binding error", func(t *testing.T) {
		w := testutil.DoRequest(env.router, "POST", "/api/productos/"+producto.ID.String()+"/ajustar-stock", map[string]interface{}{}, almacenTok)
		expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())
	})

	t.Run("unrelated citizen gets not found", func(t *testing.T) {
		otroTok, _ := env.token(t, model.RolCiudadano)
		enInspeccion := testutil.SeedSolicitud(t, env.db, ciudadano, recepcion, model.EstadoEnInspeccion)
		for _, path := range []string{"/rechazar", "/aprobar-social"} {
			w := testutil.DoRequest(env.router, "POST", "/api/solicitudes/"+enInspeccion.ID.String()+path, map[string]interface{}{
				"estado": "aprobado_social",
			}, otroTok)
			expectStatus(t, w.Code, http.StatusNotFound, w.Body.String())
		}
	})

	t.Run("reject without body", func(t *testing.T) {
		w := testutil.DoRequest(env.router, "POST", "/api/solicitudes/"+aprobada.ID.String()+"/rechazar", nil, recepcionTok)
		expectStatus(t, w.Code, http.StatusOK, w.Body.String())
		if testutil.Data(w)["estado"] != "rechazado" {
			t.Errorf("Expected rechazado, got %v", testutil.Data(w)["estado"])
		}
	})
}

func TestLoginAndUsuarios(t *testing.T) {
	env := setupTestEnv(t)
	admin := testutil.SeedSuperusuario(t, env.db)
	adminTok := testutil.GenerateTestToken(admin)

	w := testutil.DoRequest(env.router, "POST", "/api/usuarios", map[string]interface{}{
		"username": "recepcion1",
		"email":    "recepcion1@ayuda.org",
		"password": "clave123",
		"rol":      "recepcion",
	}, adminTok)
	expectStatus(t, w.Code, http.StatusCreated, w.Body.String())
	if _, leaked := testutil.Data(w)["password"]; leaked {
		t.Error("Password hash must not be serialized")
	}

	w = testutil.DoRequest(env.router, "POST", "/login", map[string]interface{}{
		"username": "recepcion1",
		"password": "mala",
	}, "")
	expectStatus(t, w.Code, http.StatusUnauthorized, w.Body.String())

	w = testutil.DoRequest(env.router, "POST", "/login", map[string]interface{}{
		"username": "recepcion1@ayuda.org",
		"password": "clave123",
	}, "")
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	token, _ := testutil.Data(w)["token"].(string)
	if token == "" {
		t.Fatal("Expected a token")
	}
	var cookieSet bool
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.AccessTokenCookie && c.Value == token && c.HttpOnly {
			cookieSet = true
		}
	}
	if !cookieSet {
		t.Error("Expected the token cookie")
	}

	w = testutil.DoRequest(env.router, "GET", "/api/me", nil, token)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if testutil.Data(w)["rol"] != "recepcion" {
		t.Errorf("Unexpected me %v", testutil.Data(w))
	}

	w = testutil.DoRequest(env.router, "POST", "/api/usuarios", map[string]interface{}{
		"username": "vecino",
		"email":    "vecino@correo.com",
		"password": "clave123",
		"rol":      "ciudadano",
	}, token)
	expectStatus(t, w.Code, http.StatusCreated, w.Body.String())

	w = testutil.DoRequest(env.router, "GET", "/api/usuarios?rol=ciudadano", nil, token)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if testutil.Data(w)["total"] != float64(1) {
		t.Errorf("Expected 1 citizen, got %v", testutil.Data(w)["total"])
	}

	almacenTok, _ := env.token(t, model.RolAlmacen)
	w = testutil.DoRequest(env.router, "POST", "/api/usuarios", map[string]interface{}{
		"username": "otro", "email": "otro@correo.com", "password": "clave123", "rol": "ciudadano",
	}, almacenTok)
	expectStatus(t, w.Code, http.StatusForbidden, w.Body.String())
}

func TestEstadisticas(t *testing.T) {
	env := setupTestEnv(t)
	recepcionTok, recepcion := env.token(t, model.RolRecepcion)
	ciudadanoTok, ciudadano := env.token(t, model.RolCiudadano)
	testutil.SeedSolicitud(t, env.db, ciudadano, recepcion, model.EstadoPendiente)
	testutil.SeedSolicitud(t, env.db, ciudadano, recepcion, model.EstadoRechazadoSocial)

	t.Run("summary", func(t *testing.T) {
		w := testutil.DoRequest(env.router, "GET", "/api/estadisticas?desde=2000-01-01T00:00:00Z&hasta=2100-01-01T00:00:00Z", nil, recepcionTok)
		expectStatus(t, w.Code, http.StatusOK, w.Body.String())
		data := testutil.Data(w)
		if data["total_solicitudes"] != float64(2) || data["pendientes"] != float64(1) || data["rechazadas"] != float64(1) {
			t.Errorf("Unexpected summary %v", data)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		w := testutil.DoRequest(env.router, "GET", "/api/estadisticas?desde=ayer", nil, recepcionTok)
		expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())
		if resp := testutil.ParseResponse(w); resp["field"] != "desde" {
			t.Errorf("Expected field desde, got %v", resp)
		}
	})

	t.Run("citizen is forbidden", func(t *testing.T) {
		w := testutil.DoRequest(env.router, "GET", "/api/estadisticas", nil, ciudadanoTok)
		expectStatus(t, w.Code, http.StatusForbidden, w.Body.String())
	})
}

func TestProgramadasListsEveryScheduledItem(t *testing.T) {
	env := setupTestEnv(t)
	recepcionTok, recepcion := env.token(t, model.RolRecepcion)
	_, social := env.token(t, model.RolTrabajoSocial)
	_, almacen := env.token(t, model.RolAlmacen)
	_, ciudadano := env.token(t, model.RolCiudadano)
	fecha := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	ahora := time.Now()
	colchon := testutil.SeedProducto(t, env.db, "Colchón", 5)
	linea := []model.LineaEntrega{{ProductoID: colchon.ID, Nombre: colchon.Nombre, Cantidad: 1, Unidad: colchon.UnidadMedida}}

	entregada := testutil.SeedSolicitud(t, env.db, ciudadano, recepcion, model.EstadoEntregado)
	completada := &model.Entrega{
		SolicitudID:     entregada.ID,
		EncargadoID:     almacen.ID,
		FechaProgramada: &fecha,
		EvidenciaFotos:  []string{"/media/entregas/1.jpg"},
		Productos:       linea,
		Completada:      true,
		FechaCompletada: &ahora,
	}
	sinFecha := &model.Entrega{
		SolicitudID:    entregada.ID,
		EncargadoID:    almacen.ID,
		EvidenciaFotos: []string{},
		Productos:      linea,
	}
	aprobada := testutil.SeedSolicitud(t, env.db, ciudadano, recepcion, model.EstadoAprobadoSocial)
	resuelta := &model.Inspeccion{
		SolicitudID:     aprobada.ID,
		InspectorID:     social.ID,
		FechaProgramada: &fecha,
		Resultado:       model.ResultadoAprobado,
		DireccionVisita: "Av. Amazonas N24-12",
		Fotos:           []string{},
	}
	for _, row := range []interface{}{completada, sinFecha, resuelta} {
		if err := env.db.Create(row).Error; err != nil {
			t.Fatalf("Failed to seed %T: %v", row, err)
		}
	}

	items := func(t *testing.T, path string) []interface{} {
		t.Helper()
		w := testutil.DoRequest(env.router, "GET", path, nil, recepcionTok)
		expectStatus(t, w.Code, http.StatusOK, w.Body.String())
		list, _ := testutil.Data(w)["items"].([]interface{})
		return list
	}

	t.Run("completed delivery with a date is listed", func(t *testing.T) {
		list := items(t, "/api/entregas/programadas")
		if len(list) != 1 || list[0].(map[string]interface{})["id"] != completada.ID.String() {
			t.Errorf("Expected only the scheduled delivery, got %v", list)
		}
	})

	t.Run("completada narrows the list", func(t *testing.T) {
		if list := items(t, "/api/entregas/programadas?completada=false"); len(list) != 0 {
			t.Errorf("Expected no open scheduled deliveries, got %v", list)
		}
	})

	t.Run("resolved inspection with a date is listed", func(t *testing.T) {
		list := items(t, "/api/inspecciones/programadas")
		if len(list) != 1 || list[0].(map[string]interface{})["id"] != resuelta.ID.String() {
			t.Errorf("Expected the resolved scheduled inspection, got %v", list)
		}
		if list := items(t, "/api/inspecciones/programadas?resultado=pendiente"); len(list) != 0 {
			t.Errorf("Expected no pending scheduled inspections, got %v", list)
		}
	})
}
