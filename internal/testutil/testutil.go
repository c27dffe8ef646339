package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"ayudasocial/internal/database"
	"ayudasocial/internal/model"
	"ayudasocial/internal/policy"
	"ayudasocial/pkg/jwtutil"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "ayudasocial-test-secret"

var seq atomic.Int64

// SetupTestDB opens a fresh, migrated SQLite database in the test's temp dir.
// The connection is closed when the test completes.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(database.SQLiteDSN(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// SetupRouter creates a gin router in test mode
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// GenerateTestToken signs a token for the user with the test secret
func GenerateTestToken(u *model.Usuario) string {
	token, err := jwtutil.GenerateToken([]byte(JWTSecret), u.ID, string(u.Rol), u.EsSuperusuario, time.Hour)
	if err != nil {
		panic(fmt.Sprintf("failed to sign test token: %v", err))
	}
	return token
}

// Actor returns the policy actor of a seeded user
func Actor(u *model.Usuario) policy.Actor {
	return policy.Actor{ID: u.ID, Rol: u.Rol, Superusuario: u.EsSuperusuario}
}

// DoRequest executes an HTTP request against the router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse decodes the response envelope into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// Data returns the data object of a success envelope
func Data(w *httptest.ResponseRecorder) map[string]interface{} {
	data, _ := ParseResponse(w)["data"].(map[string]interface{})
	return data
}

// SeedUsuario creates a user with the given role. The password is not usable for login.
func SeedUsuario(t *testing.T, db *gorm.DB, rol model.Rol) *model.Usuario {
	t.Helper()
	n := seq.Add(1)
	u := &model.Usuario{
		Username: fmt.Sprintf("%s_%d", rol, n),
		Email:    fmt.Sprintf("%s_%d@test.local", rol, n),
		Password: "x",
		Nombre:   fmt.Sprintf("Usuario %s %d", rol, n),
		Rol:      rol,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("Failed to seed usuario: %v", err)
	}
	return u
}

// SeedSuperusuario creates a superuser
func SeedSuperusuario(t *testing.T, db *gorm.DB) *model.Usuario {
	t.Helper()
	u := SeedUsuario(t, db, model.RolRecepcion)
	u.EsSuperusuario = true
	if err := db.Save(u).Error; err != nil {
		t.Fatalf("Failed to promote superuser: %v", err)
	}
	return u
}

// SeedProducto creates a product with stock on hand
func SeedProducto(t *testing.T, db *gorm.DB, nombre string, stock int) *model.Producto {
	t.Helper()
	p := &model.Producto{
		Nombre:       nombre,
		UnidadMedida: "unidad",
		Codigo:       fmt.Sprintf("P-%04d", seq.Add(1)),
		StockActual:  stock,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to seed producto: %v", err)
	}
	return p
}

// SeedSolicitud creates a request for ciudadano, created by creador, directly in estado
func SeedSolicitud(t *testing.T, db *gorm.DB, ciudadano, creador *model.Usuario, estado model.EstadoSolicitud) *model.Solicitud {
	t.Helper()
	creadorID := creador.ID
	s := &model.Solicitud{
		Titulo:      fmt.Sprintf("Solicitud %d", seq.Add(1)),
		Descripcion: "Ayuda requerida",
		Estado:      estado,
		CiudadanoID: ciudadano.ID,
		CreadoPorID: &creadorID,
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("Failed to seed solicitud: %v", err)
	}
	return s
}

// Reload reads a fresh copy of a row by id
func Reload[T any](t *testing.T, db *gorm.DB, id interface{}) *T {
	t.Helper()
	var out T
	if err := db.Unscoped().First(&out, "id = ?", id).Error; err != nil {
		t.Fatalf("Failed to reload %T %v: %v", out, id, err)
	}
	return &out
}
