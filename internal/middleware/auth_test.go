package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ayudasocial/internal/logger"
	"ayudasocial/internal/model"
	"ayudasocial/pkg/jwtutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var testSecret = []byte("middleware-test-secret")

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		c.JSON(http.StatusOK, gin.H{"ok": ok, "id": actor.ID.String(), "rol": actor.Rol, "su": actor.Superusuario})
	})
	r.GET("/protected", handlers...)
	return r
}

func signed(t *testing.T, rol model.Rol, su bool) (string, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	token, err := jwtutil.GenerateToken(testSecret, id, string(rol), su, time.Hour)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token, id
}

func TestAuthenticate(t *testing.T) {
	r := newRouter(Authenticate(testSecret))
	token, _ := signed(t, model.RolAlmacen, false)
	otherSecret, err := jwtutil.GenerateToken([]byte("otro"), uuid.New(), "almacen", false, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"bearer token", "Bearer " + token, "", http.StatusOK},
		{"lowercase scheme", "bearer " + token, "", http.StatusOK},
		{"cookie", "", token, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"bad format", "Token " + token, "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + otherSecret, "", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := newRouter(Authenticate(testSecret), RequireRole(model.RolRecepcion))

	tests := []struct {
		name string
		rol  model.Rol
		su   bool
		want int
	}{
		{"allowed role", model.RolRecepcion, false, http.StatusOK},
		{"other role", model.RolAlmacen, false, http.StatusForbidden},
		{"superuser", model.RolAlmacen, true, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _ := signed(t, tt.rol, tt.su)
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestActorFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if _, ok := ActorFromContext(c); ok {
		t.Error("Expected no actor on an unauthenticated context")
	}

	id := uuid.New()
	c.Set(ContextUserID, id.String())
	c.Set(ContextUserRole, string(model.RolTrabajoSocial))
	c.Set(ContextSuperuser, true)

	actor, ok := ActorFromContext(c)
	if !ok || actor.ID != id || actor.Rol != model.RolTrabajoSocial || !actor.Superusuario {
		t.Errorf("Unexpected actor %+v", actor)
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(logger.RequestIDKey))
	})

	t.Run("propagates incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(logger.RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Header().Get(logger.RequestIDHeader) != "abc-123" || w.Body.String() != "abc-123" {
			t.Errorf("Expected abc-123, got header %q body %q", w.Header().Get(logger.RequestIDHeader), w.Body.String())
		}
	})

	t.Run("assigns a new id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if _, err := uuid.Parse(w.Header().Get(logger.RequestIDHeader)); err != nil {
			t.Errorf("Expected a uuid request id, got %q", w.Header().Get(logger.RequestIDHeader))
		}
	})
}
