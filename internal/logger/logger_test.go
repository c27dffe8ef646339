package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContextFallsBackToGlobal(t *testing.T) {
	core, _ := observer.New(zap.InfoLevel)
	global := zap.New(core)
	Set(global)
	defer Set(zap.NewNop())

	if FromContext(context.Background()) != global {
		t.Fatal("expected the global logger")
	}

	scoped := global.With(zap.String("k", "v"))
	if FromContext(WithContext(context.Background(), scoped)) != scoped {
		t.Fatal("expected the context logger")
	}
}

func TestMiddlewareLogsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	Set(zap.New(core))
	defer Set(zap.NewNop())

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(RequestIDKey, "req-1"); c.Next() })
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) {
		FromContext(c.Request.Context()).Info("inside handler")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.ContextMap()[RequestIDKey] != "req-1" {
			t.Errorf("entry %q lacks the request id: %v", e.Message, e.ContextMap())
		}
	}
	last := entries[1]
	if last.Message != "HTTP request completed" {
		t.Errorf("unexpected message %q", last.Message)
	}
	if last.ContextMap()["status"] != int64(http.StatusNoContent) {
		t.Errorf("unexpected status field %v", last.ContextMap()["status"])
	}
}
