package api

import (
	"net/http"
	"testing"

	"github.com/mtlprog/poolshare/internal/fund"
	"github.com/mtlprog/poolshare/internal/store"
)

func TestNewServer(t *testing.T) {
	srv := NewServer("9090", fund.NewService(store.NewMemoryStore(), fund.Options{}))
	if srv.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", srv.Addr)
	}
	if srv.ReadTimeout == 0 || srv.WriteTimeout == 0 {
		t.Error("timeouts not set")
	}
}

func TestRouterMethodNotAllowed(t *testing.T) {
	h := newTestRouter()

	if w := do(t, h, http.MethodPost, "/api/v1/portfolio", "{}"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST portfolio status = %d, want 405", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/api/v1/unknown", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", w.Code)
	}
}
