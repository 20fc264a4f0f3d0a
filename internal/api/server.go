package api

import (
	"net/http"
	"time"

	"github.com/mtlprog/poolshare/internal/fund"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, svc *fund.Service) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(svc),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewRouter registers every route on a fresh mux.
func NewRouter(svc *fund.Service) http.Handler {
	handler := NewHandler(svc)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/portfolio", handler.GetPortfolio)
	mux.HandleFunc("POST /api/v1/investors", handler.AddInvestor)
	mux.HandleFunc("PATCH /api/v1/investors/{id}", handler.UpdateInvestor)
	mux.HandleFunc("DELETE /api/v1/investors/{id}", handler.RemoveInvestor)
	mux.HandleFunc("PATCH /api/v1/investors/{id}/capital", handler.AdjustCapital)
	mux.HandleFunc("POST /api/v1/capital", handler.UpdateTotal)
	mux.HandleFunc("POST /api/v1/commission", handler.ApplyCommission)
	mux.HandleFunc("POST /api/v1/commission/batch", handler.ApplyCommissions)
	mux.HandleFunc("GET /api/v1/backup", handler.DownloadBackup(backupJSON))
	mux.HandleFunc("GET /api/v1/backup.xlsx", handler.DownloadBackup(backupXLSX))
	return mux
}
