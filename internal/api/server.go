package api

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/models"
)

//go:embed templates/*
var templateFS embed.FS

// Server exposes a built wind atlas: an explorer page, JSON endpoints for
// the viewers, rendered wind-rose images, and health/metrics. The atlas
// table is loaded once at startup and never mutated.
type Server struct {
	rows  []models.AtlasRow
	index map[rowKey]int
	port  string
	tmpl  *template.Template
}

type rowKey struct {
	station string
	period  string
}

func NewServer(rows []models.AtlasRow, port string) *Server {
	index := make(map[rowKey]int, len(rows))
	for i, row := range rows {
		index[rowKey{row.StationID, row.Period}] = i
	}

	funcs := template.FuncMap{
		"stat": formatStat,
	}
	tmpl := template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

	return &Server{
		rows:  rows,
		index: index,
		port:  port,
		tmpl:  tmpl,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/rose.png", s.handleRosePNG)
	mux.HandleFunc("/api/stations", s.handleAPIStations)
	mux.HandleFunc("/api/summary", s.handleAPISummary)
	mux.HandleFunc("/api/rose", s.handleAPIRose)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// lookup finds the atlas row for a station, optionally narrowed to one
// period. With no period it returns the station's first row.
func (s *Server) lookup(station, period string) (models.AtlasRow, bool) {
	if period != "" {
		i, ok := s.index[rowKey{station, period}]
		if !ok {
			return models.AtlasRow{}, false
		}
		return s.rows[i], true
	}
	for _, row := range s.rows {
		if row.StationID == station {
			return row, true
		}
	}
	return models.AtlasRow{}, false
}
