package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/rose"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := IndexData{Stations: s.stationOptions()}

	station := r.URL.Query().Get("station")
	if station == "" && len(s.rows) > 0 {
		station = s.rows[0].StationID
	}
	if row, ok := s.lookup(station, r.URL.Query().Get("period")); ok {
		data.Selected = row
		data.HasRow = true
	}

	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("serve: template error: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"rows":   len(s.rows),
	})
}

func (s *Server) handleAPIStations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.stationOptions())
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	row, ok := s.lookup(r.URL.Query().Get("station"), r.URL.Query().Get("period"))
	if !ok {
		http.Error(w, "unknown station or period", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(newSummaryView(row))
}

func (s *Server) handleAPIRose(w http.ResponseWriter, r *http.Request) {
	row, ok := s.lookup(r.URL.Query().Get("station"), r.URL.Query().Get("period"))
	if !ok {
		http.Error(w, "unknown station or period", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(row.DirFreq[:])
}

func (s *Server) handleRosePNG(w http.ResponseWriter, r *http.Request) {
	row, ok := s.lookup(r.URL.Query().Get("station"), r.URL.Query().Get("period"))
	if !ok {
		http.Error(w, "unknown station or period", http.StatusNotFound)
		return
	}

	size := 400
	if v, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && v >= 50 && v <= 2000 {
		size = v
	}

	w.Header().Set("Content-Type", "image/png")
	if err := rose.RenderPNG(w, row.DirFreq, size); err != nil {
		log.Printf("serve: rose render: %v", err)
	}
}

// stationOptions builds the selector entries, preserving the atlas table's
// station-then-period ordering.
func (s *Server) stationOptions() []StationOption {
	var options []StationOption
	for _, row := range s.rows {
		if n := len(options); n > 0 && options[n-1].StationID == row.StationID {
			options[n-1].Periods = append(options[n-1].Periods, row.Period)
			continue
		}
		name := row.StationID
		if row.Name.Valid {
			name = row.Name.String
		}
		options = append(options, StationOption{
			StationID: row.StationID,
			Name:      name,
			Periods:   []string{row.Period},
		})
	}
	return options
}
