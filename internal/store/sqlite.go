package store

import (
	"database/sql"
	"fmt"

	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) UpsertStation(st models.Station) error {
	_, err := s.db.Exec(`
		INSERT INTO stations (station_id, name, country, latitude, longitude, elevation)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id) DO UPDATE SET
			name = excluded.name,
			country = excluded.country,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			elevation = excluded.elevation
	`, st.StationID, st.Name, st.Country, st.Latitude, st.Longitude, st.Elevation)
	return err
}

func (s *Store) GetStations() ([]models.Station, error) {
	rows, err := s.db.Query(`
		SELECT station_id, name, country, latitude, longitude, elevation
		FROM stations
		ORDER BY station_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.StationID, &st.Name, &st.Country, &st.Latitude, &st.Longitude, &st.Elevation); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// InsertObservations batch-inserts observations inside one transaction.
// Duplicate (station, timestamp) pairs are ignored, so re-running a download
// over an overlapping window is safe.
func (s *Store) InsertObservations(observations []models.Observation) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO observations (station_id, observed_at, wind_dir, wind_speed, wind_gust)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(station_id, observed_at) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, obs := range observations {
		res, err := stmt.Exec(obs.StationID, obs.ObservedAt.UTC(), obs.WindDir, obs.WindSpeed, obs.WindGust)
		if err != nil {
			return 0, fmt.Errorf("insert observation: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (s *Store) GetObservations() ([]models.Observation, error) {
	rows, err := s.db.Query(`
		SELECT station_id, observed_at, wind_dir, wind_speed, wind_gust
		FROM observations
		ORDER BY station_id, observed_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var observations []models.Observation
	for rows.Next() {
		var obs models.Observation
		if err := rows.Scan(&obs.StationID, &obs.ObservedAt, &obs.WindDir, &obs.WindSpeed, &obs.WindGust); err != nil {
			return nil, err
		}
		obs.ObservedAt = obs.ObservedAt.UTC()
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}

func (s *Store) CountObservations() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM observations`).Scan(&n)
	return n, err
}
