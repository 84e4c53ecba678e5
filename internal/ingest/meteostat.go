// Package ingest fetches station catalogs and raw wind observations from
// the Meteostat bulk endpoints and the NOAA ISD-Lite FTP archive.
package ingest

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/klauspost/compress/gzip"

	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/httputil"
	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/metrics"
	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/models"
)

const meteostatBulkURL = "https://bulk.meteostat.net/v2"

// Meteostat bulk hourly CSV column positions. The files are headerless.
const (
	colDate = 0
	colHour = 1
	colWdir = 7
	colWspd = 8
	colWpgt = 9

	hourlyMinFields = 10
)

type Meteostat struct {
	baseURL string
	client  *http.Client
}

func NewMeteostat() *Meteostat {
	return &Meteostat{
		baseURL: meteostatBulkURL,
		client:  httputil.NewClient(),
	}
}

// NewMeteostatWithBase is for tests that point the client at a local server.
func NewMeteostatWithBase(baseURL string) *Meteostat {
	m := NewMeteostat()
	m.baseURL = baseURL
	return m
}

// CatalogFilter narrows the station catalog. Zero values mean no filter.
type CatalogFilter struct {
	Country string
	// Bounding box: MinLat <= lat <= MaxLat, MinLon <= lon <= MaxLon.
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	Limit          int
}

type catalogStation struct {
	ID   string `json:"id"`
	Name struct {
		En string `json:"en"`
	} `json:"name"`
	Country  string `json:"country"`
	Location struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Elevation float64 `json:"elevation"`
	} `json:"location"`
}

// Stations fetches the bulk station catalog and applies the filter.
func (m *Meteostat) Stations(filter CatalogFilter) ([]models.Station, error) {
	body, err := m.fetch("/stations/lite.json.gz", "stations")
	if err != nil {
		return nil, err
	}

	var catalog []catalogStation
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}

	hasBox := filter.MinLat != 0 || filter.MaxLat != 0 || filter.MinLon != 0 || filter.MaxLon != 0

	var stations []models.Station
	for _, cs := range catalog {
		if filter.Country != "" && cs.Country != filter.Country {
			continue
		}
		if hasBox {
			lat, lon := cs.Location.Latitude, cs.Location.Longitude
			if lat < filter.MinLat || lat > filter.MaxLat || lon < filter.MinLon || lon > filter.MaxLon {
				continue
			}
		}
		stations = append(stations, models.Station{
			StationID: cs.ID,
			Name:      cs.Name.En,
			Country:   cs.Country,
			Latitude:  cs.Location.Latitude,
			Longitude: cs.Location.Longitude,
			Elevation: cs.Location.Elevation,
		})
		if filter.Limit > 0 && len(stations) == filter.Limit {
			break
		}
	}
	return stations, nil
}

// Hourly fetches the bulk hourly archive for a station and returns its wind
// observations within [start, end]. Rows with an unparseable date or hour
// are skipped and counted; rows with no wind fields at all are dropped.
func (m *Meteostat) Hourly(stationID string, start, end time.Time) ([]models.Observation, int, error) {
	body, err := m.fetch("/hourly/"+stationID+".csv.gz", "hourly")
	if err != nil {
		return nil, 0, err
	}
	return parseHourly(stationID, body, start, end)
}

func parseHourly(stationID string, body []byte, start, end time.Time) ([]models.Observation, int, error) {
	var observations []models.Observation
	skipped := 0

	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < hourlyMinFields {
			skipped++
			continue
		}

		day, err := time.ParseInLocation("2006-01-02", fields[colDate], time.UTC)
		if err != nil {
			skipped++
			continue
		}
		hour, err := strconv.Atoi(fields[colHour])
		if err != nil || hour < 0 || hour > 23 {
			skipped++
			continue
		}
		at := day.Add(time.Duration(hour) * time.Hour)
		if at.Before(start) || at.After(end) {
			continue
		}

		obs := models.Observation{
			StationID:  stationID,
			ObservedAt: at,
			WindDir:    nullFloat(fields[colWdir]),
			WindSpeed:  nullFloat(fields[colWspd]),
			WindGust:   nullFloat(fields[colWpgt]),
		}
		if !obs.WindDir.Valid && !obs.WindSpeed.Valid && !obs.WindGust.Valid {
			continue
		}
		observations = append(observations, obs)
	}
	return observations, skipped, nil
}

// fetch retrieves and decompresses a gzipped bulk file, retrying transient
// failures with exponential backoff. Client-side errors are permanent.
func (m *Meteostat) fetch(path, endpoint string) ([]byte, error) {
	url := m.baseURL + path

	var body []byte
	operation := func() error {
		started := time.Now()
		resp, err := m.client.Get(url)
		if err != nil {
			metrics.BulkFetchesTotal.WithLabelValues(endpoint, "error").Inc()
			return fmt.Errorf("fetch %s: %w", endpoint, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			metrics.BulkFetchesTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
			return fmt.Errorf("fetch %s: status %d", endpoint, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			metrics.BulkFetchesTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d", endpoint, resp.StatusCode))
		}

		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("gzip reader: %w", err))
		}
		defer gz.Close()

		body, err = io.ReadAll(gz)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}

		metrics.BulkFetchesTotal.WithLabelValues(endpoint, "200").Inc()
		metrics.BulkFetchLatency.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	return body, nil
}

func nullFloat(s string) sql.NullFloat64 {
	if s == "" {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
