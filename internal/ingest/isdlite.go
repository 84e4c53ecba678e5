package ingest

import (
	"bufio"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/klauspost/compress/gzip"

	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/models"
)

const (
	isdFTPHost = "ftp.ncei.noaa.gov:21"
	isdPath    = "/pub/data/noaa/isd-lite"

	// ISD-Lite missing-value sentinel
	isdMissing = -9999
)

// ISDLite fetches yearly wind observation files from the NOAA ISD-Lite
// archive over anonymous FTP. Files are gzipped, whitespace-separated, one
// hourly record per line.
type ISDLite struct {
	host string
}

func NewISDLite() *ISDLite {
	return &ISDLite{host: isdFTPHost}
}

// Fetch retrieves one station-year of observations. The station is
// identified by its USAF and WBAN numbers; the combined id is used as the
// observation StationID.
func (c *ISDLite) Fetch(year int, usaf, wban string) ([]models.Observation, int, error) {
	conn, err := ftp.Dial(c.host, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, 0, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return nil, 0, fmt.Errorf("ftp login: %w", err)
	}

	path := fmt.Sprintf("%s/%d/%s-%s-%d.gz", isdPath, year, usaf, wban, year)
	resp, err := conn.Retr(path)
	if err != nil {
		return nil, 0, fmt.Errorf("ftp retr %s: %w", path, err)
	}
	defer resp.Close()

	return ParseISDLite(fmt.Sprintf("%s-%s", usaf, wban), resp)
}

// ParseISDLite decodes a gzipped ISD-Lite stream into wind observations.
// Lines that do not parse are skipped and counted. Wind speed is stored
// scaled by ten in the archive; -9999 marks a missing value.
func ParseISDLite(stationID string, r io.Reader) ([]models.Observation, int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("gzip reader: %w", err)
	}
	defer gz.Close()

	var observations []models.Observation
	skipped := 0

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		obs, ok := parseISDLine(stationID, scanner.Text())
		if !ok {
			skipped++
			continue
		}
		observations = append(observations, obs)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("read isd-lite: %w", err)
	}
	return observations, skipped, nil
}

// ISD-Lite fields: year month day hour air-temp dew-point pressure
// wind-direction wind-speed sky-condition precip-1h precip-6h.
func parseISDLine(stationID, line string) (models.Observation, bool) {
	fields := strings.Fields(line)
	if len(fields) < 9 {
		return models.Observation{}, false
	}

	year, err1 := strconv.Atoi(fields[0])
	month, err2 := strconv.Atoi(fields[1])
	day, err3 := strconv.Atoi(fields[2])
	hour, err4 := strconv.Atoi(fields[3])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return models.Observation{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour < 0 || hour > 23 {
		return models.Observation{}, false
	}

	obs := models.Observation{
		StationID:  stationID,
		ObservedAt: time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC),
	}
	if v, err := strconv.Atoi(fields[7]); err == nil && v != isdMissing {
		obs.WindDir = sql.NullFloat64{Float64: float64(v), Valid: true}
	}
	if v, err := strconv.Atoi(fields[8]); err == nil && v != isdMissing {
		// archived as m/s × 10
		obs.WindSpeed = sql.NullFloat64{Float64: float64(v) / 10, Valid: true}
	}
	return obs, true
}
