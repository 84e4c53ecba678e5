package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/api"
	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/atlas"
	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/csvio"
	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/ingest"
	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/metrics"
	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/models"
	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/rose"
	"github.com/JoonHeeSeo/Korea-windrose-forecast/internal/store"
)

type Globals struct {
	DB string `help:"Path to the SQLite observation database." default:"data/windatlas.db" env:"WINDATLAS_DB"`
}

type DownloadCmd struct {
	Country string    `help:"ISO-3166 country code filter." default:"KR"`
	Start   string    `help:"Start date (YYYY-MM-DD, UTC)." required:""`
	End     string    `help:"End date (YYYY-MM-DD, UTC)." required:""`
	Limit   int       `help:"Maximum number of stations (0 = all)."`
	BBox    []float64 `help:"Bounding box: min-lat,max-lat,min-lon,max-lon."`
	Merge   string    `help:"Also write all downloaded observations to one merged CSV." type:"path"`
}

type ImportISDCmd struct {
	Year int    `help:"Archive year to import." required:""`
	USAF string `help:"USAF station number." required:""`
	WBAN string `help:"WBAN station number." default:"99999"`
}

type BuildCmd struct {
	Input    string  `help:"Observation CSV to aggregate instead of the database." type:"existingfile"`
	Meta     string  `help:"Station metadata CSV joined into the atlas." type:"existingfile"`
	Out      string  `help:"Output directory." default:"atlas" type:"path"`
	Freq     string  `help:"Aggregation period." enum:"annual,monthly" default:"annual"`
	Rho      float64 `help:"Air density in kg/m³." default:"1.225"`
	PlotRose bool    `help:"Render a wind-rose PNG per station and period."`
}

type ServeCmd struct {
	Atlas string `help:"Atlas CSV produced by build." default:"atlas/wind_atlas_annual.csv" type:"existingfile"`
	Port  string `help:"HTTP server port." default:"8080" env:"WINDATLAS_PORT"`
}

var cli struct {
	Globals

	Download  DownloadCmd  `cmd:"" help:"Download station catalog and hourly wind observations."`
	ImportIsd ImportISDCmd `cmd:"" help:"Import one station-year from the NOAA ISD-Lite FTP archive."`
	Build     BuildCmd     `cmd:"" help:"Aggregate observations into the wind atlas table."`
	Serve     ServeCmd     `cmd:"" help:"Serve the atlas explorer dashboard."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("windatlas"),
		kong.Description("Wind observation downloader, atlas builder and explorer."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}

func openStore(path string) (*store.Store, func(), error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return st, func() { db.Close() }, nil
}

func (c *DownloadCmd) Run(g *Globals) error {
	start, err := time.ParseInLocation("2006-01-02", c.Start, time.UTC)
	if err != nil {
		return fmt.Errorf("parse --start: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02", c.End, time.UTC)
	if err != nil {
		return fmt.Errorf("parse --end: %w", err)
	}
	end = end.Add(23 * time.Hour)

	filter := ingest.CatalogFilter{Country: c.Country, Limit: c.Limit}
	if len(c.BBox) > 0 {
		if len(c.BBox) != 4 {
			return fmt.Errorf("--bbox needs 4 values, got %d", len(c.BBox))
		}
		filter.MinLat, filter.MaxLat = c.BBox[0], c.BBox[1]
		filter.MinLon, filter.MaxLon = c.BBox[2], c.BBox[3]
	}

	client := ingest.NewMeteostat()
	stations, err := client.Stations(filter)
	if err != nil {
		return fmt.Errorf("fetch station catalog: %w", err)
	}
	if len(stations) == 0 {
		return fmt.Errorf("no stations match country=%q bbox=%v", c.Country, c.BBox)
	}
	log.Printf("download: %d stations in catalog", len(stations))

	st, closeDB, err := openStore(g.DB)
	if err != nil {
		return err
	}
	defer closeDB()

	var merged []models.Observation
	fetched := 0
	for _, station := range stations {
		observations, skipped, err := client.Hourly(station.StationID, start, end)
		if err != nil {
			log.Printf("download: %s: %v", station.StationID, err)
			continue
		}
		if skipped > 0 {
			log.Printf("download: %s: skipped %d malformed rows", station.StationID, skipped)
		}
		if len(observations) == 0 {
			log.Printf("download: %s: no data for %s..%s", station.StationID, c.Start, c.End)
			continue
		}

		if err := st.UpsertStation(station); err != nil {
			return fmt.Errorf("upsert station %s: %w", station.StationID, err)
		}
		inserted, err := st.InsertObservations(observations)
		if err != nil {
			return fmt.Errorf("insert observations %s: %w", station.StationID, err)
		}
		metrics.ObservationsIngested.WithLabelValues(station.StationID, "meteostat").Add(float64(inserted))
		log.Printf("download: %s: %d observations (%d new)", station.StationID, len(observations), inserted)
		fetched++

		if c.Merge != "" {
			merged = append(merged, observations...)
		}
	}

	if fetched == 0 {
		return errors.New("no observations downloaded for any station")
	}

	if c.Merge != "" {
		sort.Slice(merged, func(i, j int) bool {
			if !merged[i].ObservedAt.Equal(merged[j].ObservedAt) {
				return merged[i].ObservedAt.Before(merged[j].ObservedAt)
			}
			return merged[i].StationID < merged[j].StationID
		})
		f, err := os.Create(c.Merge)
		if err != nil {
			return fmt.Errorf("create merged csv: %w", err)
		}
		defer f.Close()
		if err := csvio.WriteObservations(f, merged); err != nil {
			return fmt.Errorf("write merged csv: %w", err)
		}
		log.Printf("download: merged dataset -> %s (%d rows)", c.Merge, len(merged))
	}
	return nil
}

func (c *ImportISDCmd) Run(g *Globals) error {
	client := ingest.NewISDLite()
	observations, skipped, err := client.Fetch(c.Year, c.USAF, c.WBAN)
	if err != nil {
		return fmt.Errorf("fetch isd-lite %s-%s %d: %w", c.USAF, c.WBAN, c.Year, err)
	}
	if skipped > 0 {
		log.Printf("import-isd: skipped %d malformed lines", skipped)
	}
	if len(observations) == 0 {
		return fmt.Errorf("no observations in archive for %s-%s %d", c.USAF, c.WBAN, c.Year)
	}

	st, closeDB, err := openStore(g.DB)
	if err != nil {
		return err
	}
	defer closeDB()

	stationID := fmt.Sprintf("%s-%s", c.USAF, c.WBAN)
	if err := st.UpsertStation(models.Station{StationID: stationID}); err != nil {
		return fmt.Errorf("upsert station %s: %w", stationID, err)
	}
	inserted, err := st.InsertObservations(observations)
	if err != nil {
		return fmt.Errorf("insert observations %s: %w", stationID, err)
	}
	metrics.ObservationsIngested.WithLabelValues(stationID, "isdlite").Add(float64(inserted))
	log.Printf("import-isd: %s: %d observations (%d new)", stationID, len(observations), inserted)
	return nil
}

func (c *BuildCmd) Run(g *Globals) error {
	observations, stations, err := c.loadInputs(g)
	if err != nil {
		return err
	}

	rows, report, err := atlas.Build(observations, stations, atlas.Options{
		Freq: atlas.Freq(c.Freq),
		Rho:  c.Rho,
	})
	if err != nil {
		return err
	}

	outPath := filepath.Join(c.Out, fmt.Sprintf("wind_atlas_%s.csv", c.Freq))
	if err := csvio.WriteAtlasFile(outPath, rows); err != nil {
		return err
	}
	metrics.AtlasRowsBuilt.Add(float64(report.Rows))
	log.Printf("atlas: %d observations -> %d groups -> %s", report.Observations, report.Groups, outPath)

	if c.PlotRose {
		for _, row := range rows {
			path := filepath.Join(c.Out, fmt.Sprintf("rose_%s_%s.png", row.StationID, row.Period))
			if err := rose.WriteFile(path, row.DirFreq, 400); err != nil {
				return fmt.Errorf("render rose %s: %w", path, err)
			}
		}
		log.Printf("atlas: rendered %d wind roses", len(rows))
	}
	return nil
}

func (c *BuildCmd) loadInputs(g *Globals) ([]models.Observation, []models.Station, error) {
	var observations []models.Observation
	var stations []models.Station

	if c.Input != "" {
		f, err := os.Open(c.Input)
		if err != nil {
			return nil, nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()

		var skipped int
		observations, skipped, err = csvio.ReadObservations(f)
		if err != nil {
			return nil, nil, fmt.Errorf("read input: %w", err)
		}
		if skipped > 0 {
			log.Printf("atlas: skipped %d rows with unparseable timestamps", skipped)
		}
	} else {
		st, closeDB, err := openStore(g.DB)
		if err != nil {
			return nil, nil, err
		}
		defer closeDB()

		observations, err = st.GetObservations()
		if err != nil {
			return nil, nil, fmt.Errorf("load observations: %w", err)
		}
		stations, err = st.GetStations()
		if err != nil {
			return nil, nil, fmt.Errorf("load stations: %w", err)
		}
	}

	if c.Meta != "" {
		f, err := os.Open(c.Meta)
		if err != nil {
			return nil, nil, fmt.Errorf("open metadata: %w", err)
		}
		defer f.Close()

		stations, err = csvio.ReadStations(f)
		if err != nil {
			return nil, nil, fmt.Errorf("read metadata: %w", err)
		}
	}
	return observations, stations, nil
}

func (c *ServeCmd) Run(g *Globals) error {
	rows, err := csvio.ReadAtlasFile(c.Atlas)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("atlas table %s is empty", c.Atlas)
	}
	log.Printf("serve: loaded %d atlas rows from %s", len(rows), c.Atlas)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server := api.NewServer(rows, c.Port)
	log.Printf("serve: starting on :%s", c.Port)
	return server.Run(ctx)
}
