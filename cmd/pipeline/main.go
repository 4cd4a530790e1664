package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/toto04/homescraper/internal/config"
	"github.com/toto04/homescraper/internal/model"
	"github.com/toto04/homescraper/internal/repository"
	"github.com/toto04/homescraper/internal/service"
)

func main() {
	csvPath := flag.String("csv", "", "path to a scraped rows CSV export to import before running")
	steps := flag.String("steps", "all", "comma separated steps to run: extract,geodata,score,embed or all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
		cfg.OpenAI.EmbeddingDimensions,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	var aiClient service.AIClient
	if cfg.OpenAI.Enabled {
		aiClient = service.NewOpenAIClient(&cfg.OpenAI)
	}
	geoClient := service.NewGoogleClient(&cfg.Google)

	extractor := service.NewExtractor(aiClient, cfg.Pipeline.ExtractStaggerMS)
	enricher := service.NewEnricher(geoClient, cfg.Pipeline.GeoMaxWorkers)
	pipeline := service.NewPipeline(repo, extractor, enricher, aiClient)

	ctx := context.Background()

	if *csvPath != "" {
		rows, err := readRowsCSV(*csvPath)
		if err != nil {
			log.Fatalf("Failed to read CSV: %v", err)
		}
		n, err := pipeline.ImportRows(ctx, rows)
		if err != nil {
			log.Fatalf("Failed to import rows: %v", err)
		}
		log.Printf("Imported %d listings from %d rows", n, len(rows))
	}

	runSteps := func() {
		if err := runSelectedSteps(ctx, pipeline, *steps); err != nil {
			log.Printf("Pipeline failed: %v", err)
		}
	}

	// Without a schedule, run once and exit
	if cfg.Pipeline.Cron == "" {
		runSteps()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Pipeline.Cron, runSteps); err != nil {
		log.Fatalf("Invalid PIPELINE_CRON spec %q: %v", cfg.Pipeline.Cron, err)
	}
	c.Start()
	log.Printf("Pipeline scheduled with spec %q", cfg.Pipeline.Cron)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stopping scheduler...")
	<-c.Stop().Done()
}

func runSelectedSteps(ctx context.Context, pipeline *service.Pipeline, steps string) error {
	if steps == "all" {
		return pipeline.Run(ctx)
	}

	for _, step := range strings.Split(steps, ",") {
		var n int
		var err error
		switch strings.TrimSpace(step) {
		case "extract":
			n, err = pipeline.ExtractMissing(ctx)
		case "geodata":
			n, err = pipeline.EnrichMissing(ctx)
		case "score":
			n, err = pipeline.RescoreAll(ctx)
		case "embed":
			n, err = pipeline.EmbedMissing(ctx)
		default:
			return fmt.Errorf("unknown step %q", step)
		}
		if err != nil {
			return fmt.Errorf("step %s failed: %w", step, err)
		}
		log.Printf("Step %s done: %d listings", step, n)
	}
	return nil
}

// readRowsCSV reads a scraped rows export. The header row names the
// columns; unknown columns are ignored.
func readRowsCSV(path string) ([]model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV has no data rows")
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	get := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	rows := make([]model.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, model.Row{
			Order:       get(record, "web-scraper-order"),
			StartURL:    get(record, "web-scraper-start-url"),
			Title:       get(record, "title"),
			URL:         get(record, "url"),
			URLHref:     get(record, "url-href"),
			Price:       get(record, "price"),
			Description: get(record, "description"),
			Features:    get(record, "features"),
			Others:      get(record, "others"),
			Costs:       get(record, "costs"),
			AddCosts:    get(record, "addcosts"),
			ImageSrc:    get(record, "images-src"),
		})
	}

	return rows, nil
}
