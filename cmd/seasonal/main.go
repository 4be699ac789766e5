package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"RollSpread/internal/di"
	"RollSpread/internal/domain/models"
	"RollSpread/pkg/config"
	"RollSpread/pkg/server"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	group := flag.String("group", "", "filter by Group")
	region := flag.String("region", "", "filter by Region")
	instrument := flag.String("instrument", "", "filter by InstrumentName")
	month := flag.String("month", "", "filter by Month")
	definitions := flag.String("definitions", "", "definitions CSV used with -definition-row")
	row := flag.Int("definition-row", 0, "build this 1-based definition row instead of reading the table")
	withOptions := flag.Bool("options", false, "include the available filter values")
	pretty := flag.Bool("pretty", false, "indent the JSON output")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	// stdout carries the report
	if cfg.Log.Output == "" || cfg.Log.Output == "stdout" {
		cfg.Log.Output = "stderr"
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	out, err := app.Seasonal(context.Background(), server.SeasonalQuery{
		Filter: models.SpreadFilter{
			Group:          *group,
			Region:         *region,
			InstrumentName: *instrument,
			Month:          *month,
		},
		DefinitionsFile: *definitions,
		DefinitionRow:   *row,
		WithOptions:     *withOptions,
	})
	if err != nil {
		_ = app.Close()
		log.Fatalf("seasonal report failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		log.Printf("encode report: %v", err)
	}
	_ = app.Close()
}
