package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	ingredients := flag.String("ingredients", "", "CSV file with name,measurement_unit rows")
	tags := flag.String("tags", "", "CSV file with name,color,slug rows")
	flag.Parse()

	if *ingredients == "" && *tags == "" {
		fmt.Fprintln(os.Stderr, "usage: import_data [-ingredients file.csv] [-tags file.csv]")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := logging.New(config.GetEnvironment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	catalog := service.NewCatalogService(db, logger)
	ctx := context.Background()

	if *ingredients != "" {
		created, err := importFile(*ingredients, func(f *os.File) (int, error) {
			return catalog.ImportIngredients(ctx, f)
		})
		if err != nil {
			logger.Fatal("ingredient import failed", zap.String("file", *ingredients), zap.Error(err))
		}
		fmt.Printf("Imported %d new ingredients from %s\n", created, *ingredients)
	}

	if *tags != "" {
		created, err := importFile(*tags, func(f *os.File) (int, error) {
			return catalog.ImportTags(ctx, f)
		})
		if err != nil {
			logger.Fatal("tag import failed", zap.String("file", *tags), zap.Error(err))
		}
		fmt.Printf("Imported %d new tags from %s\n", created, *tags)
	}
}

func importFile(path string, load func(*os.File) (int, error)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return load(f)
}
