package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"easydrive/internal/database"
	"easydrive/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type CarsConfig struct {
	Cars []models.Car `yaml:"cars"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		carsPath = flag.String("cars", "configs/config.yaml", "path to yaml with a cars section")
		dbPath   = flag.String("db", "./data/easydrive.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*carsPath)
	if err != nil {
		return fmt.Errorf("read cars: %w", err)
	}
	var cfg CarsConfig
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse cars: %w", err)
	}
	if len(cfg.Cars) == 0 {
		return fmt.Errorf("no cars in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created := 0
	updated := 0
	for _, car := range cfg.Cars {
		if car.ID == 0 || car.Name == "" {
			continue
		}
		_, err = db.GetCar(ctx, car.ID)
		if err == nil {
			if err = db.UpdateCar(ctx, &car); err != nil {
				return fmt.Errorf("update %s: %w", car.Name, err)
			}
			updated++
			continue
		}
		if !errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("get %s: %w", car.Name, err)
		}
		if err = db.SeedCars(ctx, []models.Car{car}); err != nil {
			return fmt.Errorf("create %s: %w", car.Name, err)
		}
		created++
	}

	fmt.Printf("done: created=%d updated=%d\n", created, updated)
	return nil
}
