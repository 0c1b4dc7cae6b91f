package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"hydrozap/internal/registry"
	"hydrozap/internal/server"
	"hydrozap/internal/store"
	"hydrozap/pkg/config"
	"hydrozap/pkg/database"
)

func main() {
	root := &cobra.Command{
		Use:   "hydrozap",
		Short: "HydroZap hydroponics monitoring backend",
	}
	root.AddCommand(serveCmd(), seedDevicesCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := server.New(config.Load())
			if err != nil {
				return err
			}
			return srv.Run()
		},
	}
}

// seedDevice is one entry of the manufacturing batch file.
type seedDevice struct {
	DeviceID string `yaml:"device_id"`
	Model    string `yaml:"model"`
}

func seedDevicesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed-devices",
		Short: "Load a batch of manufactured device IDs into the device pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read batch file: %w", err)
			}

			var devices []seedDevice
			if err := yaml.Unmarshal(data, &devices); err != nil {
				return fmt.Errorf("parse batch file: %w", err)
			}

			db, err := newSeedStore(config.Load())
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool := registry.NewService(db)
			seeded := 0
			for _, entry := range devices {
				if entry.DeviceID == "" {
					log.Printf("⚠️ Skipping entry with empty device_id")
					continue
				}
				_, err := pool.Provision(ctx, registry.ProvisionRequest{
					DeviceID: entry.DeviceID,
					Model:    entry.Model,
				})
				if err != nil {
					log.Printf("⚠️ Skipping %s: %v", entry.DeviceID, err)
					continue
				}
				seeded++
			}

			log.Printf("✅ Seeded %d of %d devices", seeded, len(devices))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "devices.yaml", "YAML file with the device batch")
	return cmd
}

func newSeedStore(cfg *config.Config) (store.DocumentStore, error) {
	switch cfg.StoreBackend {
	case "postgres":
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return store.NewPostgresStore(db), nil
	case "firebase":
		account, err := store.LoadServiceAccount(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("load service account: %w", err)
		}
		return store.NewFirebaseStore(cfg.FirebaseDatabaseURL, account), nil
	default:
		return nil, fmt.Errorf("seed-devices needs a persistent store backend, got %q", cfg.StoreBackend)
	}
}
