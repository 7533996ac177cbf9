package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/config"
	"github.com/Oliver369X/iot-building-simulator/pkg/database"
	"github.com/Oliver369X/iot-building-simulator/pkg/logger"
)

// 应用数据库schema（建表+预置设备类型）
func main() {
	schemaPath := flag.String("schema", "scripts/schema.sql", "path to schema SQL file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "apply-schema")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	ddl, err := os.ReadFile(*schemaPath)
	if err != nil {
		log.Fatal("Failed to read schema file",
			zap.String("path", *schemaPath),
			zap.Error(err),
		)
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect database",
			zap.Error(err),
		)
	}
	defer db.Close()

	if _, err := db.Exec(string(ddl)); err != nil {
		log.Fatal("Failed to apply schema",
			zap.Error(err),
		)
	}

	log.Info("Schema applied",
		zap.String("path", *schemaPath),
		zap.String("database", cfg.Database.Database),
	)
}
