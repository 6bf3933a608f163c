package main

import (
	"invest_platform/internal/config" // Custom import path (Config)
	"invest_platform/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus"
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration

	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("Migration failed: %v", err)
	}

	// Seed the first admin when credentials are configured
	if cfg.AdminEmail == "" {
		return
	}
	if _, err := db.SeedAdmin(gdb, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logrus.Fatalf("Admin seed failed: %v", err)
	}
}
