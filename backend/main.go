package main

import (
	"context"
	"log"
	"net/http"

	"medstock/m/domain"
	"medstock/m/internal/api"
	"medstock/m/internal/auth"
	"medstock/m/internal/checkout"
	"medstock/m/internal/config"
	"medstock/m/internal/database"
	"medstock/m/internal/inventory"
	"medstock/m/internal/journal"
	"medstock/m/internal/migrations"
	"medstock/m/internal/sales"
	"medstock/m/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()

	migrations.Run(db)
	users := []seed.Credential{
		{Username: "admin", Password: cfg.AdminPassword, Role: domain.RoleAdmin},
		{Username: "staff", Password: cfg.StaffPassword, Role: domain.RoleStaff},
	}
	extra, err := seed.ReadUsersCSV(cfg.UsersPath())
	if err != nil {
		log.Printf("unable to read users file %s: %v", cfg.UsersPath(), err)
	}
	if err := seed.LoadUsers(db, append(users, extra...)); err != nil {
		log.Fatalf("seed users: %v", err)
	}

	inv, err := inventory.Open(cfg.InventoryPath(), nil)
	if err != nil {
		log.Fatalf("inventory: %v", err)
	}
	sl, err := sales.Open(cfg.SalesPath(), nil)
	if err != nil {
		log.Fatalf("sales: %v", err)
	}

	coordinator := checkout.New(inv, sl, checkout.WithJournal(journal.New(db)))
	report, err := coordinator.Recover(context.Background())
	if err != nil {
		log.Printf("sale recovery incomplete: %v", err)
	}
	if report != (checkout.RecoveryReport{}) {
		log.Printf("recovered sales: %d completed, %d aborted, %d need review", report.Completed, report.Aborted, report.Conflicted)
	}

	if expiring := inv.CheckExpirations(cfg.ExpiryWindow()); len(expiring) > 0 {
		log.Printf("%d items expire within %d days", len(expiring), cfg.ExpiryWindowDays)
		for _, it := range expiring {
			log.Printf("  %s: %s", it.Name, it.ExpirationDate)
		}
	}

	handler := api.New(api.Deps{
		Inventory:    inv,
		Sales:        sl,
		Checkout:     coordinator,
		Auth:         auth.NewAuthenticator(db),
		Tokens:       auth.NewTokens(cfg.Secret, cfg.TokenTTL),
		ExpiryWindow: cfg.ExpiryWindow(),
	})

	log.Printf("pharmacy stock server starting on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
