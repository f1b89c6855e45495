// Package main seeds every configured city with its manager account, the
// RUTA and MOSTRADOR pseudo-customers and, optionally, demo products.
// Running it twice is harmless: existing rows are kept.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"distribuidora/internal/app"
	"distribuidora/internal/config"
	"distribuidora/internal/core/apperror"
	appctx "distribuidora/internal/core/context"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/core/types"
	"distribuidora/internal/domain/auth"
	"distribuidora/internal/domain/catalogs/customer"
	"distribuidora/internal/domain/catalogs/product"
	"distribuidora/pkg/logger"
)

// counterCustomer is the walk-in pseudo-customer used by counter sales.
const counterCustomer = "MOSTRADOR"

type demoProduct struct {
	name  string
	price string
	qty   float64
}

var demoProducts = []demoProduct{
	{"HIELO EN CUBO 5KG", "35", 200},
	{"HIELO EN CUBO 15KG", "90", 80},
	{"HIELO FRAPPE 3KG", "28", 120},
	{"BARRA DE HIELO", "120", 40},
	{"AGUA GARRAFON 20L", "30", 150},
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadForTools()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer application.Close()

	password := os.Getenv("MANAGER_PASSWORD")
	if password == "" {
		password = "Gerente123!"
	}
	demo := os.Getenv("SEED_DEMO_DATA") == "true"

	for _, t := range application.Tenants.List() {
		cityCtx := seedContext(ctx, t)
		if err := seedCity(cityCtx, application, cfg, password, demo, log.With("city", string(t))); err != nil {
			log.Fatalw("failed to seed city", "city", string(t), "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// seedContext acts as a manager of city t.
func seedContext(ctx context.Context, t tenant.Key) context.Context {
	ctx = tenant.WithTenant(ctx, t)
	return appctx.WithUser(ctx, &appctx.UserContext{
		Tenant:      string(t),
		Username:    "seed",
		DisplayName: "SEED",
		Role:        string(auth.RoleManager),
	})
}

func seedCity(ctx context.Context, a *app.App, cfg *config.Config, password string, demo bool, log *logger.Logger) error {
	s := a.Services

	username := "gerente." + strings.ToLower(string(tenant.FromContext(ctx)))
	_, err := s.Auth.CreateUser(ctx, auth.CreateUserRequest{
		Username:    username,
		Password:    password,
		DisplayName: "GERENTE",
		Role:        auth.RoleManager,
	})
	if err := skipExisting(err); err != nil {
		return fmt.Errorf("manager: %w", err)
	}
	log.Infow("manager ready", "username", username)

	for _, name := range []string{cfg.DispatchRouteCustomer, counterCustomer} {
		if name == "" {
			continue
		}
		_, err := s.Customers.Create(ctx, customer.CreateInput{Name: name, Payment: customer.PaymentCash})
		if err := skipExisting(err); err != nil {
			return fmt.Errorf("customer %s: %w", name, err)
		}
	}
	log.Info("pseudo-customers ready")

	if !demo {
		return nil
	}
	for _, p := range demoProducts {
		_, err := s.Products.Create(ctx, product.CreateInput{
			Name:     p.name,
			Price:    types.MustMoney(p.price),
			Quantity: types.NewQuantityFromFloat64(p.qty),
		})
		if err := skipExisting(err); err != nil {
			return fmt.Errorf("product %s: %w", p.name, err)
		}
	}
	log.Infow("demo products ready", "count", len(demoProducts))
	return nil
}

func skipExisting(err error) error {
	if err == nil || apperror.IsDuplicate(err) {
		return nil
	}
	return err
}
