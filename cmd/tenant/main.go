// Package main provides the CLI for schema and city management.
// Usage: tenant migrate
//
//	tenant cities
//	tenant set-folio --city URUAPAN --kind SALE_COUNTER --next 1500
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"distribuidora/internal/config"
	"distribuidora/internal/core/folio"
	"distribuidora/internal/core/tenant"
	folioinfra "distribuidora/internal/infrastructure/folio"
	"distribuidora/internal/infrastructure/storage/postgres"
	"distribuidora/migrations"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "migrate":
		migrate(ctx)
	case "version":
		version(ctx)
	case "cities":
		listCities(ctx)
	case "set-folio":
		setFolio(ctx)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Distribuidora Tenant CLI

Usage:
  tenant <command> [options]

Commands:
  migrate    Apply pending schema migrations
  version    Print the applied schema version
  cities     List configured cities with their folio counters
  set-folio  Set the next folio of a sequence
  help       Show this help

Environment Variables:
  DATABASE_URL   Connection string (required)
  TENANTS        Comma separated cities (default URUAPAN,LAZARO)

Examples:
  tenant migrate
  tenant cities
  tenant set-folio --city URUAPAN --kind SALE_COUNTER --next 1500
  tenant set-folio --city lazaro --kind DISPATCH --next 300`)
}

func loadConfig() *config.Config {
	cfg, err := config.LoadForTools()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func getPool(ctx context.Context, cfg *config.Config) *postgres.Pool {
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	return pool
}

func migrate(ctx context.Context) {
	cfg := loadConfig()
	pool := getPool(ctx, cfg)
	defer pool.Close()

	v, err := migrations.Up(ctx, pool.Unwrap())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Schema is at version %d\n", v)
}

func version(ctx context.Context) {
	cfg := loadConfig()
	pool := getPool(ctx, cfg)
	defer pool.Close()

	v, err := migrations.Version(ctx, pool.Unwrap())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(v)
}

func listCities(ctx context.Context) {
	cfg := loadConfig()
	pool := getPool(ctx, cfg)
	defer pool.Close()

	registry := tenant.NewRegistry(cfg.TenantList()...)

	fmt.Printf("%-12s %-14s %s\n", "CITY", "SEQUENCE", "LAST")
	fmt.Println(strings.Repeat("-", 36))
	for _, t := range registry.List() {
		rows, err := pool.Query(ctx,
			`SELECT kind, last_value FROM folio_counters WHERE tenant = $1 ORDER BY kind`, string(t))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		empty := true
		for rows.Next() {
			var kind string
			var last int64
			if err := rows.Scan(&kind, &last); err != nil {
				rows.Close()
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			empty = false
			fmt.Printf("%-12s %-14s %d\n", t, kind, last)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if empty {
			fmt.Printf("%-12s %-14s %s\n", t, "-", "-")
		}
	}
}

func setFolio(ctx context.Context) {
	var city, kind string
	var next int64

	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--city":
			if i+1 < len(os.Args) {
				city = os.Args[i+1]
				i++
			}
		case "--kind":
			if i+1 < len(os.Args) {
				kind = strings.ToUpper(os.Args[i+1])
				i++
			}
		case "--next":
			if i+1 < len(os.Args) {
				v, err := strconv.ParseInt(os.Args[i+1], 10, 64)
				if err != nil {
					fmt.Printf("Error: --next must be a number: %v\n", err)
					os.Exit(1)
				}
				next = v
				i++
			}
		}
	}

	if city == "" || kind == "" || next < 1 {
		fmt.Println("Error: --city, --kind and a positive --next are required")
		fmt.Println("Usage: tenant set-folio --city <city> --kind SALE|SALE_COUNTER|SALE_ROUTE|DISPATCH --next <n>")
		os.Exit(1)
	}

	k := folio.Kind(kind)
	switch k {
	case folio.KindSale, folio.KindCounterSale, folio.KindRouteSale, folio.KindDispatch:
	default:
		fmt.Printf("Error: unknown sequence %q\n", kind)
		os.Exit(1)
	}

	cfg := loadConfig()
	t, err := tenant.NewRegistry(cfg.TenantList()...).Resolve(city)
	if err != nil {
		fmt.Printf("Error: unknown city %q\n", city)
		os.Exit(1)
	}

	pool := getPool(ctx, cfg)
	defer pool.Close()

	folios := folioinfra.NewWithTxManager(postgres.NewTxManager(pool))
	if err := folios.SetNext(ctx, t, k, next); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Next %s folio for %s is %d\n", k, t, next)
}
