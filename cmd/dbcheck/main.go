// Command dbcheck connects to PostgreSQL using the API's DB_* settings and
// reports the database, its tables and whether the schema is applied.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

var requiredTables = []string{
	"profiles", "categories", "products", "banners", "cart_items", "addresses",
	"coupons", "orders", "order_items", "coupon_usages", "first_order_devices",
	"return_requests", "notifications",
}

func main() {
	_ = godotenv.Load(".env")

	dsn := flag.String("dsn", defaultDSN(), "PostgreSQL connection string")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, *dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	var dbName, version string
	if err := conn.QueryRow(ctx, "SELECT current_database(), version()").Scan(&dbName, &version); err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully connected to database: %s\n%s\n", dbName, version)

	rows, err := conn.Query(ctx, `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public'`)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	present, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		os.Exit(1)
	}

	missing := missingTables(present)
	fmt.Printf("\nTables found: %d\n", len(present))
	if len(missing) > 0 {
		fmt.Printf("Schema not applied, missing: %v\n", missing)
		os.Exit(2)
	}
	fmt.Println("Schema is up to date")
}

func defaultDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		env("DB_USER", "postgres"), env("DB_PASSWORD", "postgres"),
		env("DB_HOST", "localhost"), env("DB_PORT", "5432"), env("DB_NAME", "tapandbuy"))
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func missingTables(present []string) []string {
	have := make(map[string]bool, len(present))
	for _, t := range present {
		have[t] = true
	}
	var missing []string
	for _, t := range requiredTables {
		if !have[t] {
			missing = append(missing, t)
		}
	}
	return missing
}
