package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/diewo77/invoice-etl/internal/config"
	"github.com/diewo77/invoice-etl/internal/db"
	"github.com/diewo77/invoice-etl/internal/etl"
	"github.com/diewo77/invoice-etl/internal/logger"
	"github.com/diewo77/invoice-etl/internal/source"
)

var (
	fileFlag        = flag.String("file", "", "Batch file to ingest (overrides DATA_FILE)")
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	statsOnlyFlag   = flag.Bool("stats", false, "Print database statistics and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(cfg.Log)

	conn, err := db.Connect(cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := db.Migrate(conn, cfg.App, cfg.Database.URL()); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	if *migrateOnlyFlag {
		log.Info("migrations completed")
		return
	}

	if *statsOnlyFlag {
		printStats(conn)
		return
	}

	path := cfg.App.DataFile
	if *fileFlag != "" {
		path = *fileFlag
	}
	docs, err := source.ReadBatch(path)
	if err != nil {
		log.Error("failed to read batch", "file", path, "error", err)
		os.Exit(1)
	}
	log.Info("ingesting batch", "file", path, "documents", len(docs))

	runner := etl.NewRunner(conn, cfg.App.Currency, log)
	report := runner.Run(docs)

	fmt.Printf("Processed: %d\nErrors:    %d\nSkipped:   %d\n",
		report.Processed, report.Errors, report.Skipped)
	printStats(conn)
}

func printStats(conn *gorm.DB) {
	stats, err := etl.CollectStats(conn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to collect statistics: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\nDatabase statistics:")
	fmt.Printf("  Documents:  %d\n", stats.Documents)
	fmt.Printf("  Invoices:   %d (%d processed)\n", stats.Invoices, stats.ProcessedInvoices)
	fmt.Printf("  Vendors:    %d\n", stats.Vendors)
	fmt.Printf("  Customers:  %d\n", stats.Customers)
	fmt.Printf("  Line items: %d\n", stats.LineItems)
	fmt.Printf("  Payments:   %d\n", stats.Payments)
	fmt.Printf("  Summaries:  %d\n", stats.Summaries)
	fmt.Printf("  Total spend:   %.2f\n", stats.TotalSpend)
	fmt.Printf("  Avg invoice:   %.2f\n", stats.AverageInvoice)
}
