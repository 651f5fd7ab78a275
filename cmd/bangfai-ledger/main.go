package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/ekkaluck/bangfai-ledger/internal/app"
	"github.com/ekkaluck/bangfai-ledger/internal/auth"
	"github.com/ekkaluck/bangfai-ledger/internal/logger"
	"github.com/ekkaluck/bangfai-ledger/pkg/linechat"
)

var (
	version = "dev"
)

const defaultPayoutRate = 2.0

func main() {
	port := flag.Int("port", 8081, "HTTP server port")
	dbPath := flag.String("db", "ledger.db", "SQLite database path")
	adminPw := flag.String("adminpw", "", "Admin password (auto-generated if not set)")
	logLevel := flag.String("loglevel", "info", "Log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Bangfai Ledger - LINE chat betting ledger for rocket festival rounds

Usage:
  bangfai-ledger [options]

Options:
  -port int      HTTP server port (default 8081)
  -db string     SQLite database path (default "ledger.db")
  -adminpw str   Admin password (auto-generated if not set)
  -loglevel str  Log level: debug, info, warn, error (default "info")
  -version       Show version and exit
  -help          Show this help message

Environment (read from .env if present):
  LINE_CHANNEL_SECRET   LINE messaging API channel secret
  LINE_CHANNEL_TOKEN    LINE messaging API channel access token
  PAYOUT_RATE           Winning stake multiplier (default 2.0)

Examples:
  bangfai-ledger                       # Run on port 8081 with ledger.db
  bangfai-ledger -port 8080            # Run on port 8080
  bangfai-ledger -db /data/festival.db # Use custom database path
  bangfai-ledger -adminpw secret123    # Use specific admin password

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("bangfai-ledger %s\n", version)
		os.Exit(0)
	}

	// Missing .env is fine; production sets real environment variables
	_ = godotenv.Load()

	// Setup admin authentication
	password := *adminPw
	if password == "" {
		password = auth.GeneratePassword()
	}
	adminAuth := auth.New(password)

	// Create logger with specified level
	appLog := logger.NewWithLevel(logger.ParseLevel(*logLevel))

	lineClient, err := linechat.New(os.Getenv("LINE_CHANNEL_SECRET"), os.Getenv("LINE_CHANNEL_TOKEN"))
	if err != nil {
		log.Fatal("Failed to create LINE client:", err)
	}

	payoutRate := defaultPayoutRate
	if raw := os.Getenv("PAYOUT_RATE"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate <= 0 {
			log.Fatalf("Invalid PAYOUT_RATE %q", raw)
		}
		payoutRate = rate
	}

	a, err := app.New(appLog, *dbPath, lineClient, adminAuth, payoutRate)
	if err != nil {
		log.Fatal("Failed to initialize application:", err)
	}
	defer a.Close()

	appLog.Info("Admin password", "password", password)
	appLog.Info("Payout rate", "rate", payoutRate)

	addr := fmt.Sprintf(":%d", *port)
	if err := a.Run(addr); err != nil {
		log.Fatal(err)
	}
}
