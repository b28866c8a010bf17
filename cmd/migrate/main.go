package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"rollcall/internal/config"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return
	}
	command := args[0]

	cfg := config.Load()

	database, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.PingContext(ctx); err != nil {
		log.Fatalf("db ping failed: %v", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("goose dialect: %v", err)
	}

	switch command {
	case "up":
		if err := goose.Up(database, "migrations"); err != nil {
			log.Fatalf("migrate up failed: %v", err)
		}
	case "down":
		if err := goose.Down(database, "migrations"); err != nil {
			log.Fatalf("migrate down failed: %v", err)
		}
	case "status":
		if err := goose.Status(database, "migrations"); err != nil {
			log.Fatalf("migrate status failed: %v", err)
		}
	default:
		fmt.Printf("unknown command: %s\n", command)
		flag.Usage()
	}
}

func usage() {
	fmt.Println("usage: migrate [up|down|status]")
	fmt.Println("reads DATABASE_URL; run from the repository root so ./migrations resolves")
}
