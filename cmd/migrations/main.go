package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/vncsmyrnk/fintrack/internal/adapters/repository/postgres"
)

const usage = `usage: migrations [-database URL] COMMAND [ARGS...]

Commands are passed to goose: up, up-by-one, up-to VERSION, down,
down-to VERSION, redo, reset, status, version.`

func main() {
	_ = godotenv.Load()

	var dsn string
	flag.StringVar(&dsn, "database", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	flag.Usage = func() { fmt.Fprintln(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db, flag.Arg(0), flag.Args()[1:]...); err != nil {
		log.Fatal(err)
	}
}
