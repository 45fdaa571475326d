package main

import (
	"flag"
	"fmt"
	"github.com/IlyasAtabaev731/finance-records/internal/storage/postgres"
	"github.com/joho/godotenv"
	"os"
)

func main() {
	var dbUrl, migrationsTable string

	_ = godotenv.Load()

	flag.StringVar(&dbUrl, "db-url", os.Getenv("DATABASE_URL"), "postgres connection url, defaults to $DATABASE_URL")
	flag.StringVar(&migrationsTable, "migrations-table", "migrations", "name of migrations table")
	flag.Parse()

	if dbUrl == "" {
		panic("db url is required")
	}

	applied, err := postgres.Migrate(dbUrl, migrationsTable)
	if err != nil {
		panic(err)
	}
	if !applied {
		fmt.Println("no migrations to apply")
		return
	}

	fmt.Println("migrations applied successfully")
}
