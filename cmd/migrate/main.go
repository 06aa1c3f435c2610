package main

import (
	"fmt"
	"os"

	"github.com/montuvia/inventory_backend/config"
	"github.com/montuvia/inventory_backend/models"
)

func main() {
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("migration complete")
}
