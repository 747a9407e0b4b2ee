package main

import (
	"fmt"
	stdlog "log"

	"github.com/username/momosms/backend/src/config"
	"github.com/username/momosms/backend/src/etl"
	"github.com/username/momosms/backend/src/logger"
	"github.com/username/momosms/backend/src/search"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	transactions, err := etl.ReadClassifiedStage(config.Cfg.StageDir)
	if err != nil {
		stdlog.Fatalf("Could not load classified transactions (run cmd/etl first): %v", err)
	}
	if len(transactions) == 0 {
		stdlog.Fatal("No classified transactions found. Run cmd/etl first.")
	}

	entries := search.BuildEntries(transactions)
	result := search.Compare(entries, 20)

	fmt.Println("Linear Search vs Map Lookup")
	fmt.Printf("  Transactions:   %d\n", len(entries))
	fmt.Printf("  Searches:       %d\n", result.Searches)
	fmt.Printf("  Linear average: %s\n", result.LinearAvg)
	fmt.Printf("  Index average:  %s\n", result.IndexAvg)
	fmt.Printf("  Index is %.1fx faster\n", result.SpeedupLinearOver)
}
