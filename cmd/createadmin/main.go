package main

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/tact0/internal/logging"
	"github.com/dmitrijs2005/tact0/internal/server/admincli"
)

func main() {
	logger := logging.NewJSON(os.Stderr, "warn")

	cmd := admincli.NewRootCommand(admincli.OpenPostgres(logger), os.LookupEnv, logger)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
