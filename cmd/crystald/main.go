package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/pzyt/crystal-healing/internal/cli"
)

func main() {
	// Local development keeps secrets in .env; absence is fine.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
