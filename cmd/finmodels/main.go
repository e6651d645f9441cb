package main

import (
	"os"

	"FinanceModels/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
