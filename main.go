package main

import (
	"os"

	"github.com/alexbotov/bunqledger/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
