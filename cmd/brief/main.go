package main

import (
	"os"

	"github.com/dshills/brief/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
