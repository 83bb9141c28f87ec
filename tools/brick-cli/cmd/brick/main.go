package main

import (
	"os"

	"github.com/malbeclabs/brick/tools/brick-cli/internal/cli"
)

func main() {
	os.Exit(int(cli.Run()))
}
