// Command resload runs loader manifests and serves assets for development.
package main

import (
	"os"

	"github.com/leapstack-labs/resload/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
