// Command storefront manages stores, inventory, carts and orders, and serves
// them over a JSON HTTP API.
package main

import (
	"context"
	"os"

	"github.com/roach88/storefront/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
