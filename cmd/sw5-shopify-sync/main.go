package main

import (
	"fmt"
	"os"

	_ "github.com/shopmigrate/sw5-shopify-sync/internal/provider/shopify"
	_ "github.com/shopmigrate/sw5-shopify-sync/internal/provider/shopware5"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
