// Command nftadmin runs one-off maintenance tasks against the marketplace
// database: migrations, classification backfill, legacy consolidation,
// card address repair and account housekeeping.
package main

import (
	"log"
	"os"

	"github.com/iliyamo/nft-bank-marketplace/internal/config"
)

func main() {
	config.LoadDotEnv()
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
