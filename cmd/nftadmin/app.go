package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/iliyamo/nft-bank-marketplace/internal/address"
	"github.com/iliyamo/nft-bank-marketplace/internal/catalog"
	"github.com/iliyamo/nft-bank-marketplace/internal/config"
	"github.com/iliyamo/nft-bank-marketplace/internal/database"
	"github.com/iliyamo/nft-bank-marketplace/internal/logger"
	"github.com/iliyamo/nft-bank-marketplace/internal/repository"
	"github.com/iliyamo/nft-bank-marketplace/internal/service"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "nftadmin",
		Usage: "maintenance tasks for the NFT bank marketplace",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db-user", Aliases: []string{"u"}, EnvVars: []string{"DB_USER"}, Usage: "MySQL user"},
			&cli.StringFlag{Name: "db-pass", Aliases: []string{"p"}, EnvVars: []string{"DB_PASS"}, Usage: "MySQL password"},
			&cli.StringFlag{Name: "db-host", Aliases: []string{"t"}, EnvVars: []string{"DB_HOST"}, Value: "localhost", Usage: "MySQL host"},
			&cli.StringFlag{Name: "db-port", Aliases: []string{"P"}, EnvVars: []string{"DB_PORT"}, Value: "3306", Usage: "MySQL port"},
			&cli.StringFlag{Name: "db-name", Aliases: []string{"d"}, EnvVars: []string{"DB_NAME"}, Usage: "MySQL database name"},
			&cli.BoolFlag{Name: "development", Aliases: []string{"D"}, Usage: "development logging"},
			&cli.DurationFlag{Name: "timeout", Value: 10 * time.Minute, Usage: "overall deadline for the command"},
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations",
				Action: withDB(runMigrate),
			},
			{
				Name:   "status",
				Usage:  "print the migration status",
				Action: withDB(runStatus),
			},
			{
				Name:  "backfill-kinds",
				Usage: "classify NFTs whose collection kind is empty",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dry-run", Usage: "report without writing"},
				},
				Action: withDB(runBackfill),
			},
			{
				Name:   "consolidate-legacy",
				Usage:  "move rows of the legacy nft table into nfts, dropping duplicates",
				Action: withDB(runConsolidate),
			},
			{
				Name:  "clear-all",
				Usage: "delete every NFT owned by a user together with its transfers",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true, Usage: "owner whose NFTs are deleted"},
				},
				Action: withDB(runClearAll),
			},
			{
				Name:  "addresses",
				Usage: "regenerate invalid BTC/ETH addresses on crypto cards",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dry-run", Usage: "report without writing"},
					&cli.StringFlag{Name: "salt", EnvVars: []string{"ADDRESS_SALT"}, Usage: "address derivation salt"},
				},
				Action: withDB(runAddresses),
			},
			{
				Name:      "validate",
				Usage:     "check an address string",
				ArgsUsage: "<btc|eth> <address>",
				Action:    runValidate,
			},
			{
				Name:  "purge-tokens",
				Usage: "delete refresh tokens that expired or were revoked",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "older-than", Value: 0, Usage: "keep tokens that lapsed more recently than this"},
				},
				Action: withDB(runPurgeTokens),
			},
			{
				Name:  "promote-regulator",
				Usage: "grant or revoke the regulator (treasury) flag",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.BoolFlag{Name: "revoke", Usage: "clear the flag instead of setting it"},
				},
				Action: withDB(runPromote),
			},
		},
	}
}

// env bundles what the database commands share.
type env struct {
	ctx context.Context
	db  *sql.DB
	log *logger.Logger
}

func withDB(fn func(c *cli.Context, e env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		log, err := logger.New(c.Bool("development"))
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		db, err := database.Open(database.Params{
			User:     c.String("db-user"),
			Password: c.String("db-pass"),
			Host:     c.String("db-host"),
			Port:     c.String("db-port"),
			Name:     c.String("db-name"),
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
		defer cancel()
		return fn(c, env{ctx: ctx, db: db, log: log})
	}
}

func catalogService(e env) *service.CatalogService {
	return service.NewCatalogService(e.db, config.LoadNFTConfig(), catalog.ImagePicker{}, nil, e.log)
}

func runMigrate(_ *cli.Context, e env) error {
	return database.Migrate(e.ctx, e.db)
}

func runStatus(_ *cli.Context, e env) error {
	return database.MigrationStatus(e.ctx, e.db)
}

func runBackfill(c *cli.Context, e env) error {
	n, err := catalogService(e).BackfillKinds(e.ctx, c.Bool("dry-run"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "classified %d NFT(s)%s\n", n, dryRunSuffix(c))
	return nil
}

func runConsolidate(c *cli.Context, e env) error {
	rep, err := catalogService(e).ConsolidateLegacy(e.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "scanned %d, imported %d, skipped %d duplicate(s)\n", rep.Scanned, rep.Imported, rep.Skipped)
	return nil
}

func runClearAll(c *cli.Context, e env) error {
	u, err := repository.NewUserRepo(e.db).GetByUsername(e.ctx, c.String("username"))
	if err != nil {
		return fmt.Errorf("user %q: %w", c.String("username"), err)
	}
	n, err := catalogService(e).ClearAll(e.ctx, u.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "deleted %d NFT(s) of %s\n", n, u.Username)
	return nil
}

func runAddresses(c *cli.Context, e env) error {
	gen := address.Generator{
		Salt: c.String("salt"),
		OnFallback: func(kind address.Kind, userID uint64, err error) {
			e.log.Warnw("address derivation fell back to random", "kind", kind, "user_id", userID, "err", err)
		},
	}
	accounts := service.NewAccountService(repository.NewCardRepo(e.db), gen, 0, e.log)
	rep, err := accounts.RepairAddresses(e.ctx, c.Bool("dry-run"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "checked %d card(s), repaired %d%s\n", rep.Checked, rep.Repaired, dryRunSuffix(c))
	return nil
}

func runValidate(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: nftadmin validate <btc|eth> <address>", 2)
	}
	kind, err := address.ParseKind(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	addr := c.Args().Get(1)
	if !address.Validate(addr, kind) {
		return cli.Exit(fmt.Sprintf("invalid %s address: %s", kind, addr), 1)
	}
	fmt.Fprintf(c.App.Writer, "valid %s address\n", kind)
	return nil
}

func runPurgeTokens(c *cli.Context, e env) error {
	cutoff := time.Now().UTC().Add(-c.Duration("older-than"))
	n, err := repository.NewTokenRepo(e.db).PurgeExpired(e.ctx, cutoff)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "purged %d refresh token(s)\n", n)
	return nil
}

func runPromote(c *cli.Context, e env) error {
	users := repository.NewUserRepo(e.db)
	u, err := users.GetByUsername(e.ctx, c.String("username"))
	if err != nil {
		return fmt.Errorf("user %q: %w", c.String("username"), err)
	}
	on := !c.Bool("revoke")
	if err := users.SetRegulator(e.ctx, u.ID, on); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s regulator=%t\n", u.Username, on)
	return nil
}

func dryRunSuffix(c *cli.Context) string {
	if c.Bool("dry-run") {
		return " (dry run)"
	}
	return ""
}
