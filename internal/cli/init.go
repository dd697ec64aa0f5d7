package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/artm44/TestTask-SKRIN/internal/db"
	"github.com/artm44/TestTask-SKRIN/internal/logging"
	"github.com/artm44/TestTask-SKRIN/internal/store"
)

var initDropExisting bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the order schema in the database",
	Long: `Create the customers, products, purchases and purchase_items tables
in the target database.

Example:
  orderimport init --connection "postgres://..."
  orderimport init --drop-existing`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initDropExisting, "drop-existing", false,
		"drop existing tables before creating the schema")
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.ConnectSingle(ctx, cfg.Connection)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if initDropExisting {
		logging.Info().Msg("Dropping existing schema")
		if err := store.DropSchema(ctx, conn); err != nil {
			return err
		}
	}

	logging.Info().Msg("Creating schema")
	if err := store.CreateSchema(ctx, conn); err != nil {
		return err
	}

	cmd.Println("Schema created.")
	return nil
}
