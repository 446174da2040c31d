package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trading-journal/database"
	"trading-journal/service"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)
		log.Info("schema up to date", zap.String("driver", cfg.DB.Driver))
		return nil
	},
}

var instrumentsCmd = &cobra.Command{
	Use:   "instruments",
	Short: "Manage the shared instrument catalog",
}

var instrumentsAddCmd = &cobra.Command{
	Use:   "add <name>...",
	Short: "Add instruments to the catalog, skipping existing names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		added, err := service.NewInstruments(db).Add(cmd.Context(), args...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %d of %d instruments\n", added, len(args))
		return nil
	},
}

var instrumentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the instrument catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		items, err := service.NewInstruments(db).List(cmd.Context())
		if err != nil {
			return err
		}
		for _, in := range items {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", in.ID, in.Name)
		}
		return nil
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Account maintenance",
}

var usersSeedCmd = &cobra.Command{
	Use:   "seed-biases <user-id>",
	Short: "Add any missing default market biases for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		seeded, err := service.NewUsers(db, log).SeedBiases(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("seed user %d: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d market biases\n", seeded)
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a user and everything they own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := service.NewUsers(db, log).Delete(cmd.Context(), id); err != nil {
			return fmt.Errorf("delete user %d: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted user %d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, instrumentsCmd, usersCmd)
	instrumentsCmd.AddCommand(instrumentsAddCmd, instrumentsListCmd)
	usersCmd.AddCommand(usersSeedCmd, usersDeleteCmd)
}

func parseUserID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return uint(n), nil
}
