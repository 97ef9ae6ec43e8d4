package main

import (
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	server     string
	outputJSON bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "roombooking",
		Short:         "Meeting room booking service and client",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&opts.server, "server", os.Getenv("ROOMBOOKING_API_URL"), "API base URL for client commands (default: saved login, then http://localhost:8080)")
	cmd.PersistentFlags().BoolVar(&opts.outputJSON, "json", false, "Output JSON")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newUserCmd())
	cmd.AddCommand(newLoginCmd(opts))
	cmd.AddCommand(newLogoutCmd(opts))
	cmd.AddCommand(newRoomsCmd(opts))
	cmd.AddCommand(newReservationsCmd(opts))
	cmd.AddCommand(newMineCmd(opts))
	cmd.AddCommand(newBookCmd(opts))
	cmd.AddCommand(newCancelCmd(opts))
	return cmd
}
