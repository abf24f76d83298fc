package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <object-name>",
	Short: "Run the import job for one uploaded object",
	Long:  "Fetches the named object, canonicalizes its records and commits them in chunks. Objects outside the import namespace are skipped.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		return env.Importer.Run(ctx, args[0])
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
