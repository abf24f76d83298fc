package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/proffdata/import-cli/internal/api"
)

var statusUser string

var statusCmd = &cobra.Command{
	Use:   "status [import-id]",
	Short: "Show import status, or list recent imports for a user",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		svc := api.NewService(env.Store, env.Objects, cfg.Import.Prefix)

		var out any
		switch {
		case len(args) == 1:
			out, err = svc.GetStatus(ctx, args[0])
		case statusUser != "":
			out, err = svc.ListImports(ctx, api.Caller{UserID: statusUser})
		default:
			return eris.New("status: pass an import id or --user")
		}
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return eris.Wrap(err, "status: marshal output")
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusUser, "user", "", "list recent imports for this user id")
	rootCmd.AddCommand(statusCmd)
}
