package main

import (
	"context"

	cliapi "github.com/jaxxstorm/landlord/internal/cli"
	"github.com/spf13/cobra"
)

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contracts for the authenticated landlord",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := cliapi.NewClient(cfg.APIURL, cfg.Token)
			contracts, err := client.ListContracts(context.Background())
			if err != nil {
				return err
			}

			cmd.Println(renderContractList(contracts))
			return nil
		},
	}

	return cmd
}
