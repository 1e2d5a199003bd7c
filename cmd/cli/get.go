package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	cliapi "github.com/jaxxstorm/landlord/internal/cli"
	"github.com/spf13/cobra"
)

func newGetCommand() *cobra.Command {
	var contractID string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a contract",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if contractID == "" {
				return fmt.Errorf("contract-id is required")
			}
			id, err := uuid.Parse(contractID)
			if err != nil {
				return fmt.Errorf("invalid contract-id: %w", err)
			}

			client := cliapi.NewClient(cfg.APIURL, cfg.Token)
			c, err := client.GetContract(context.Background(), id)
			if err != nil {
				return err
			}

			cmd.Println(headerStyle.Render("Contract details"))
			cmd.Println(renderContractDetails(*c))
			return nil
		},
	}

	cmd.Flags().StringVar(&contractID, "contract-id", "", "Contract UUID")

	return cmd
}
