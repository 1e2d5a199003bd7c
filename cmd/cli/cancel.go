package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	cliapi "github.com/jaxxstorm/landlord/internal/cli"
	"github.com/spf13/cobra"
)

func newCancelCommand() *cobra.Command {
	var contractID string
	var reason string

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a contract",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if contractID == "" {
				return fmt.Errorf("contract-id is required")
			}
			id, err := uuid.Parse(contractID)
			if err != nil {
				return fmt.Errorf("invalid contract-id: %w", err)
			}

			client := cliapi.NewClient(cfg.APIURL, cfg.Token)
			c, err := client.CancelContract(context.Background(), id, reason)
			if err != nil {
				return err
			}

			cmd.Println(successStyle.Render("Contract cancelled"))
			cmd.Println(renderContractDetails(*c))
			return nil
		},
	}

	cmd.Flags().StringVar(&contractID, "contract-id", "", "Contract UUID")
	cmd.Flags().StringVar(&reason, "reason", "", "Cancellation reason")

	return cmd
}
