package main

import (
	"context"
	"fmt"

	cliapi "github.com/jaxxstorm/landlord/internal/cli"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newCreateCommand() *cobra.Command {
	var propertyID string
	var contractType string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a contract draft",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if propertyID == "" {
				return fmt.Errorf("property-id is required")
			}
			if contractType == "" {
				return fmt.Errorf("contract-type is required")
			}
			id, err := uuid.Parse(propertyID)
			if err != nil {
				return fmt.Errorf("invalid property-id: %w", err)
			}

			client := cliapi.NewClient(cfg.APIURL, cfg.Token)
			c, err := client.CreateDraft(context.Background(), id, contractType)
			if err != nil {
				return err
			}

			cmd.Println(successStyle.Render("Contract draft created"))
			cmd.Println(renderContractDetails(*c))
			return nil
		},
	}

	cmd.Flags().StringVar(&propertyID, "property-id", "", "Property UUID")
	cmd.Flags().StringVar(&contractType, "contract-type", "", "Contract type (e.g. residential_lease)")

	return cmd
}
