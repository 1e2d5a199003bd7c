package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	cliapi "github.com/jaxxstorm/landlord/internal/cli"
	"github.com/spf13/cobra"
)

func newInviteCommand() *cobra.Command {
	var contractID string
	var tenantEmail string
	var tenantName string

	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Invite a tenant to a contract",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if contractID == "" {
				return fmt.Errorf("contract-id is required")
			}
			if tenantEmail == "" {
				return fmt.Errorf("tenant-email is required")
			}
			id, err := uuid.Parse(contractID)
			if err != nil {
				return fmt.Errorf("invalid contract-id: %w", err)
			}

			client := cliapi.NewClient(cfg.APIURL, cfg.Token)
			token, err := client.SendInvitation(context.Background(), id, tenantEmail, tenantName)
			if err != nil {
				return err
			}

			cmd.Println(successStyle.Render("Invitation sent"))
			cmd.Println(fmt.Sprintf("%s %s", labelStyle.Render("Token:"), token.Token))
			if token.ExpiresAt != "" {
				cmd.Println(fmt.Sprintf("%s %s", labelStyle.Render("Expires At:"), token.ExpiresAt))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&contractID, "contract-id", "", "Contract UUID")
	cmd.Flags().StringVar(&tenantEmail, "tenant-email", "", "Invited tenant's email")
	cmd.Flags().StringVar(&tenantName, "tenant-name", "", "Invited tenant's name")

	return cmd
}
