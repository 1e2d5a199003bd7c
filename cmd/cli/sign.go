package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	cliapi "github.com/jaxxstorm/landlord/internal/cli"
	"github.com/spf13/cobra"
)

func newSignCommand() *cobra.Command {
	var contractID string
	var signatureData string
	var authMethods string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a contract",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if contractID == "" {
				return fmt.Errorf("contract-id is required")
			}
			id, err := uuid.Parse(contractID)
			if err != nil {
				return fmt.Errorf("invalid contract-id: %w", err)
			}

			parsedSignature, err := parseConfigInput(signatureData)
			if err != nil {
				return err
			}

			var methods []string
			if authMethods != "" {
				methods = strings.Split(authMethods, ",")
			}

			client := cliapi.NewClient(cfg.APIURL, cfg.Token)
			c, err := client.SignContract(context.Background(), id, parsedSignature, methods)
			if err != nil {
				return err
			}

			cmd.Println(successStyle.Render("Contract signed"))
			cmd.Println(renderContractDetails(*c))
			return nil
		},
	}

	cmd.Flags().StringVar(&contractID, "contract-id", "", "Contract UUID")
	cmd.Flags().StringVar(&signatureData, "signature-data", "", "Signature payload JSON/YAML, or path to a file")
	cmd.Flags().StringVar(&authMethods, "auth-methods", "", "Comma-separated auth methods used to sign (e.g. password,factor)")

	return cmd
}
