package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jaxxstorm/landlord/internal/contract"
	cliapi "github.com/jaxxstorm/landlord/internal/cli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSetCommand() *cobra.Command {
	var contractID string
	var role string
	var data string
	var economicTerms string
	var contractTerms string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Submit a party's data on a contract draft",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if contractID == "" {
				return fmt.Errorf("contract-id is required")
			}
			if role != "landlord" && role != "tenant" {
				return fmt.Errorf("role must be landlord or tenant")
			}
			if data == "" {
				return fmt.Errorf("data is required")
			}
			id, err := uuid.Parse(contractID)
			if err != nil {
				return fmt.Errorf("invalid contract-id: %w", err)
			}

			parsedData, err := parseConfigInput(data)
			if err != nil {
				return err
			}

			client := cliapi.NewClient(cfg.APIURL, cfg.Token)

			var c *contract.Contract
			if role == "landlord" {
				parsedEconomic, err := parseConfigInput(economicTerms)
				if err != nil {
					return err
				}
				parsedTerms, err := parseConfigInput(contractTerms)
				if err != nil {
					return err
				}
				c, err = client.CompleteLandlordData(context.Background(), id, parsedData, parsedEconomic, parsedTerms)
				if err != nil {
					return err
				}
			} else {
				c, err = client.CompleteTenantData(context.Background(), id, parsedData)
				if err != nil {
					return err
				}
			}

			cmd.Println(successStyle.Render("Contract data submitted"))
			cmd.Println(renderContractDetails(*c))
			return nil
		},
	}

	cmd.Flags().StringVar(&contractID, "contract-id", "", "Contract UUID")
	cmd.Flags().StringVar(&role, "role", "", "Party submitting data: landlord or tenant")
	cmd.Flags().StringVar(&data, "data", "", "Party data JSON/YAML, or path to a JSON/YAML file")
	cmd.Flags().StringVar(&economicTerms, "economic-terms", "", "Economic terms JSON/YAML (landlord only)")
	cmd.Flags().StringVar(&contractTerms, "contract-terms", "", "Contract terms JSON/YAML (landlord only)")

	return cmd
}

func parseConfigInput(value string) (map[string]interface{}, error) {
	if value == "" {
		return nil, nil
	}

	raw := []byte(value)
	sourcePath := ""

	if strings.HasPrefix(value, "file://") {
		path, err := parseFileURI(value)
		if err != nil {
			return nil, err
		}
		sourcePath = path
	} else if info, err := os.Stat(value); err == nil && !info.IsDir() {
		sourcePath = value
	}

	if sourcePath != "" {
		data, err := os.ReadFile(sourcePath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		raw = data
	}

	ext := strings.ToLower(filepath.Ext(sourcePath))
	switch ext {
	case ".json":
		return parseConfigJSON(raw)
	case ".yaml", ".yml":
		return parseConfigYAML(raw)
	}

	if parsed, err := parseConfigJSON(raw); err == nil {
		return parsed, nil
	} else if parsed, yamlErr := parseConfigYAML(raw); yamlErr == nil {
		return parsed, nil
	} else {
		return nil, fmt.Errorf("parse config input: %v; %v", err, yamlErr)
	}
}

func parseConfigJSON(raw []byte) (map[string]interface{}, error) {
	var parsed map[string]interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}
	return parsed, nil
}

func parseConfigYAML(raw []byte) (map[string]interface{}, error) {
	var parsed map[string]interface{}
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}
	return parsed, nil
}

func parseFileURI(value string) (string, error) {
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("parse config file URI: %w", err)
	}
	if parsed.Scheme != "file" {
		return "", fmt.Errorf("unsupported config URI scheme: %s", parsed.Scheme)
	}
	path := parsed.Path
	if parsed.Host != "" && parsed.Host != "localhost" {
		// For file:// URLs with relative paths like file://docs/path,
		// the URL parser treats "docs" as the host. Reconstruct the relative path.
		path = parsed.Host + path
	}
	if path == "" {
		path = parsed.Opaque
	}
	if path == "" {
		return "", fmt.Errorf("config file URI missing path")
	}
	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("decode config file URI: %w", err)
	}
	if strings.HasPrefix(unescaped, "~") {
		return "", fmt.Errorf("config file URI must use an absolute or relative path, got %s", unescaped)
	}
	return unescaped, nil
}
