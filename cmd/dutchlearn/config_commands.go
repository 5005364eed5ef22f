package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dutchlearn/internal/config"
	"dutchlearn/internal/language"
	"dutchlearn/internal/securecfg"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newTransferCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if overwrite {
				if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove existing config: %w", err)
				}
			}

			if err := config.WriteSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set assemblyai.api_key and openai.api_key before processing recordings.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			fmt.Fprintf(out, "Database:    %s\n", cfg.DatabasePath())
			fmt.Fprintf(out, "Language:    %s (%s)\n", language.DisplayName(cfg.Pipeline.Language), cfg.Pipeline.Language)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newTransferCommand(ctx *commandContext) *cobra.Command {
	transferCmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move API credentials between devices with an encrypted file",
	}

	transferCmd.AddCommand(newTransferExportCommand(ctx))
	transferCmd.AddCommand(newTransferImportCommand(ctx))

	return transferCmd
}

func newTransferExportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var password string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export credentials to an encrypted transfer file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			generated := false
			if strings.TrimSpace(password) == "" {
				password, err = securecfg.GeneratePassword()
				if err != nil {
					return err
				}
				generated = true
			}

			target := strings.TrimSpace(outputPath)
			if target == "" {
				target = filepath.Join(cfg.Paths.ExportDir, "transfer.json")
			} else if target, err = config.ExpandPath(target); err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}

			envelope, err := securecfg.New(password).Encrypt(securecfg.Payload{
				OpenAIAPIKey:     cfg.OpenAI.APIKey,
				AssemblyAIAPIKey: cfg.AssemblyAI.APIKey,
				SyncToken:        cfg.Sync.Token,
			})
			if err != nil {
				return err
			}
			if err := securecfg.WriteEnvelope(target, envelope); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote encrypted transfer file to %s\n", target)
			if generated {
				fmt.Fprintf(out, "Transfer password: %s\n", password)
				fmt.Fprintln(out, "Enter this password on the other device. It is not stored anywhere.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Transfer file destination (default: export dir)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Transfer password (generated when omitted)")
	return cmd
}

func newTransferImportCommand(ctx *commandContext) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "import <transfer-file>",
		Short: "Import credentials from an encrypted transfer file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(password) == "" {
				return errors.New("--password is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve transfer file path: %w", err)
			}
			envelope, err := securecfg.ReadEnvelope(path)
			if err != nil {
				return err
			}
			payload, err := securecfg.New(password).Decrypt(envelope)
			if err != nil {
				return err
			}

			applied := 0
			if payload.OpenAIAPIKey != "" {
				cfg.OpenAI.APIKey = payload.OpenAIAPIKey
				applied++
			}
			if payload.AssemblyAIAPIKey != "" {
				cfg.AssemblyAI.APIKey = payload.AssemblyAIAPIKey
				applied++
			}
			if payload.SyncToken != "" {
				cfg.Sync.Token = payload.SyncToken
				applied++
			}
			if applied == 0 {
				return errors.New("transfer file contains no credentials")
			}

			if err := config.Save(cfg, ctx.configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d credential(s) into %s\n", applied, ctx.configPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Transfer password")
	return cmd
}
