package main

import (
	"fmt"
	"os"

	"wallet_adapter/internal/infrastructure/configloader"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var rootCmd = &cobra.Command{
	Use:   "walletd",
	Short: "BBA Wallet adapter daemon",
	Long: `walletd runs the BBA Wallet adapter and the wallet state provider
behind an HTTP API, with the wallet reached through a JSON-RPC bridge.`,
	SilenceUsage: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Example: `  walletd config
  walletd config --config config/config.yml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the YAML config file (defaults apply when empty)")
	rootCmd.AddCommand(serveCmd, configCmd)
}

func loadConfig(cmd *cobra.Command) (*configloader.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return configloader.Default(), nil
	}
	return configloader.Load(path)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
