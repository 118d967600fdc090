// Package cmd implements the hive command-line interface.
package cmd

import (
	"strings"

	"github.com/Iron-Ham/hive/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "hive",
	Short: "Flat-file multi-agent registry and task coordination",
	Long: `Hive coordinates multiple independent worker processes ("agents") on a
single machine through a shared JSON registry and task board, with
cross-process locking and no server component.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/hive/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/hive")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("HIVE")
	// Replace dots with underscores for nested keys in env vars
	// e.g., HIVE_LOCK_TIMEOUT_MS for lock.timeout_ms
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
