package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/ghapi/cmd/ghapi/commands"
	"github.com/fivetwenty-io/ghapi/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "ghapi",
	Short: "GitHub v3 REST API CLI",
	Long: `A command-line interface for the GitHub v3 REST API.

It covers repositories, users, activity events, migrations, deploy keys,
team discussions and rate limits, and can relay event feeds to NATS.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.ghapi/config.yml)")
	rootCmd.PersistentFlags().StringP("api", "a", "", "API endpoint URL (default https://api.github.com)")
	rootCmd.PersistentFlags().StringP("token", "t", "", "personal access or OAuth token")
	rootCmd.PersistentFlags().StringP("output", "o", commands.OutputFormatTable, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().Int("per-page", constants.DefaultPerPage, "page size for list calls")
	rootCmd.PersistentFlags().Bool("wait-rate-limit", false, "wait for the rate limit reset and retry once")
	rootCmd.PersistentFlags().Int("rps", 0, "client-side request rate limit (requests per second, 0 disables)")
	rootCmd.PersistentFlags().Int64("app-id", 0, "GitHub App ID (with --app-key and --installation-id)")
	rootCmd.PersistentFlags().String("app-key", "", "path to the GitHub App private key PEM")
	rootCmd.PersistentFlags().Int64("installation-id", 0, "GitHub App installation ID")

	// Bind flags to viper
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("api", rootCmd.PersistentFlags().Lookup("api"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("per_page", rootCmd.PersistentFlags().Lookup("per-page"))
	_ = viper.BindPFlag("wait_rate_limit", rootCmd.PersistentFlags().Lookup("wait-rate-limit"))
	_ = viper.BindPFlag("rps", rootCmd.PersistentFlags().Lookup("rps"))
	_ = viper.BindPFlag("app_id", rootCmd.PersistentFlags().Lookup("app-id"))
	_ = viper.BindPFlag("app_key", rootCmd.PersistentFlags().Lookup("app-key"))
	_ = viper.BindPFlag("installation_id", rootCmd.PersistentFlags().Lookup("installation-id"))

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewReposCommand())
	rootCmd.AddCommand(commands.NewUsersCommand())
	rootCmd.AddCommand(commands.NewEventsCommand())
	rootCmd.AddCommand(commands.NewMigrationsCommand())
	rootCmd.AddCommand(commands.NewDeployKeysCommand())
	rootCmd.AddCommand(commands.NewDiscussionsCommand())
	rootCmd.AddCommand(commands.NewRateLimitCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in ~/.ghapi/config.yml
		viper.AddConfigPath(filepath.Join(home, commands.ConfigDirName))
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// GHAPI_TOKEN, GHAPI_API, ...
	viper.SetEnvPrefix("GHAPI")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
