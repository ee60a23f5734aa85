package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/ghapi/internal/constants"
)

const maskedToken = "***"

// Config represents the CLI configuration file.
type Config struct {
	API           string `json:"api,omitempty"             yaml:"api,omitempty"`
	Token         string `json:"token,omitempty"           yaml:"token,omitempty"`
	Output        string `json:"output,omitempty"          yaml:"output,omitempty"`
	PerPage       int    `json:"per_page,omitempty"        yaml:"per_page,omitempty"`
	WaitRateLimit bool   `json:"wait_rate_limit,omitempty" yaml:"wait_rate_limit,omitempty"`
	NATSURL       string `json:"nats_url,omitempty"        yaml:"nats_url,omitempty"`
	RelaySubject  string `json:"relay_subject,omitempty"   yaml:"relay_subject,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage the ghapi CLI configuration stored in $HOME/.ghapi/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigSetTokenCommand())
	cmd.AddCommand(newConfigPathCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration. The token is masked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.Token != "" {
				config.Token = maskedToken
			}

			return renderProperties(cmd.OutOrStdout(), config, [][]string{
				{"API", valueOr(config.API, constants.DefaultBaseURL)},
				{"Token", valueOr(config.Token, NotAvailable)},
				{"Output", valueOr(config.Output, OutputFormatTable)},
				{"Per Page", strconv.Itoa(config.PerPage)},
				{"Wait On Rate Limit", yesNo(config.WaitRateLimit)},
				{"NATS URL", valueOr(config.NATSURL, constants.DefaultNATSURL)},
				{"Relay Subject", valueOr(config.RelaySubject, constants.DefaultRelaySubject)},
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Keys: api, output, per_page, wait_rate_limit, nats_url, relay_subject.
Use "config set-token" for the token.`,
		Args: cobra.ExactArgs(2), //nolint:mnd // KEY VALUE
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			path, err := saveConfig(config)
			if err != nil {
				return err
			}

			printMessage(cmd.OutOrStdout(), "Set %s in %s", args[0], path)

			return nil
		},
	}
}

func newConfigSetTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-token",
		Short: "Store an API token",
		Long:  "Prompt for a personal access token and store it in the config file. The token is read from stdin when it is not a terminal.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			config := loadConfig()
			config.Token = token

			path, err := saveConfig(config)
			if err != nil {
				return err
			}

			printMessage(cmd.OutOrStdout(), "Token saved to %s", path)

			return nil
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)

			return nil
		},
	}
}

func setConfigValue(config *Config, key, value string) error {
	switch key {
	case "api":
		config.API = value
	case "output":
		switch value {
		case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
			config.Output = value
		default:
			return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, value)
		}
	case "per_page":
		perPage, err := strconv.Atoi(value)
		if err != nil || perPage < 1 || perPage > constants.MaxPerPage {
			return fmt.Errorf("%w: per_page must be between 1 and %d", constants.ErrInvalidConfigValue, constants.MaxPerPage)
		}

		config.PerPage = perPage
	case "wait_rate_limit":
		wait, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: wait_rate_limit must be true or false", constants.ErrInvalidConfigValue)
		}

		config.WaitRateLimit = wait
	case "nats_url":
		config.NATSURL = value
	case "relay_subject":
		config.RelaySubject = value
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

// readToken prompts without echo on a terminal, otherwise reads one line.
func readToken(in io.Reader, prompt io.Writer) (string, error) {
	var token string

	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		_, _ = fmt.Fprint(prompt, "Token: ")

		raw, err := term.ReadPassword(int(file.Fd()))
		_, _ = fmt.Fprintln(prompt)

		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}

		token = string(raw)
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("failed to read token: %w", err)
		}

		token = line
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", constants.ErrEmptyToken
	}

	return token, nil
}

func loadConfig() *Config {
	return &Config{
		API:           viper.GetString("api"),
		Token:         viper.GetString("token"),
		Output:        viper.GetString("output"),
		PerPage:       viper.GetInt("per_page"),
		WaitRateLimit: viper.GetBool("wait_rate_limit"),
		NATSURL:       viper.GetString("nats_url"),
		RelaySubject:  viper.GetString("relay_subject"),
	}
}

func configFilePath() (string, error) {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ConfigDirName, ConfigFileName), nil
}

func saveConfig(config *Config) (string, error) {
	path, err := configFilePath()
	if err != nil {
		return "", err
	}

	err = os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
