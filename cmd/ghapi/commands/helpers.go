package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/ghapi/internal/constants"
	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
	"github.com/fivetwenty-io/ghapi/pkg/ghclient"
	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"

	// Output formats.
	OutputFormatTable = "table"
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"

	// ConfigDirName is the configuration directory under $HOME.
	ConfigDirName = ".ghapi"
	// ConfigFileName is the configuration file inside ConfigDirName.
	ConfigFileName = "config.yml"

	Yes = "yes"
	No  = "no"
)

// NewLogger returns a console logger when w is a terminal and a JSON logger
// otherwise.
func NewLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	if file, ok := w.(*os.File); ok && isatty.IsTerminal(file.Fd()) {
		output := zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}

		return zerolog.New(output).Level(level).With().Timestamp().Logger()
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// clientConfig builds a client configuration from flags, environment and
// the config file.
func clientConfig(logger zerolog.Logger) *ghapi.Config {
	config := &ghapi.Config{
		BaseURL:          viper.GetString("api"),
		PerPage:          viper.GetInt("per_page"),
		RetryOnRateLimit: viper.GetBool("wait_rate_limit"),
		Logger:           ghapi.NewZerologLogger(logger),
		Debug:            viper.GetBool("verbose"),
	}

	if token := viper.GetString("token"); token != "" {
		config.Credential = ghapi.TokenAuth{Token: token}
	}

	if rps := viper.GetInt("rps"); rps > 0 {
		chain := ghapi.NewInterceptorChain()
		chain.AddRequestInterceptor(ghapi.ThrottleInterceptor(rps))
		config.Interceptors = chain
	}

	return config
}

// CreateClient creates a client from the current configuration. A GitHub
// App installation is used when --app-id is set; otherwise the token, if
// any, authenticates requests.
func CreateClient(ctx context.Context) (ghapi.Client, error) {
	logger := NewLogger(os.Stderr, viper.GetBool("verbose"))
	config := clientConfig(logger)

	appID := viper.GetInt64("app_id")
	if appID == 0 {
		client, err := ghclient.New(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("failed to create client: %w", err)
		}

		return client, nil
	}

	keyFile := viper.GetString("app_key")
	if keyFile == "" {
		return nil, constants.ErrAppKeyRequired
	}

	// keyFile is named by the user running the CLI.
	// #nosec G304
	key, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read app private key: %w", err)
	}

	client, err := ghclient.AppInstallation(ctx, config, appID, key, viper.GetInt64("installation_id"))
	if err != nil {
		return nil, fmt.Errorf("failed to create app installation client: %w", err)
	}

	return client, nil
}

// parseRef accepts "owner/name", a login, or a numeric id.
func parseRef(arg string) ghapi.Ref {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return ghapi.RefID(id)
	}

	return ghapi.RefName(arg)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", constants.ErrInvalidID, arg)
	}

	return id, nil
}

// listFlags are shared by every list command.
type listFlags struct {
	limit     int
	sort      string
	direction string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of results (0 fetches every page)")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort field")
	cmd.Flags().StringVar(&f.direction, "direction", "", "sort direction (asc, desc)")
}

func (f *listFlags) params() *ghapi.Params {
	params := ghapi.NewParams()
	if f.sort != "" {
		params.WithSort(f.sort)
	}

	if f.direction != "" {
		params.WithDirection(f.direction)
	}

	return params
}

// collect drains items, stopping after limit when limit is positive.
func collect[T any](items *ghapi.PaginationIterator[T], limit int) ([]T, error) {
	results := []T{}

	for item, err := range items.Items() {
		if err != nil {
			return nil, err
		}

		results = append(results, item)
		if limit > 0 && len(results) >= limit {
			break
		}
	}

	return results, nil
}

// outputFormat returns the selected output format.
func outputFormat() (string, error) {
	output := strings.ToLower(viper.GetString("output"))
	switch output {
	case "", OutputFormatTable:
		return OutputFormatTable, nil
	case OutputFormatJSON, OutputFormatYAML:
		return output, nil
	default:
		return "", fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, output)
	}
}

// render writes data as JSON or YAML, or rows as a table.
func render(w io.Writer, data any, headers []string, rows [][]string) error {
	output, err := outputFormat()
	if err != nil {
		return err
	}

	switch output {
	case OutputFormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		err = encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}

		return nil
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		err = encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}

		return nil
	default:
		return renderTable(w, headers, rows)
	}
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(toAny(headers)...)

	for _, row := range rows {
		_ = table.Append(toAny(row)...)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderProperties renders a two-column property table, or data as
// JSON/YAML.
func renderProperties(w io.Writer, data any, properties [][]string) error {
	return render(w, data, []string{"Property", "Value"}, properties)
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}

	return out
}

// printMessage writes a status line unless a machine format was requested.
func printMessage(w io.Writer, format string, args ...any) {
	output, _ := outputFormat()
	if output != OutputFormatTable {
		return
	}

	_, _ = fmt.Fprintf(w, format+"\n", args...)
}

func optionalString(value schema.Optional[string]) string {
	if v, ok := value.Get(); ok && v != "" {
		return v
	}

	return NotAvailable
}

func optionalInt(value schema.Optional[int]) string {
	if v, ok := value.Get(); ok {
		return humanize.Comma(int64(v))
	}

	return NotAvailable
}

func optionalTime(value schema.Optional[time.Time]) string {
	if v, ok := value.Get(); ok {
		return humanize.Time(v)
	}

	return NotAvailable
}

func yesNo(value bool) string {
	if value {
		return Yes
	}

	return No
}

// requireCredential fails early for commands that cannot work anonymously.
func requireCredential() error {
	if viper.GetString("token") == "" && viper.GetInt64("app_id") == 0 {
		return constants.ErrNoTokenConfigured
	}

	return nil
}

func joinLines(values []string) string {
	return strings.Join(values, "\n")
}
