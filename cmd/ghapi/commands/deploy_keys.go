package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
)

// NewDeployKeysCommand creates the deploy keys command group.
func NewDeployKeysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deploy-keys",
		Aliases: []string{"deploy-key", "keys"},
		Short:   "Manage deploy keys",
		Long:    "List, add and remove SSH deploy keys of a repository",
	}

	cmd.AddCommand(newDeployKeysListCommand())
	cmd.AddCommand(newDeployKeysGetCommand())
	cmd.AddCommand(newDeployKeysAddCommand())
	cmd.AddCommand(newDeployKeysRemoveCommand())

	return cmd
}

func newDeployKeysListCommand() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list OWNER/NAME",
		Short: "List deploy keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			keys, err := collect(client.DeployKeys().List(ctx, parseRef(args[0]), flags.params()), flags.limit)
			if err != nil {
				return fmt.Errorf("failed to list deploy keys: %w", err)
			}

			rows := make([][]string, 0, len(keys))
			for _, key := range keys {
				rows = append(rows, []string{
					strconv.FormatInt(key.ID, 10),
					key.Title,
					yesNo(key.ReadOnly),
					yesNo(key.Verified),
					optionalTime(key.LastUsed),
				})
			}

			return render(cmd.OutOrStdout(), keys, []string{"ID", "Title", "Read Only", "Verified", "Last Used"}, rows)
		},
	}

	flags.register(cmd)

	return cmd
}

func newDeployKeysGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get OWNER/NAME ID",
		Short: "Get a deploy key",
		Args:  cobra.ExactArgs(2), //nolint:mnd // OWNER/NAME ID
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			key, err := client.DeployKeys().Get(ctx, parseRef(args[0]), id)
			if err != nil {
				return fmt.Errorf("failed to get deploy key: %w", err)
			}

			return renderDeployKey(cmd, key)
		},
	}
}

func renderDeployKey(cmd *cobra.Command, key *ghapi.DeployKey) error {
	return renderProperties(cmd.OutOrStdout(), key, [][]string{
		{"ID", strconv.FormatInt(key.ID, 10)},
		{"Title", key.Title},
		{"Read Only", yesNo(key.ReadOnly)},
		{"Verified", yesNo(key.Verified)},
		{"Added By", optionalString(key.AddedBy)},
		{"Created", optionalTime(key.CreatedAt)},
		{"Last Used", optionalTime(key.LastUsed)},
	})
}

func newDeployKeysAddCommand() *cobra.Command {
	var (
		title     string
		keyFile   string
		readWrite bool
	)

	cmd := &cobra.Command{
		Use:   "add OWNER/NAME",
		Short: "Add a deploy key",
		Long:  "Add a public SSH key read from --key-file. Keys are read-only unless --read-write is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// keyFile is named by the user running the CLI.
			// #nosec G304
			publicKey, err := os.ReadFile(keyFile)
			if err != nil {
				return fmt.Errorf("failed to read public key: %w", err)
			}

			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			key, err := client.DeployKeys().Add(ctx, parseRef(args[0]), title, strings.TrimSpace(string(publicKey)), !readWrite)
			if err != nil {
				return fmt.Errorf("failed to add deploy key: %w", err)
			}

			return renderDeployKey(cmd, key)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "key title")
	cmd.Flags().StringVar(&keyFile, "key-file", "", "path to the public key")
	cmd.Flags().BoolVar(&readWrite, "read-write", false, "allow pushes with this key")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("key-file")

	return cmd
}

func newDeployKeysRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove OWNER/NAME ID",
		Aliases: []string{"delete", "rm"},
		Short:   "Remove a deploy key",
		Args:    cobra.ExactArgs(2), //nolint:mnd // OWNER/NAME ID
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			err = client.DeployKeys().Remove(ctx, parseRef(args[0]), id)
			if err != nil {
				return fmt.Errorf("failed to remove deploy key: %w", err)
			}

			printMessage(cmd.OutOrStdout(), "Removed deploy key %d from %s", id, args[0])

			return nil
		},
	}
}
