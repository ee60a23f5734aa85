package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/ghapi/internal/constants"
	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// NewMigrationsCommand creates the migrations command group. Every
// subcommand addresses an organization with --org, or the authenticated
// user's migrations without it.
func NewMigrationsCommand() *cobra.Command {
	var org string

	cmd := &cobra.Command{
		Use:     "migrations",
		Aliases: []string{"migration", "export"},
		Short:   "Manage migrations",
		Long:    "Start, inspect and download organization or user migration archives",
	}

	cmd.PersistentFlags().StringVar(&org, "org", "", "organization login (default: the authenticated user)")

	cmd.AddCommand(newMigrationsStartCommand(&org))
	cmd.AddCommand(newMigrationsListCommand(&org))
	cmd.AddCommand(newMigrationsStatusCommand(&org))
	cmd.AddCommand(newMigrationsArchiveCommand(&org))
	cmd.AddCommand(newMigrationsDeleteArchiveCommand(&org))
	cmd.AddCommand(newMigrationsUnlockCommand(&org))

	return cmd
}

func newMigrationsStartCommand(org *string) *cobra.Command {
	var (
		lock                 bool
		excludeAttachments   bool
		excludeReleases      bool
		excludeOwnerProjects bool
		wait                 bool
		pollInterval         time.Duration
	)

	cmd := &cobra.Command{
		Use:   "start REPO...",
		Short: "Start a migration",
		Long:  "Start exporting the given repositories. Organization migrations take repository names; user migrations take OWNER/NAME.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := requireCredential()
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			var migration *ghapi.Migration

			if *org != "" {
				migration, err = client.Migrations().Start(ctx, *org, args, &ghapi.MigrationOptions{
					LockRepositories:     lock,
					ExcludeAttachments:   excludeAttachments,
					ExcludeReleases:      excludeReleases,
					ExcludeOwnerProjects: excludeOwnerProjects,
				})
			} else {
				opts := &ghapi.UserMigrationOptions{}
				if cmd.Flags().Changed("lock") {
					opts.LockRepositories = schema.Some(lock)
				}

				if cmd.Flags().Changed("exclude-attachments") {
					opts.ExcludeAttachments = schema.Some(excludeAttachments)
				}

				if cmd.Flags().Changed("exclude-releases") {
					opts.ExcludeReleases = schema.Some(excludeReleases)
				}

				if cmd.Flags().Changed("exclude-owner-projects") {
					opts.ExcludeOwnerProjects = schema.Some(excludeOwnerProjects)
				}

				migration, err = client.Migrations().StartUser(ctx, args, opts)
			}

			if err != nil {
				return fmt.Errorf("failed to start migration: %w", err)
			}

			if wait {
				migration, err = waitForMigration(ctx, client, *org, migration.ID, pollInterval)
				if err != nil {
					return err
				}
			}

			return renderMigration(cmd.OutOrStdout(), migration)
		},
	}

	cmd.Flags().BoolVar(&lock, "lock", false, "lock the repositories during the export")
	cmd.Flags().BoolVar(&excludeAttachments, "exclude-attachments", false, "leave attachments out of the archive")
	cmd.Flags().BoolVar(&excludeReleases, "exclude-releases", false, "leave releases out of the archive")
	cmd.Flags().BoolVar(&excludeOwnerProjects, "exclude-owner-projects", false, "leave owner projects out of the archive")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until the export is done")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", constants.DefaultMigrationPollInterval, "status poll interval with --wait")

	return cmd
}

// waitForMigration polls the migration status until it is exported or
// failed.
func waitForMigration(ctx context.Context, client ghapi.Client, org string, id int64, interval time.Duration) (*ghapi.Migration, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		migration, err := migrationStatus(ctx, client, org, id)
		if err != nil {
			return nil, err
		}

		if migration.Done() {
			return migration, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for migration %d: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

func migrationStatus(ctx context.Context, client ghapi.Client, org string, id int64) (*ghapi.Migration, error) {
	var (
		migration *ghapi.Migration
		err       error
	)

	if org != "" {
		migration, err = client.Migrations().Status(ctx, org, id)
	} else {
		migration, err = client.Migrations().UserStatus(ctx, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get migration status: %w", err)
	}

	return migration, nil
}

func renderMigration(w io.Writer, migration *ghapi.Migration) error {
	repos := make([]string, 0, len(migration.Repositories))
	for _, repo := range migration.Repositories {
		repos = append(repos, repo.FullName)
	}

	return renderProperties(w, migration, [][]string{
		{"ID", strconv.FormatInt(migration.ID, 10)},
		{"GUID", migration.GUID},
		{"State", migration.State},
		{"Lock Repositories", yesNo(migration.LockRepositories)},
		{"Exclude Attachments", yesNo(migration.ExcludeAttachments)},
		{"Exclude Releases", yesNo(migration.ExcludeReleases)},
		{"Repositories", valueOr(joinLines(repos), NotAvailable)},
		{"Created", optionalTime(migration.CreatedAt)},
		{"Updated", optionalTime(migration.UpdatedAt)},
	})
}

func newMigrationsListCommand(org *string) *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			var items *ghapi.PaginationIterator[ghapi.Migration]
			if *org != "" {
				items = client.Migrations().List(ctx, *org, flags.params())
			} else {
				items = client.Migrations().ListUser(ctx, flags.params())
			}

			migrations, err := collect(items, flags.limit)
			if err != nil {
				return fmt.Errorf("failed to list migrations: %w", err)
			}

			rows := make([][]string, 0, len(migrations))
			for _, migration := range migrations {
				rows = append(rows, []string{
					strconv.FormatInt(migration.ID, 10),
					migration.State,
					strconv.Itoa(len(migration.Repositories)),
					optionalTime(migration.CreatedAt),
				})
			}

			return render(cmd.OutOrStdout(), migrations, []string{"ID", "State", "Repositories", "Created"}, rows)
		},
	}

	flags.register(cmd)

	return cmd
}

func newMigrationsStatusCommand(org *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID",
		Short: "Show migration status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			migration, err := migrationStatus(ctx, client, *org, id)
			if err != nil {
				return err
			}

			return renderMigration(cmd.OutOrStdout(), migration)
		},
	}
}

func newMigrationsArchiveCommand(org *string) *cobra.Command {
	return &cobra.Command{
		Use:   "archive-url ID",
		Short: "Print the archive download URL",
		Long:  "Print the short-lived download URL of an exported migration archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			var archiveURL string
			if *org != "" {
				archiveURL, err = client.Migrations().ArchiveURL(ctx, *org, id)
			} else {
				archiveURL, err = client.Migrations().UserArchiveURL(ctx, id)
			}

			if err != nil {
				return fmt.Errorf("failed to get archive URL: %w", err)
			}

			return renderProperties(cmd.OutOrStdout(), map[string]string{"archive_url": archiveURL}, [][]string{
				{"Migration", args[0]},
				{"Archive URL", archiveURL},
			})
		},
	}
}

func newMigrationsDeleteArchiveCommand(org *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-archive ID",
		Short: "Delete a migration archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			if *org != "" {
				err = client.Migrations().DeleteArchive(ctx, *org, id)
			} else {
				err = client.Migrations().DeleteUserArchive(ctx, id)
			}

			if err != nil {
				return fmt.Errorf("failed to delete archive: %w", err)
			}

			printMessage(cmd.OutOrStdout(), "Deleted archive of migration %d", id)

			return nil
		},
	}
}

func newMigrationsUnlockCommand(org *string) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock ID REPO",
		Short: "Unlock a migrated repository",
		Args:  cobra.ExactArgs(2), //nolint:mnd // ID REPO
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			if *org != "" {
				err = client.Migrations().UnlockRepository(ctx, *org, id, args[1])
			} else {
				err = client.Migrations().UnlockUserRepository(ctx, id, args[1])
			}

			if err != nil {
				return fmt.Errorf("failed to unlock repository: %w", err)
			}

			printMessage(cmd.OutOrStdout(), "Unlocked %s", args[1])

			return nil
		},
	}
}
