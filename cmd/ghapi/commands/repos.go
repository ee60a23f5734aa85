package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/ghapi/internal/constants"
	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// NewReposCommand creates the repositories command group.
func NewReposCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "repos",
		Aliases: []string{"repo", "repositories"},
		Short:   "Manage repositories",
		Long:    "List, inspect, create, edit, delete and star GitHub repositories",
	}

	cmd.AddCommand(newReposGetCommand())
	cmd.AddCommand(newReposExistsCommand())
	cmd.AddCommand(newReposListCommand())
	cmd.AddCommand(newReposCreateCommand())
	cmd.AddCommand(newReposEditCommand())
	cmd.AddCommand(newReposDeleteCommand())
	cmd.AddCommand(newReposStarCommand())
	cmd.AddCommand(newReposUnstarCommand())
	cmd.AddCommand(newReposStarredCommand())
	cmd.AddCommand(newReposCollaboratorsCommand())

	return cmd
}

func newReposGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get OWNER/NAME|ID",
		Short: "Get repository details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			repo, err := client.Repositories().Get(ctx, parseRef(args[0]))
			if err != nil {
				return fmt.Errorf("failed to get repository: %w", err)
			}

			return renderRepository(cmd.OutOrStdout(), repo)
		},
	}
}

func renderRepository(w io.Writer, repo *ghapi.Repository) error {
	return renderProperties(w, repo, [][]string{
		{"Name", repo.FullName},
		{"ID", strconv.FormatInt(repo.ID, 10)},
		{"Description", optionalString(repo.Description)},
		{"Visibility", optionalString(repo.Visibility)},
		{"Private", yesNo(repo.Private)},
		{"Fork", yesNo(repo.Fork)},
		{"Archived", yesNo(repo.Archived)},
		{"Default Branch", optionalString(repo.DefaultBranch)},
		{"Language", optionalString(repo.Language)},
		{"Stars", optionalInt(repo.StargazersCount)},
		{"Forks", optionalInt(repo.ForksCount)},
		{"Open Issues", optionalInt(repo.OpenIssuesCount)},
		{"Topics", valueOr(strings.Join(repo.Topics, ", "), NotAvailable)},
		{"URL", repo.HTMLURL},
		{"Created", optionalTime(repo.CreatedAt)},
		{"Pushed", optionalTime(repo.PushedAt)},
	})
}

func newReposExistsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exists OWNER/NAME...",
		Short: "Check whether repositories exist",
		Long:  "Check whether repositories exist. Malformed names are reported as missing.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			refs := make([]ghapi.Ref, len(args))
			for i, arg := range args {
				refs[i] = parseRef(arg)
			}

			found, err := client.Repositories().ExistsAll(ctx, refs)
			if err != nil {
				return fmt.Errorf("failed to check repositories: %w", err)
			}

			results := make(map[string]bool, len(args))
			rows := make([][]string, len(args))

			for i, arg := range args {
				results[arg] = found[i]
				rows[i] = []string{arg, yesNo(found[i])}
			}

			return render(cmd.OutOrStdout(), results, []string{"Repository", "Exists"}, rows)
		},
	}
}

func newReposListCommand() *cobra.Command {
	var (
		flags listFlags
		user  string
		org   string
		kind  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List repositories",
		Long:  "List repositories of a user, an organization, or the authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			params := flags.params()
			if kind != "" {
				params.WithType(kind)
			}

			var items *ghapi.PaginationIterator[ghapi.Repository]

			switch {
			case org != "":
				items = client.Repositories().ListForOrg(ctx, org, params)
			case user != "":
				items = client.Repositories().ListForUser(ctx, user, params)
			default:
				items = client.Repositories().ListForAuthenticatedUser(ctx, params)
			}

			repos, err := collect(items, flags.limit)
			if err != nil {
				return fmt.Errorf("failed to list repositories: %w", err)
			}

			rows := make([][]string, 0, len(repos))
			for _, repo := range repos {
				rows = append(rows, []string{
					repo.FullName,
					optionalString(repo.Visibility),
					optionalString(repo.Language),
					optionalInt(repo.StargazersCount),
					optionalTime(repo.PushedAt),
				})
			}

			return render(cmd.OutOrStdout(), repos, []string{"Name", "Visibility", "Language", "Stars", "Pushed"}, rows)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&user, "user", "", "list repositories of this user")
	cmd.Flags().StringVar(&org, "org", "", "list repositories of this organization")
	cmd.Flags().StringVar(&kind, "type", "", "repository type filter (all, owner, public, private, member, forks, sources)")

	return cmd
}

func newReposCreateCommand() *cobra.Command {
	var (
		org         string
		description string
		homepage    string
		private     bool
		autoInit    bool
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a repository",
		Long:  "Create a repository for the authenticated user, or in an organization with --org",
		Args:  cobra.ExactArgs(1),
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

			request := &ghapi.RepositoryCreateRequest{Name: args[0]}
			if cmd.Flags().Changed("description") {
				request.Description = schema.Some(description)
			}

			if cmd.Flags().Changed("homepage") {
				request.Homepage = schema.Some(homepage)
			}

			if cmd.Flags().Changed("private") {
				request.Private = schema.Some(private)
			}

			if cmd.Flags().Changed("auto-init") {
				request.AutoInit = schema.Some(autoInit)
			}

			repo, err := client.Repositories().Create(ctx, org, request)
			if err != nil {
				return fmt.Errorf("failed to create repository: %w", err)
			}

			return renderRepository(cmd.OutOrStdout(), repo)
		},
	}

	cmd.Flags().StringVar(&org, "org", "", "create the repository in this organization")
	cmd.Flags().StringVar(&description, "description", "", "repository description")
	cmd.Flags().StringVar(&homepage, "homepage", "", "repository homepage")
	cmd.Flags().BoolVar(&private, "private", false, "create a private repository")
	cmd.Flags().BoolVar(&autoInit, "auto-init", false, "create an initial commit with an empty README")

	return cmd
}

func newReposEditCommand() *cobra.Command {
	var (
		name          string
		description   string
		homepage      string
		defaultBranch string
		private       bool
		archived      bool
	)

	cmd := &cobra.Command{
		Use:   "edit OWNER/NAME",
		Short: "Edit a repository",
		Long:  "Edit repository settings. Only the flags given are changed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			request := &ghapi.RepositoryEditRequest{}
			if cmd.Flags().Changed("name") {
				request.Name = schema.Some(name)
			}

			if cmd.Flags().Changed("description") {
				request.Description = schema.Some(description)
			}

			if cmd.Flags().Changed("homepage") {
				request.Homepage = schema.Some(homepage)
			}

			if cmd.Flags().Changed("default-branch") {
				request.DefaultBranch = schema.Some(defaultBranch)
			}

			if cmd.Flags().Changed("private") {
				request.Private = schema.Some(private)
			}

			if cmd.Flags().Changed("archived") {
				request.Archived = schema.Some(archived)
			}

			repo, err := client.Repositories().Edit(ctx, parseRef(args[0]), request)
			if err != nil {
				return fmt.Errorf("failed to edit repository: %w", err)
			}

			return renderRepository(cmd.OutOrStdout(), repo)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new repository name")
	cmd.Flags().StringVar(&description, "description", "", "repository description")
	cmd.Flags().StringVar(&homepage, "homepage", "", "repository homepage")
	cmd.Flags().StringVar(&defaultBranch, "default-branch", "", "default branch")
	cmd.Flags().BoolVar(&private, "private", false, "make the repository private")
	cmd.Flags().BoolVar(&archived, "archived", false, "archive the repository")

	return cmd
}

func newReposDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete OWNER/NAME",
		Short: "Delete a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("%w: deleting %s requires --force", constants.ErrConfirmationRequired, args[0])
			}

			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			err = client.Repositories().Delete(ctx, parseRef(args[0]))
			if err != nil {
				return fmt.Errorf("failed to delete repository: %w", err)
			}

			printMessage(cmd.OutOrStdout(), "Deleted repository %s", args[0])

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "confirm deletion")

	return cmd
}

func newReposStarCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "star OWNER/NAME",
		Short: "Star a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			err = client.Repositories().Star(ctx, parseRef(args[0]))
			if err != nil {
				return fmt.Errorf("failed to star repository: %w", err)
			}

			printMessage(cmd.OutOrStdout(), "Starred %s", args[0])

			return nil
		},
	}
}

func newReposUnstarCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unstar OWNER/NAME",
		Short: "Unstar a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			err = client.Repositories().Unstar(ctx, parseRef(args[0]))
			if err != nil {
				return fmt.Errorf("failed to unstar repository: %w", err)
			}

			printMessage(cmd.OutOrStdout(), "Unstarred %s", args[0])

			return nil
		},
	}
}

func newReposStarredCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "starred OWNER/NAME",
		Short: "Check whether the authenticated user starred a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			starred, err := client.Repositories().IsStarred(ctx, parseRef(args[0]))
			if err != nil {
				return fmt.Errorf("failed to check star: %w", err)
			}

			return renderProperties(cmd.OutOrStdout(), map[string]bool{"starred": starred}, [][]string{
				{"Repository", args[0]},
				{"Starred", yesNo(starred)},
			})
		},
	}
}

func newReposCollaboratorsCommand() *cobra.Command {
	var (
		flags listFlags
		check string
	)

	cmd := &cobra.Command{
		Use:   "collaborators OWNER/NAME",
		Short: "List repository collaborators",
		Long:  "List repository collaborators, or check a single login with --check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			ref := parseRef(args[0])

			if check != "" {
				ok, err := client.Repositories().IsCollaborator(ctx, ref, check)
				if err != nil {
					return fmt.Errorf("failed to check collaborator: %w", err)
				}

				return renderProperties(cmd.OutOrStdout(), map[string]bool{"collaborator": ok}, [][]string{
					{"Login", check},
					{"Collaborator", yesNo(ok)},
				})
			}

			collaborators, err := collect(client.Repositories().ListCollaborators(ctx, ref, flags.params()), flags.limit)
			if err != nil {
				return fmt.Errorf("failed to list collaborators: %w", err)
			}

			rows := make([][]string, 0, len(collaborators))
			for _, collaborator := range collaborators {
				rows = append(rows, []string{
					collaborator.Login,
					optionalString(collaborator.RoleName),
					permissionSummary(collaborator.Permissions),
				})
			}

			return render(cmd.OutOrStdout(), collaborators, []string{"Login", "Role", "Permissions"}, rows)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&check, "check", "", "only check whether this login is a collaborator")

	return cmd
}

func permissionSummary(value schema.Optional[ghapi.Permissions]) string {
	permissions, ok := value.Get()
	if !ok {
		return NotAvailable
	}

	var granted []string

	for _, p := range []struct {
		name string
		set  bool
	}{
		{"admin", permissions.Admin},
		{"maintain", permissions.Maintain},
		{"push", permissions.Push},
		{"triage", permissions.Triage},
		{"pull", permissions.Pull},
	} {
		if p.set {
			granted = append(granted, p.name)
		}
	}

	return valueOr(strings.Join(granted, ","), NotAvailable)
}
