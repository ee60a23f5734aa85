package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
)

// NewUsersCommand creates the users command group.
func NewUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Inspect users",
		Long:    "Show GitHub user profiles and follower relationships",
	}

	cmd.AddCommand(newUsersGetCommand())
	cmd.AddCommand(newUsersMeCommand())
	cmd.AddCommand(newUsersFollowersCommand())
	cmd.AddCommand(newUsersFollowingCommand())
	cmd.AddCommand(newUsersFollowsCommand())

	return cmd
}

func newUsersGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get LOGIN|ID",
		Short: "Get a user profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			user, err := client.Users().Get(ctx, parseRef(args[0]))
			if err != nil {
				return fmt.Errorf("failed to get user: %w", err)
			}

			return renderUser(cmd.OutOrStdout(), user)
		},
	}
}

func newUsersMeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "me",
		Aliases: []string{"whoami"},
		Short:   "Show the authenticated user",
		Args:    cobra.NoArgs,
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

			user, err := client.Users().Authenticated(ctx)
			if err != nil {
				return fmt.Errorf("failed to get authenticated user: %w", err)
			}

			return renderUser(cmd.OutOrStdout(), user)
		},
	}
}

func renderUser(w io.Writer, user *ghapi.User) error {
	return renderProperties(w, user, [][]string{
		{"Login", user.Login},
		{"ID", strconv.FormatInt(user.ID, 10)},
		{"Type", optionalString(user.Type)},
		{"Name", optionalString(user.Name)},
		{"Company", optionalString(user.Company)},
		{"Location", optionalString(user.Location)},
		{"Email", optionalString(user.Email)},
		{"Public Repos", optionalInt(user.PublicRepos)},
		{"Followers", optionalInt(user.Followers)},
		{"Following", optionalInt(user.Following)},
		{"Site Admin", yesNo(user.SiteAdmin)},
		{"Created", optionalTime(user.CreatedAt)},
	})
}

func newUsersFollowersCommand() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "followers [LOGIN]",
		Short: "List followers",
		Long:  "List followers of a user, or of the authenticated user when no login is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserList(cmd, args, flags, func(ctx context.Context, client ghapi.Client, ref ghapi.Ref) *ghapi.PaginationIterator[ghapi.User] {
				return client.Users().ListFollowers(ctx, ref, flags.params())
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func newUsersFollowingCommand() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "following [LOGIN]",
		Short: "List followed users",
		Long:  "List users followed by a user, or by the authenticated user when no login is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserList(cmd, args, flags, func(ctx context.Context, client ghapi.Client, ref ghapi.Ref) *ghapi.PaginationIterator[ghapi.User] {
				return client.Users().ListFollowing(ctx, ref, flags.params())
			})
		},
	}

	flags.register(cmd)

	return cmd
}

type userLister func(ctx context.Context, client ghapi.Client, ref ghapi.Ref) *ghapi.PaginationIterator[ghapi.User]

func runUserList(cmd *cobra.Command, args []string, flags listFlags, list userLister) error {
	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	var ref ghapi.Ref
	if len(args) == 1 {
		ref = parseRef(args[0])
	}

	users, err := collect(list(ctx, client, ref), flags.limit)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	rows := make([][]string, 0, len(users))
	for _, user := range users {
		rows = append(rows, []string{user.Login, strconv.FormatInt(user.ID, 10), optionalString(user.Type)})
	}

	return render(cmd.OutOrStdout(), users, []string{"Login", "ID", "Type"}, rows)
}

func newUsersFollowsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "follows LOGIN TARGET",
		Short: "Check whether a user follows another",
		Args:  cobra.ExactArgs(2), //nolint:mnd // LOGIN TARGET
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			follows, err := client.Users().Follows(ctx, parseRef(args[0]), args[1])
			if err != nil {
				return fmt.Errorf("failed to check follow: %w", err)
			}

			return renderProperties(cmd.OutOrStdout(), map[string]bool{"follows": follows}, [][]string{
				{"User", args[0]},
				{"Target", args[1]},
				{"Follows", yesNo(follows)},
			})
		},
	}
}
