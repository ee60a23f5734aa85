package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// NewDiscussionsCommand creates the team discussions command group.
func NewDiscussionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "discussions",
		Aliases: []string{"discussion"},
		Short:   "Manage team discussions",
		Long:    "List, read, post, edit and delete discussions of an organization team",
	}

	cmd.AddCommand(newDiscussionsListCommand())
	cmd.AddCommand(newDiscussionsGetCommand())
	cmd.AddCommand(newDiscussionsCreateCommand())
	cmd.AddCommand(newDiscussionsUpdateCommand())
	cmd.AddCommand(newDiscussionsDeleteCommand())

	return cmd
}

func parseNumber(arg string) (int, error) {
	id, err := parseID(arg)
	if err != nil {
		return 0, err
	}

	return int(id), nil
}

func newDiscussionsListCommand() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list ORG TEAM",
		Short: "List discussions",
		Args:  cobra.ExactArgs(2), //nolint:mnd // ORG TEAM
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			discussions, err := collect(client.Discussions().List(ctx, args[0], args[1], flags.params()), flags.limit)
			if err != nil {
				return fmt.Errorf("failed to list discussions: %w", err)
			}

			rows := make([][]string, 0, len(discussions))
			for _, discussion := range discussions {
				rows = append(rows, []string{
					strconv.Itoa(discussion.Number),
					discussion.Title,
					discussionAuthor(discussion),
					optionalInt(discussion.CommentsCount),
					optionalTime(discussion.UpdatedAt),
				})
			}

			return render(cmd.OutOrStdout(), discussions, []string{"Number", "Title", "Author", "Comments", "Updated"}, rows)
		},
	}

	flags.register(cmd)

	return cmd
}

func discussionAuthor(discussion ghapi.TeamDiscussion) string {
	if author, ok := discussion.Author.Get(); ok {
		return author.Login
	}

	return NotAvailable
}

func renderDiscussion(w io.Writer, discussion *ghapi.TeamDiscussion) error {
	return renderProperties(w, discussion, [][]string{
		{"Number", strconv.Itoa(discussion.Number)},
		{"Title", discussion.Title},
		{"Author", discussionAuthor(*discussion)},
		{"Private", yesNo(discussion.Private)},
		{"Pinned", yesNo(discussion.Pinned)},
		{"Comments", optionalInt(discussion.CommentsCount)},
		{"URL", optionalString(discussion.HTMLURL)},
		{"Created", optionalTime(discussion.CreatedAt)},
		{"Body", discussion.Body},
	})
}

func newDiscussionsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ORG TEAM NUMBER",
		Short: "Show a discussion",
		Args:  cobra.ExactArgs(3), //nolint:mnd // ORG TEAM NUMBER
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseNumber(args[2])
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			discussion, err := client.Discussions().Get(ctx, args[0], args[1], number)
			if err != nil {
				return fmt.Errorf("failed to get discussion: %w", err)
			}

			return renderDiscussion(cmd.OutOrStdout(), discussion)
		},
	}
}

func newDiscussionsCreateCommand() *cobra.Command {
	var (
		title   string
		body    string
		private bool
	)

	cmd := &cobra.Command{
		Use:   "create ORG TEAM",
		Short: "Post a discussion",
		Args:  cobra.ExactArgs(2), //nolint:mnd // ORG TEAM
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			request := &ghapi.DiscussionCreateRequest{Title: title, Body: body}
			if cmd.Flags().Changed("private") {
				request.Private = schema.Some(private)
			}

			discussion, err := client.Discussions().Create(ctx, args[0], args[1], request)
			if err != nil {
				return fmt.Errorf("failed to create discussion: %w", err)
			}

			return renderDiscussion(cmd.OutOrStdout(), discussion)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "discussion title")
	cmd.Flags().StringVar(&body, "body", "", "discussion body")
	cmd.Flags().BoolVar(&private, "private", false, "only visible to team members")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("body")

	return cmd
}

func newDiscussionsUpdateCommand() *cobra.Command {
	var (
		title string
		body  string
	)

	cmd := &cobra.Command{
		Use:   "update ORG TEAM NUMBER",
		Short: "Edit a discussion",
		Args:  cobra.ExactArgs(3), //nolint:mnd // ORG TEAM NUMBER
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseNumber(args[2])
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			request := &ghapi.DiscussionUpdateRequest{}
			if cmd.Flags().Changed("title") {
				request.Title = schema.Some(title)
			}

			if cmd.Flags().Changed("body") {
				request.Body = schema.Some(body)
			}

			discussion, err := client.Discussions().Update(ctx, args[0], args[1], number, request)
			if err != nil {
				return fmt.Errorf("failed to update discussion: %w", err)
			}

			return renderDiscussion(cmd.OutOrStdout(), discussion)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&body, "body", "", "new body")

	return cmd
}

func newDiscussionsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ORG TEAM NUMBER",
		Short: "Delete a discussion",
		Args:  cobra.ExactArgs(3), //nolint:mnd // ORG TEAM NUMBER
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseNumber(args[2])
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			err = client.Discussions().Delete(ctx, args[0], args[1], number)
			if err != nil {
				return fmt.Errorf("failed to delete discussion: %w", err)
			}

			printMessage(cmd.OutOrStdout(), "Deleted discussion %d", number)

			return nil
		},
	}
}
