package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/ghapi/internal/constants"
	"github.com/fivetwenty-io/ghapi/internal/relay"
	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
)

// NewEventsCommand creates the events command group.
func NewEventsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "events",
		Aliases: []string{"event", "activity"},
		Short:   "List activity events",
		Long:    "List GitHub activity feeds and relay them to NATS",
	}

	cmd.AddCommand(newEventsListCommand())
	cmd.AddCommand(newEventsRelayCommand())

	return cmd
}

// eventSource selects one activity feed. At most one field is set; none
// means the public feed.
type eventSource struct {
	repo       string
	user       string
	publicOnly bool
	org        string
	received   string
}

func (s *eventSource) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.repo, "repo", "", "events of this repository (OWNER/NAME)")
	cmd.Flags().StringVar(&s.user, "user", "", "events performed by this user")
	cmd.Flags().BoolVar(&s.publicOnly, "public", false, "with --user, only public events")
	cmd.Flags().StringVar(&s.org, "org", "", "events of this organization")
	cmd.Flags().StringVar(&s.received, "received", "", "events received by this user")
	cmd.MarkFlagsMutuallyExclusive("repo", "user", "org", "received")
}

func (s *eventSource) list(ctx context.Context, client ghapi.Client) *ghapi.PaginationIterator[ghapi.Event] {
	events := client.Events()

	switch {
	case s.repo != "":
		return events.ListForRepository(ctx, parseRef(s.repo), nil)
	case s.user != "" && s.publicOnly:
		return events.ListPublicForUser(ctx, s.user, nil)
	case s.user != "":
		return events.ListForUser(ctx, s.user, nil)
	case s.org != "":
		return events.ListForOrganization(ctx, s.org, nil)
	case s.received != "":
		return events.ListReceived(ctx, s.received, nil)
	default:
		return events.ListPublic(ctx, nil)
	}
}

func newEventsListCommand() *cobra.Command {
	var (
		source eventSource
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events",
		Long:  "List the public event feed, or the feed of a repository, user or organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			events, err := collect(source.list(ctx, client), limit)
			if err != nil {
				return fmt.Errorf("failed to list events: %w", err)
			}

			rows := make([][]string, 0, len(events))
			for _, event := range events {
				rows = append(rows, []string{
					event.ID,
					event.Type,
					event.Actor.Login,
					event.Repo.Name,
					humanize.Time(event.CreatedAt),
				})
			}

			return render(cmd.OutOrStdout(), events, []string{"ID", "Type", "Actor", "Repository", "Created"}, rows)
		},
	}

	source.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", constants.DefaultPerPage, "maximum number of events (0 fetches every page)")

	return cmd
}

func newEventsRelayCommand() *cobra.Command {
	var (
		source   eventSource
		limit    int
		interval time.Duration
		once     bool
	)

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Publish events to NATS",
		Long: `Publish an event feed to NATS, one message per event on
"<subject>.<EventType>". Events are published in feed order and each event
id only once. With --once the feed is drained a single time; otherwise it is
polled until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = viper.BindPFlag("nats_url", cmd.Flags().Lookup("nats-url"))
			_ = viper.BindPFlag("relay_subject", cmd.Flags().Lookup("subject"))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			conn, err := relay.Connect(viper.GetString("nats_url"), "ghapi-relay")
			if err != nil {
				return err
			}
			defer conn.Close()

			logger := NewLogger(os.Stderr, viper.GetBool("verbose"))

			subject := viper.GetString("relay_subject")
			if subject == "" {
				subject = constants.DefaultRelaySubject
			}

			r, err := relay.New(conn, subject,
				relay.WithLogger(ghapi.NewZerologLogger(logger)),
				relay.WithLimit(limit),
			)
			if err != nil {
				return fmt.Errorf("failed to create relay: %w", err)
			}

			var stats relay.Stats

			if once {
				stats, err = r.Run(ctx, source.list(ctx, client))
			} else {
				stats, err = r.Poll(ctx, func(ctx context.Context) *ghapi.PaginationIterator[ghapi.Event] {
					return source.list(ctx, client)
				}, interval)
				if errors.Is(err, context.Canceled) {
					err = nil
				}
			}

			logger.Info().
				Int("published", stats.Published).
				Int("skipped", stats.Skipped).
				Int("pages", stats.Pages).
				Msg("relay finished")

			if err != nil {
				return fmt.Errorf("failed to relay events: %w", err)
			}

			printMessage(cmd.OutOrStdout(), "Published %s events (%s duplicates skipped) from %s pages",
				humanize.Comma(int64(stats.Published)), humanize.Comma(int64(stats.Skipped)), humanize.Comma(int64(stats.Pages)))

			return nil
		},
	}

	source.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "stop each run after this many events (0 means no limit)")
	cmd.Flags().DurationVar(&interval, "interval", constants.DefaultPollInterval, "poll interval")
	cmd.Flags().BoolVar(&once, "once", false, "drain the feed once and exit")
	cmd.Flags().String("nats-url", constants.DefaultNATSURL, "NATS server URL")
	cmd.Flags().String("subject", constants.DefaultRelaySubject, "subject prefix")

	return cmd
}
