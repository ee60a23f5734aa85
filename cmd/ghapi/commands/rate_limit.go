package commands

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewRateLimitCommand creates the rate-limit command.
func NewRateLimitCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rate-limit",
		Aliases: []string{"rate", "limits"},
		Short:   "Show rate limit status",
		Long:    "Show the remaining request budget per API resource. Checking does not count against the limit.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			limits, err := client.RateLimit().Get(ctx)
			if err != nil {
				return fmt.Errorf("failed to get rate limit: %w", err)
			}

			names := make([]string, 0, len(limits.Resources))
			for name := range limits.Resources {
				names = append(names, name)
			}

			slices.Sort(names)

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				resource := limits.Resources[name]
				rows = append(rows, []string{
					name,
					strconv.Itoa(resource.Limit),
					strconv.Itoa(resource.Remaining),
					strconv.Itoa(resource.Used),
					humanize.Time(resource.ResetTime()),
				})
			}

			return render(cmd.OutOrStdout(), limits, []string{"Resource", "Limit", "Remaining", "Used", "Resets"}, rows)
		},
	}
}
