package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/24x6fhy/SWPtool/internal/bag"
	"github.com/24x6fhy/SWPtool/internal/telemetry"
)

// TopicInfo is one topic of a run with its message count.
type TopicInfo struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Messages int64  `json:"messages"`
}

// TopicsResult lists a run's topic catalog.
type TopicsResult struct {
	Run             string      `json:"run"`
	DurationSeconds float64     `json:"duration_seconds"`
	PayloadColumn   string      `json:"payload_column,omitempty"`
	Topics          []TopicInfo `json:"topics"`
}

func (r TopicsResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%.1fs)\n", r.Run, r.DurationSeconds)
	for _, t := range r.Topics {
		fmt.Fprintf(&b, "  %d: %s (%d)\n", t.ID, t.Name, t.Messages)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewTopicsCommand creates the topics command.
func NewTopicsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics <store.db3>",
		Short: "List the topics of a run store",
		Long: `List the topic catalog of one run store with per-topic message counts.

Useful for choosing --odometry-topic and writing weight patterns.

Example:
  swptool topics ./data/run_01.db3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTopics(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runTopics(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	b, err := bag.Open(path)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeOpenFailed, "failed to open database", err)
	}
	defer b.Close()

	topics, err := b.Topics(ctx)
	if err != nil {
		return fail(formatter, ExitFailure, ErrCodeGeneric, "failed to read topics", err)
	}
	counts, err := b.Count(ctx, telemetry.NewCatalog(topics), nil)
	if err != nil {
		return fail(formatter, ExitFailure, ErrCodeGeneric, "failed to count messages", err)
	}
	seconds, err := b.DriveDuration(ctx, bag.Seconds)
	if err != nil {
		return fail(formatter, ExitFailure, ErrCodeGeneric, "failed to read duration", err)
	}
	column, err := b.PayloadColumn(ctx)
	if err != nil {
		return fail(formatter, ExitFailure, ErrCodeGeneric, "failed to read message schema", err)
	}

	result := TopicsResult{
		Run:             b.Name(),
		DurationSeconds: seconds,
		PayloadColumn:   column,
		Topics:          make([]TopicInfo, 0, len(topics)),
	}
	for _, t := range topics {
		result.Topics = append(result.Topics, TopicInfo{ID: t.ID, Name: t.Name, Messages: counts[t.Name]})
	}

	return formatter.Success(result)
}
