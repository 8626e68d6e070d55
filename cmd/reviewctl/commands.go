package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"hostaway_reviews/internal/adapters/reviewsapi"
	"hostaway_reviews/internal/domain"
	"hostaway_reviews/internal/shared"
)

type cliOpts struct {
	baseURL string
	timeout time.Duration
	asJSON  bool
}

func newRootCmd(cfg shared.Config) *cobra.Command {
	opts := &cliOpts{}
	root := &cobra.Command{
		Use:          "reviewctl",
		Short:        "Moderate guest reviews from the terminal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "api", cfg.APIBaseURL, "reviews API base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "overall request timeout")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")

	root.AddCommand(
		newListCmd(opts),
		newStatsCmd(opts),
		newSetCmd(opts, "approve", "Approve a review", func(p *domain.ModerationPatch, v *bool) { p.Approved = v }, true),
		newSetCmd(opts, "unapprove", "Withdraw approval", func(p *domain.ModerationPatch, v *bool) { p.Approved = v }, false),
		newSetCmd(opts, "feature", "Feature a review", func(p *domain.ModerationPatch, v *bool) { p.Featured = v }, true),
		newSetCmd(opts, "unfeature", "Stop featuring a review", func(p *domain.ModerationPatch, v *bool) { p.Featured = v }, false),
		newToggleCmd(opts),
	)
	return root
}

func (o *cliOpts) client() (*reviewsapi.Client, error) {
	return reviewsapi.New(o.baseURL, 5)
}

func (o *cliOpts) ctx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("review id %q: %w", s, domain.ErrInvalidInput)
	}
	return id, nil
}

func newListCmd(opts *cliOpts) *cobra.Command {
	var q, listing, channel, sort string
	var minRating int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reviews with their moderation flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.ctx(cmd)
			defer cancel()

			v := url.Values{}
			for k, s := range map[string]string{"q": q, "listing": listing, "channel": channel, "sort": sort} {
				if s != "" {
					v.Set(k, s)
				}
			}
			if minRating > 0 {
				v.Set("minRating", strconv.Itoa(minRating))
			}
			rs, err := cl.List(ctx, v)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), rs)
			}
			printReviews(cmd.OutOrStdout(), rs)
			return nil
		},
	}
	cmd.Flags().StringVar(&q, "q", "", "search comment, guest and listing")
	cmd.Flags().StringVar(&listing, "listing", "", "exact listing name")
	cmd.Flags().StringVar(&channel, "channel", "", "exact channel name")
	cmd.Flags().StringVar(&sort, "sort", "date", "date or rating")
	cmd.Flags().IntVar(&minRating, "min-rating", 0, "minimum overall rating")
	return cmd
}

func newStatsCmd(opts *cliOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show moderation totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.ctx(cmd)
			defer cancel()
			st, err := cl.Stats(ctx)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), st)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total %d  approved %d  featured %d  average %.1f\n",
				st.Total, st.Approved, st.Featured, st.AverageRating)
			return nil
		},
	}
}

func newSetCmd(opts *cliOpts, use, short string, set func(*domain.ModerationPatch, *bool), value bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cl, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.ctx(cmd)
			defer cancel()

			v := value
			var p domain.ModerationPatch
			set(&p, &v)
			res, err := cl.Update(ctx, id, p)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d approved=%t featured=%t\n", res.ID, res.Approved, res.Featured)
			return nil
		},
	}
}

// newToggleCmd flips a flag against the current server state through the
// optimistic board.
func newToggleCmd(opts *cliOpts) *cobra.Command {
	var field string
	cmd := &cobra.Command{
		Use:   "toggle ID",
		Short: "Flip approved or featured for a review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cl, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.ctx(cmd)
			defer cancel()

			rs, err := cl.List(ctx, nil)
			if err != nil {
				return err
			}
			b := reviewsapi.NewBoard(cl, rs)
			var r domain.CanonicalReview
			switch field {
			case "approved":
				r, err = b.ToggleApproved(ctx, id)
			case "featured":
				r, err = b.ToggleFeatured(ctx, id)
			default:
				return fmt.Errorf("--field must be approved or featured, got %q", field)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d approved=%t featured=%t\n", r.ID, r.Approved, r.Featured)
			return nil
		},
	}
	cmd.Flags().StringVar(&field, "field", "approved", "approved or featured")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReviews(w io.Writer, rs []domain.CanonicalReview) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRATING\tAPPROVED\tFEATURED\tCHANNEL\tSUBMITTED\tGUEST\tLISTING")
	for _, r := range rs {
		fmt.Fprintf(tw, "%d\t%d\t%t\t%t\t%s\t%s\t%s\t%s\n",
			r.ID, r.OverallRating, r.Approved, r.Featured, r.Channel, r.SubmittedAt, r.GuestName, r.ListingName)
	}
	_ = tw.Flush()
}
