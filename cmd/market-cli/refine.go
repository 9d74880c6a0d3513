package main

import (
	"fmt"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/AnassEREKYSY/MarketPulse/internal/filter"
	"github.com/AnassEREKYSY/MarketPulse/internal/recompute"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// refineOptions are the local filters applied to the snapshot
type refineOptions struct {
	match           string
	city            string
	employmentType  string
	workMode        string
	experienceLevel string
	minSalary       float64
	maxSalary       float64
	page            int
	pageSize        int
	metric          string
}

func addFilterFlags(flags *pflag.FlagSet, o *refineOptions) {
	flags.StringVar(&o.match, "match", "", "Keep records whose title, company or description contains this text")
	flags.StringVar(&o.city, "city", "", "Keep records whose city, region or country contains this text")
	flags.StringVar(&o.employmentType, "employment-type", "", "Employment type, e.g. CDI")
	flags.StringVar(&o.workMode, "work-mode", "", "Work mode, e.g. Remote")
	flags.StringVar(&o.experienceLevel, "experience", "", "Experience level, e.g. Senior")
	flags.Float64Var(&o.minSalary, "min-salary", 0, "Minimum yearly salary in EUR")
	flags.Float64Var(&o.maxSalary, "max-salary", 0, "Maximum yearly salary in EUR")
}

// criteria builds the filter; salary bounds apply only when their flag was set
func (o refineOptions) criteria(flags *pflag.FlagSet) filter.Criteria {
	c := filter.Criteria{
		Text:            o.match,
		Location:        o.city,
		EmploymentType:  o.employmentType,
		WorkMode:        o.workMode,
		ExperienceLevel: o.experienceLevel,
	}
	if flags.Changed("min-salary") {
		c.MinSalary = domain.Some(o.minSalary)
	}
	if flags.Changed("max-salary") {
		c.MaxSalary = domain.Some(o.maxSalary)
	}
	return c
}

func newRefineCmd() *cobra.Command {
	var o refineOptions

	cmd := &cobra.Command{
		Use:   "refine",
		Short: "Filter, paginate and aggregate a snapshot locally",
		Long: `Refine fetches the snapshot once, then applies the local filters and prints
one page of jobs with the statistics of every matching job.

Examples:
  # Senior remote Go jobs in Paris, second page
  market-cli refine -q golang -l Paris --experience Senior --work-mode Remote --page 1

  # Work offline from a saved snapshot
  market-cli refine --snapshot-file snapshot.json --min-salary 45000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			metric, err := domain.ParseIntensityMetric(o.metric)
			if err != nil {
				return err
			}

			snapshot, err := loadSnapshot(cmd.Context(), opts)
			if err != nil {
				return err
			}

			engine := recompute.NewEngine(snapshot.Records, nil)
			view := engine.Refine(o.criteria(cmd.Flags()), o.page, o.pageSize, metric)

			out := cmd.OutOrStdout()
			if opts.output == outputJSON {
				return writeJSON(out, view)
			}

			fmt.Fprintf(out, "Snapshot: %d records fetched %s\n", engine.Len(), formatTime(snapshot.FetchedAt))
			renderJobs(out, view)
			renderStatistics(out, view.Statistics, view.Quality)
			return nil
		},
	}

	addFilterFlags(cmd.Flags(), &o)
	cmd.Flags().IntVar(&o.page, "page", 0, "Page index, 0-based")
	cmd.Flags().IntVar(&o.pageSize, "page-size", domain.DefaultPageSize, "Page size, at most 100")
	cmd.Flags().StringVar(&o.metric, "metric", string(domain.IntensityJobs), "Heat map intensity metric: jobs or salary")

	return cmd
}

func newSalariesCmd() *cobra.Command {
	var o refineOptions

	cmd := &cobra.Command{
		Use:   "salaries",
		Short: "Summarize the salaries of a snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snapshot, err := loadSnapshot(cmd.Context(), opts)
			if err != nil {
				return err
			}

			report := recompute.NewEngine(snapshot.Records, nil).Salaries(o.criteria(cmd.Flags()))

			out := cmd.OutOrStdout()
			if opts.output == outputJSON {
				return writeJSON(out, report)
			}

			renderSalaries(out, report)
			return nil
		},
	}

	addFilterFlags(cmd.Flags(), &o)
	return cmd
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Ask the API to recompute the cached aggregates of --query/--location",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client := newAPIClient(opts.apiURL, opts.timeout)

			resp, err := client.Refresh(ctx, opts.query, opts.location)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.output == outputJSON {
				return writeJSON(out, resp)
			}

			if resp.RequestID != "" {
				fmt.Fprintf(out, "Refresh %s (request %s)\n", resp.Status, resp.RequestID)
				return nil
			}
			fmt.Fprintf(out, "Refresh %s\n", resp.Status)
			return nil
		},
	}
}
