package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/tariff-impact/internal/notices"
	"github.com/sells-group/tariff-impact/pkg/federalregister"
)

var noticesConcurrency int

var noticesCmd = &cobra.Command{
	Use:   "notices",
	Short: "Federal Register tariff notices",
}

var noticesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch recent tariff notices into the profile",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "notices")
		if err != nil {
			return err
		}
		defer env.Close()

		fr := cfg.FederalRegister
		client := federalregister.NewClient(
			federalregister.WithBaseURL(fr.BaseURL),
			federalregister.WithRateLimit(fr.RequestsPerSecond),
		)

		found, err := notices.Sync(ctx, client, env.Profile, notices.Options{
			Terms:       fr.Terms,
			PerPage:     fr.PerPage,
			Confidence:  fr.Confidence,
			Concurrency: noticesConcurrency,
		})
		if err != nil {
			return err
		}

		for _, n := range found {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", n.PublicationDate, n.DocumentNumber, n.Title)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d notices stored\n", len(found))
		return nil
	},
}

func init() {
	noticesSyncCmd.Flags().IntVar(&noticesConcurrency, "concurrency", 3, "parallel search requests")
	noticesCmd.AddCommand(noticesSyncCmd)
	rootCmd.AddCommand(noticesCmd)
}
