package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/tariff-impact/internal/advisor"
	"github.com/sells-group/tariff-impact/pkg/anthropic"
)

var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Generate AI tariff mitigation recommendations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "advise")
		if err != nil {
			return err
		}
		defer env.Close()

		a := advisor.New(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
		recs, err := a.Advise(ctx, env.Profile)
		if err != nil {
			return err
		}

		for i, r := range recs {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. [%s] %s\n   %s\n", i+1, r.Priority, r.Title, r.Detail)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "\nRecommendations are stored unconfirmed; review them before acting.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adviseCmd)
}
