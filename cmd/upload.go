package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/tariff-impact/internal/upload"
)

var uploadSheet string

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Import a purchase order (CSV or XLSX) into the profile",
	Long: "Parses the purchase order, writes the imported products and derived supplier data,\n" +
		"marks the upload as completed and flags any remaining placeholder fields for review.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		opts := upload.Options{
			Charset:   cfg.Upload.Charset,
			Delimiter: cfg.Upload.Delimiter,
			SheetName: cfg.Upload.SheetName,
			MaxRows:   cfg.Upload.MaxRows,
		}
		if uploadSheet != "" {
			opts.SheetName = uploadSheet
		}

		res, err := upload.ParseFile(ctx, args[0], opts)
		if err != nil {
			return err
		}
		flagged, err := upload.Apply(ctx, env.Profile, res)
		if err != nil {
			return err
		}

		zap.L().Info("upload complete",
			zap.String("file", res.Meta.FileName),
			zap.Int("products", len(res.Products)),
			zap.Int("flagged", flagged),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "%d products from %d rows (%d skipped), import value $%.2f\n",
			len(res.Products), res.Meta.RowCount, res.Meta.SkippedRows, res.TotalImportValue())
		if flagged > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%d placeholder fields now need your review (see `tariff-impact validate`)\n", flagged)
		}
		return nil
	},
}

func init() {
	uploadCmd.Flags().StringVar(&uploadSheet, "sheet", "", "XLSX sheet name (default from config, else first sheet)")
	rootCmd.AddCommand(uploadCmd)
}
