package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/tariff-impact/internal/model"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect and edit the business data profile",
}

// -- profile show --

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List every field with its source and validation state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initEnv(cmd.Context(), "store")
		if err != nil {
			return err
		}
		defer env.Close()

		snap, err := env.Profile.Snapshot()
		if err != nil {
			return err
		}
		formatProfile(cmd.OutOrStdout(), snap)
		return nil
	},
}

// -- profile export --

var profileExportOut string

var profileExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the profile as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initEnv(cmd.Context(), "store")
		if err != nil {
			return err
		}
		defer env.Close()

		data, err := env.Profile.ExportData()
		if err != nil {
			return err
		}
		if profileExportOut == "" {
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}
		if err := os.WriteFile(profileExportOut, data, 0o600); err != nil {
			return eris.Wrap(err, "write export")
		}
		zap.L().Info("profile exported", zap.String("path", profileExportOut))
		return nil
	},
}

// -- profile import --

var profileImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the profile with a previously exported one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "read import file")
		}

		env, err := initEnv(cmd.Context(), "store")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Profile.ImportData(cmd.Context(), data); err != nil {
			return err
		}
		c := env.Profile.Completeness()
		fmt.Fprintf(cmd.OutOrStdout(), "imported: completeness %d%% (%d user fields)\n", c.CompletenessScore, c.UserProvidedFields)
		return nil
	},
}

// -- profile reset --

var profileResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard all profile data",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initEnv(cmd.Context(), "store")
		if err != nil {
			return err
		}
		defer env.Close()

		env.Profile.ResetData(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), "profile reset")
		return nil
	},
}

// -- profile set --

var (
	profileSetSource     string
	profileSetConfidence float64
	profileSetUnverified bool
)

var profileSetCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Set one field",
	Long: "Sets a field from a JSON value. Bare words are treated as strings, so\n" +
		"`profile set companyName Acme` and `profile set currentHeadCount 12` both work.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := model.ParseField(args[0])
		if err != nil {
			return err
		}
		pt, err := parseFieldValue(f, args[1], model.Source(profileSetSource), profileSetUnverified)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("confidence") {
			c := profileSetConfidence
			pt.Meta().Confidence = &c
		}

		env, err := initEnv(cmd.Context(), "store")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Profile.UpdateData(cmd.Context(), f, pt); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s set (%s)\n", f, profileSetSource)
		return nil
	},
}

// -- profile confirm --

var profileConfirmCmd = &cobra.Command{
	Use:   "confirm <field...>",
	Short: "Mark fields as validated by the user",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "store")
		if err != nil {
			return err
		}
		defer env.Close()

		for _, arg := range args {
			f, err := model.ParseField(arg)
			if err != nil {
				return err
			}
			if err := env.Profile.MarkAsValidated(cmd.Context(), f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s confirmed\n", f)
		}
		return nil
	},
}

// -- profile clear-templates --

var profileClearTemplatesCmd = &cobra.Command{
	Use:   "clear-templates",
	Short: "Flag remaining placeholder fields for review after an upload",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initEnv(cmd.Context(), "store")
		if err != nil {
			return err
		}
		defer env.Close()

		if env.Profile.UploadStatus() != model.UploadCompleted {
			fmt.Fprintln(cmd.OutOrStdout(), "no completed upload yet, nothing to flag")
			return nil
		}
		n := env.Profile.ClearTemplateData(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "%d placeholder fields flagged for review\n", n)
		return nil
	},
}

// parseFieldValue decodes raw into a data point of the type f expects. Input
// that is not JSON, or JSON that does not fit the field, is retried as a
// plain string.
func parseFieldValue(f model.Field, raw string, src model.Source, requiresValidation bool) (model.Point, error) {
	if json.Valid([]byte(raw)) {
		pt, err := decodeFieldValue(f, json.RawMessage(raw), src, requiresValidation)
		if err == nil {
			return pt, nil
		}
	}
	quoted, err := json.Marshal(raw)
	if err != nil {
		return nil, eris.Wrap(err, "quote value")
	}
	return decodeFieldValue(f, quoted, src, requiresValidation)
}

func decodeFieldValue(f model.Field, value json.RawMessage, src model.Source, requiresValidation bool) (model.Point, error) {
	envelope, err := json.Marshal(struct {
		Value              json.RawMessage `json:"value"`
		Source             model.Source    `json:"source"`
		RequiresValidation bool            `json:"requiresValidation"`
		Validated          bool            `json:"validated"`
	}{value, src, requiresValidation, !requiresValidation})
	if err != nil {
		return nil, eris.Wrap(err, "encode value")
	}

	pt := model.BlankPoint(f)
	if pt == nil {
		return nil, eris.Errorf("unknown field %q", f)
	}
	if err := json.Unmarshal(envelope, pt); err != nil {
		return nil, eris.Wrapf(err, "value for %s", f)
	}
	return pt, nil
}

func formatProfile(w io.Writer, p *model.Profile) {
	c := p.DataCompleteness
	fmt.Fprintf(w, "upload: %s  completeness: %d%%  user: %d  template: %d  calculated: %d  external: %d\n\n",
		p.UploadStatus, c.CompletenessScore, c.UserProvidedFields, c.TemplateFields, c.CalculatedFields, c.ExternalFields)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tSOURCE\tVALIDATED\tEMPTY\tUPDATED")
	for _, f := range model.AllFields {
		pt := p.Point(f)
		m := pt.Meta()
		validated := "yes"
		if !m.Validated {
			validated = "no"
		}
		empty := ""
		if pt.IsEmpty() {
			empty = "empty"
		}
		updated := "-"
		if !m.LastUpdated.IsZero() {
			updated = m.LastUpdated.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f, m.Source, validated, empty, updated)
	}
	_ = tw.Flush()
}

func init() {
	profileExportCmd.Flags().StringVarP(&profileExportOut, "out", "o", "", "write to file instead of stdout")

	profileSetCmd.Flags().StringVar(&profileSetSource, "source", string(model.SourceUserInput), "data source")
	profileSetCmd.Flags().Float64Var(&profileSetConfidence, "confidence", 0, "confidence for external data (0-1)")
	profileSetCmd.Flags().BoolVar(&profileSetUnverified, "unverified", false, "mark the value as needing confirmation")

	profileCmd.AddCommand(profileShowCmd, profileExportCmd, profileImportCmd, profileResetCmd,
		profileSetCmd, profileConfirmCmd, profileClearTemplatesCmd)
	rootCmd.AddCommand(profileCmd)
}
