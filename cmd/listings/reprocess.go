package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-listings-must-flow/internal/cli"
	"github.com/Veraticus/the-listings-must-flow/internal/engine"
)

func reprocessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reprocess",
		Short: "Re-clean and reclassify stored records",
		Long: `Run every stored record through the current contact scrubber and
classification rules. Fresh results are merged into the stored ones, and
fields that stay unresolved are sent to the LLM when one is configured.

Running reprocess twice in a row changes nothing the second time.`,
		Args: cobra.NoArgs,
		RunE: runReprocess,
	}

	cmd.Flags().Bool("no-enrich", false, "Skip LLM enrichment")
	return cmd
}

func runReprocess(cmd *cobra.Command, _ []string) error {
	noEnrich, _ := cmd.Flags().GetBool("no-enrich")

	ctx, cancel := cli.NewInterruptHandler(cmd.ErrOrStderr()).
		HandleInterrupts(cmd.Context(), "Records already updated keep their new classification.")
	defer cancel()

	a, err := openApp(ctx, appConfig, !noEnrich)
	if err != nil {
		return err
	}
	defer a.Close()

	r := engine.NewReprocessor(a.store, a.enricher, appConfig.Dedup.PageSize, a.metrics, slog.Default())
	r.SetObserver(cli.NewProgress(cmd.ErrOrStderr()))

	report, err := r.Run(ctx, noEnrich)
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderReprocessReport(report))
	return err
}
