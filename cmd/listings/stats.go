package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-listings-must-flow/internal/cli"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record and sender counts",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, err := openStorage(ctx, appConfig)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.Count(ctx)
	if err != nil {
		return err
	}
	senders, err := store.CountSenders(ctx)
	if err != nil {
		return err
	}
	byType, err := store.CountByPropertyType(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderStats(records, senders, byType))
	return nil
}
