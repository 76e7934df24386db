package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-listings-must-flow/internal/cli"
	"github.com/Veraticus/the-listings-must-flow/internal/common"
	"github.com/Veraticus/the-listings-must-flow/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export classified records",
	}
	cmd.AddCommand(exportSheetsCmd())
	return cmd
}

func exportSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Write all records and a summary to Google Sheets",
		Long: `Write every stored record to a Google Sheets spreadsheet, newest first,
below a summary of counts by category, purpose, property type and region.

Credentials come from sheets.service_account_path, or from an OAuth client
(sheets.client_id and sheets.client_secret) with a token saved by
"listings export sheets auth".`,
		Args: cobra.NoArgs,
		RunE: runExportSheets,
	}
	cmd.Flags().String("spreadsheet-id", "", "Spreadsheet to overwrite (default from sheets.spreadsheet_id)")
	cmd.AddCommand(sheetsAuthCmd())
	return cmd
}

func runExportSheets(cmd *cobra.Command, _ []string) error {
	cfg := appConfig.Sheets
	if id, _ := cmd.Flags().GetString("spreadsheet-id"); id != "" {
		cfg.SpreadsheetID = id
	}
	if err := cfg.Validate(); err != nil {
		return common.NewUserError("Google Sheets is not configured", err)
	}

	ctx := cmd.Context()
	store, err := openStorage(ctx, appConfig)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	writer, err := sheets.NewWriter(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}

	n, err := sheets.Export(ctx, store, writer, appConfig.Dedup.PageSize)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d records to Google Sheets", n)))
	return nil
}

func sheetsAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize Google Sheets access and save the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := appConfig.Sheets
			if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.TokenFile == "" {
				return common.NewUserError("set sheets.client_id, sheets.client_secret and sheets.token_file first", common.ErrMissingConfig)
			}
			if _, err := sheets.Authenticate(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Saved token to "+cfg.TokenFile))
			return nil
		},
	}
}
