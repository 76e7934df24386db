package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-listings-must-flow/internal/classification"
	"github.com/Veraticus/the-listings-must-flow/internal/cli"
	"github.com/Veraticus/the-listings-must-flow/internal/common"
	"github.com/Veraticus/the-listings-must-flow/internal/contact"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [text]",
		Short: "Classify a message and show which rule decided each field",
		Long: `Classify one message without touching the database. The text is taken
from the arguments, or from stdin when none are given. Contact details are
scrubbed first, exactly as during import.`,
		RunE: runClassify,
	}
}

func runClassify(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return common.NewUserError("nothing to classify", common.ErrInvalidInput)
	}

	sender := contact.ExtractSender("", text)
	cleaned := contact.Scrub(text)
	res, why := classification.NewClassifier(slog.Default()).Explain(cleaned)

	rule := func(field string) string {
		if why[field] == "" {
			return cli.SubtleStyle.Render("(fallback)")
		}
		return cli.SubtleStyle.Render("(" + why[field] + ")")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s%s\n", cli.LabelStyle.Render("Message"), cleaned)
	fmt.Fprintf(&b, "%s%s\n", cli.LabelStyle.Render("Mobile"), sender.Mobile)
	fmt.Fprintf(&b, "%s%s %s\n", cli.LabelStyle.Render("Category"), res.Category, rule(classification.FieldCategory))
	fmt.Fprintf(&b, "%s%s %s\n", cli.LabelStyle.Render("Property type"), res.PropertyType, rule(classification.FieldPropertyType))
	fmt.Fprintf(&b, "%s%s %s\n", cli.LabelStyle.Render("Purpose"), res.Purpose, rule(classification.FieldPurpose))
	fmt.Fprintf(&b, "%s%s %s", cli.LabelStyle.Render("Region"), res.Region, rule(classification.FieldRegion))

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(cli.RobotIcon+" Classification", b.String()))
	return nil
}
