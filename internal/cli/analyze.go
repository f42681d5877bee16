package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/metricmuse/internal/nlp"
	"github.com/example/metricmuse/internal/textmetrics"
)

func newAnalyzeCommand() *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Print the metrics report for a file, or stdin when the file is - or omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			kit, err := nlp.Load()
			if err != nil {
				return fmt.Errorf("load nlp resources: %w", err)
			}
			report, err := textmetrics.NewAnalyzerFromToolkit(kit).Analyze(text)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(report)
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "print the report on a single line")
	return cmd
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}
