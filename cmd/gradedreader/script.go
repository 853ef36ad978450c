package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leofalp/gradedreader/core/extract"
	"github.com/leofalp/gradedreader/core/panel"
	"github.com/leofalp/gradedreader/internal/utils"
)

func newRecoverCmd() *cobra.Command {
	var lenient bool

	cmd := &cobra.Command{
		Use:   "recover [file]",
		Short: "Extract the JSON document from raw model output",
		Long: `Reads model output from a file (or stdin when omitted or "-") and prints
the embedded JSON document in compact form.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			doc, err := extract.Recover(raw, extractOptions(lenient)...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(doc.Raw()))
			return err
		},
	}

	cmd.Flags().BoolVar(&lenient, "lenient", false, "repair malformed JSON as a last resort")
	return cmd
}

func newNormalizeCmd() *cobra.Command {
	var (
		lenient    bool
		sourceFile string
	)

	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Turn raw model output into the stored panel list",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			var source string
			if sourceFile != "" {
				data, err := os.ReadFile(sourceFile)
				if err != nil {
					return fmt.Errorf("read source: %w", err)
				}
				source = string(data)
			}

			seq, err := panel.FromResponse(raw, source, extractOptions(lenient)...)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), seq)
		},
	}

	cmd.Flags().BoolVar(&lenient, "lenient", false, "repair malformed JSON as a last resort")
	cmd.Flags().StringVar(&sourceFile, "source", "", "story text the script was generated from")
	return cmd
}

func extractOptions(lenient bool) []extract.Option {
	if lenient {
		return []extract.Option{extract.WithLenientRepair()}
	}
	return nil
}

// readInput returns the content of args[0], or stdin when no file or "-" is given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
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

func writeJSON(w io.Writer, v any) error {
	_, err := fmt.Fprintln(w, utils.JSONToString(v, true))
	return err
}
