package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nana-tokenizers/nana/envconfig"
	"github.com/nana-tokenizers/nana/logutil"
	"github.com/nana-tokenizers/nana/modelfile"
)

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nana",
		Short: "Byte-level BPE tokenizer",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
			slog.SetDefault(logutil.NewLogger(cmd.ErrOrStderr(), envconfig.LogLevel()))
		},
	}

	cobra.EnableCommandSorting = false

	rootCmd.AddCommand(
		NewTrainCmd(),
		NewEncodeCmd(),
		NewInspectCmd(),
		NewEnvCmd(),
	)

	return rootCmd
}

func NewEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [TEXT...]",
		Short: "Encode text with a trained model",
		Long:  "Encode TEXT, or standard input when no TEXT is given, and print the token ids.",
		RunE:  encodeHandler,
	}

	cmd.Flags().StringP("model", "m", "", "Path to a .model or .cbor file")
	cmd.MarkFlagRequired("model")

	return cmd
}

func encodeHandler(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("model")
	tok, err := modelfile.Open(path)
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	if len(args) == 0 {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		text = string(b)
	}

	ids, err := tok.EncodeOrdinary(text)
	if err != nil {
		return err
	}

	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = fmt.Sprint(id)
	}

	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(fields, " "))
	return nil
}

func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the merges of a trained model",
		Args:  cobra.NoArgs,
		RunE:  inspectHandler,
	}

	cmd.Flags().StringP("model", "m", "", "Path to a .model or .cbor file")
	cmd.Flags().IntP("limit", "n", 0, "Show only the first N merges (0 shows all)")
	cmd.MarkFlagRequired("model")

	return cmd
}

func inspectHandler(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("model")
	limit, _ := cmd.Flags().GetInt("limit")

	tok, err := modelfile.Open(path)
	if err != nil {
		return err
	}

	merges := tok.Merges()
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "pattern     %s\n", tok.Pattern())
	fmt.Fprintf(w, "vocabulary  %d\n", tok.VocabSize())
	fmt.Fprintf(w, "merges      %d\n", len(merges))
	fmt.Fprintf(w, "special     %d\n\n", len(tok.SpecialTokens()))

	if limit > 0 && limit < len(merges) {
		merges = merges[:limit]
	}

	vocab := tok.Vocabulary()
	var data [][]string
	for _, m := range merges {
		data = append(data, []string{
			fmt.Sprint(m.ID),
			fmt.Sprint(m.Pair.A),
			fmt.Sprint(m.Pair.B),
			"[" + modelfile.RenderToken(vocab[m.ID]) + "]",
		})
	}

	renderTable(w, []string{"ID", "LEFT", "RIGHT", "TOKEN"}, data)
	return nil
}

func NewEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List environment variables and their current values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := envconfig.Values()

			var data [][]string
			for _, name := range []string{"NANA_DEBUG", "NANA_HOME", "NANA_PATTERN", "NANA_VOCAB_SIZE"} {
				data = append(data, []string{name, values[name], envconfig.AsMap()[name].Description})
			}

			renderTable(cmd.OutOrStdout(), []string{"NAME", "VALUE", "DESCRIPTION"}, data)
			return nil
		},
	}
}

func renderTable(w io.Writer, header []string, data [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}

// readInput returns the contents of path, or standard input for "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
