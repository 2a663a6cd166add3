package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nana-tokenizers/nana/envconfig"
	"github.com/nana-tokenizers/nana/format"
	"github.com/nana-tokenizers/nana/modelfile"
	"github.com/nana-tokenizers/nana/progress"
	"github.com/nana-tokenizers/nana/tokenizer"
)

func NewTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train FILE",
		Short: "Learn merges from a text file",
		Long: `Learn merges from FILE, or standard input when FILE is "-".

Writes PREFIX.model (or PREFIX.cbor with --cbor) for loading and PREFIX.vocab for reading.`,
		Args: cobra.ExactArgs(1),
		RunE: trainHandler,
	}

	cmd.Flags().Int("vocab-size", envconfig.VocabSize, "Vocabulary size to train to, at least 256")
	cmd.Flags().String("pattern", envconfig.Pattern, "Split pattern (default GPT-4 pattern)")
	cmd.Flags().StringP("output", "o", "", "Output prefix (default FILE without its extension)")
	cmd.Flags().Bool("cbor", false, "Write the model as CBOR")
	cmd.Flags().BoolP("verbose", "v", false, "Log every merge")

	return cmd
}

func trainHandler(cmd *cobra.Command, args []string) error {
	vocabSize, _ := cmd.Flags().GetInt("vocab-size")
	pattern, _ := cmd.Flags().GetString("pattern")
	prefix, _ := cmd.Flags().GetString("output")
	useCBOR, _ := cmd.Flags().GetBool("cbor")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if prefix == "" {
		if args[0] == "-" {
			return errors.New("--output is required when reading standard input")
		}
		prefix = strings.TrimSuffix(args[0], filepath.Ext(args[0]))
	}

	text, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	tok, err := tokenizer.New(pattern)
	if err != nil {
		return err
	}

	opts := []tokenizer.TrainOption{tokenizer.WithVerbose(verbose)}

	var p *progress.Progress
	if f, ok := cmd.ErrOrStderr().(*os.File); ok && !verbose && term.IsTerminal(int(f.Fd())) {
		bar := progress.NewBar("training", "merges", vocabSize-256)
		p = progress.NewProgress(f)
		p.Add(bar)
		opts = append(opts, tokenizer.WithObserver(func(e tokenizer.MergeEvent) {
			bar.Set(e.Index)
		}))
	}

	start := time.Now()
	ambiguous, err := tok.TrainContext(cmd.Context(), text, vocabSize, opts...)
	if p != nil {
		if err != nil {
			p.StopAndClear()
		} else {
			p.Stop()
		}
	}

	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	if ambiguous {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: merge order was ambiguous for this text and vocabulary size;")
		fmt.Fprintln(cmd.ErrOrStderr(), "another implementation breaking ties differently may learn different merges")
	}

	modelPath := prefix + ".model"
	if useCBOR {
		modelPath = prefix + ".cbor"
	}

	if err := modelfile.Save(modelPath, tok); err != nil {
		return err
	}

	vocabPath := prefix + ".vocab"
	if err := writeVocab(vocabPath, tok); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "trained %s merges on %s in %s\n",
		format.HumanNumber(vocabSize-256), format.HumanBytes(int64(len(text))), format.HumanDuration(elapsed))
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", modelPath, vocabPath)
	return nil
}

func writeVocab(path string, tok *tokenizer.Tokenizer) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return modelfile.WriteVocab(f, tok)
}
