package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nana-tokenizers/nana/logutil"
)

const defaultVocabSize = 512

var (
	// Set via NANA_DEBUG in the environment
	Debug int
	// Set via NANA_HOME in the environment
	Home string
	// Set via NANA_PATTERN in the environment
	Pattern string
	// Set via NANA_VOCAB_SIZE in the environment
	VocabSize int
)

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"NANA_DEBUG":      {"NANA_DEBUG", Debug, "Show additional debug information (1 for debug, 2 for trace)"},
		"NANA_HOME":       {"NANA_HOME", Home, "Directory holding the .env file (default ~/.nana)"},
		"NANA_PATTERN":    {"NANA_PATTERN", Pattern, "Split pattern used when --pattern is not given"},
		"NANA_VOCAB_SIZE": {"NANA_VOCAB_SIZE", VocabSize, fmt.Sprintf("Vocabulary size used when --vocab-size is not given (default %d)", defaultVocabSize)},
	}
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// LogLevel is the slog level selected by NANA_DEBUG.
func LogLevel() slog.Level {
	return logutil.Level(Debug)
}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

func init() {
	LoadConfig()
}

func LoadConfig() {
	Debug = 0
	if debug := clean("NANA_DEBUG"); debug != "" {
		if n, err := strconv.Atoi(debug); err == nil {
			Debug = n
		} else if b, err := strconv.ParseBool(debug); err == nil {
			if b {
				Debug = 1
			}
		} else {
			Debug = 1
		}
	}

	Home = clean("NANA_HOME")
	if Home == "" {
		if home, err := os.UserHomeDir(); err == nil {
			Home = filepath.Join(home, ".nana")
		} else {
			slog.Error("failed to lookup home directory", "error", err)
		}
	}

	// not cleaned: quotes and spaces are meaningful in a pattern
	Pattern = os.Getenv("NANA_PATTERN")

	VocabSize = defaultVocabSize
	if vs := clean("NANA_VOCAB_SIZE"); vs != "" {
		n, err := strconv.Atoi(vs)
		if err != nil || n < 256 {
			slog.Error("invalid setting, must be at least 256", "NANA_VOCAB_SIZE", vs, "error", err)
		} else {
			VocabSize = n
		}
	}
}
