package progress

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/nana-tokenizers/nana/format"
)

const defaultTermWidth = 80

// Bar tracks a count towards a fixed total, such as merges performed
// during training.
type Bar struct {
	mu sync.Mutex

	message string
	unit    string

	maxValue     int
	currentValue int

	started time.Time

	// width overrides the terminal width when positive
	width int
}

func NewBar(message, unit string, maxValue int) *Bar {
	return &Bar{
		message:  message,
		unit:     unit,
		maxValue: maxValue,
		started:  time.Now(),
	}
}

func (b *Bar) Set(value int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.currentValue = min(value, b.maxValue)
}

func (b *Bar) percent() float64 {
	if b.maxValue > 0 {
		return float64(b.currentValue) / float64(b.maxValue) * 100
	}

	return 100
}

// rate is the average number of units per second since the bar started.
func (b *Bar) rate() float64 {
	elapsed := time.Since(b.started).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(b.currentValue) / elapsed
}

func (b *Bar) termWidth() int {
	if b.width > 0 {
		return b.width
	}

	width, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil {
		return defaultTermWidth
	}
	return width
}

func (b *Bar) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var pre, mid, suf strings.Builder
	if b.message != "" {
		fmt.Fprintf(&pre, "%s ", strings.TrimSpace(b.message))
	}

	fmt.Fprintf(&pre, "%3.0f%% ", math.Floor(b.percent()))

	fmt.Fprintf(&suf, "(%s/%s %s", format.HumanNumber(b.currentValue), format.HumanNumber(b.maxValue), b.unit)
	if b.currentValue > 0 && b.currentValue < b.maxValue {
		fmt.Fprintf(&suf, ", %.0f/s", b.rate())
	}
	fmt.Fprintf(&suf, ") [%s]", format.HumanDuration(time.Since(b.started)))

	// 2 boundary characters and 1 space
	f := b.termWidth() - pre.Len() - suf.Len() - 3
	if f > 0 {
		n := int(float64(f) * b.percent() / 100)
		mid.WriteString("▕")
		mid.WriteString(strings.Repeat("█", n))
		mid.WriteString(strings.Repeat(" ", f-n))
		mid.WriteString("▏ ")
	}

	return pre.String() + mid.String() + suf.String()
}
