package progress

import (
	"bufio"
	"fmt"
	"io"
	"sync"
	"time"
)

type State interface {
	String() string
}

// Progress redraws its states in place on a terminal until stopped.
type Progress struct {
	mu sync.Mutex
	// buffer output to minimize flickering on all terminals
	w *bufio.Writer

	pos int

	ticker *time.Ticker
	done   chan struct{}
	states []State
}

func NewProgress(w io.Writer) *Progress {
	p := &Progress{
		w:      bufio.NewWriter(w),
		ticker: time.NewTicker(100 * time.Millisecond),
		done:   make(chan struct{}),
	}

	// hide cursor
	fmt.Fprint(p.w, "\033[?25l")
	go p.start()
	return p
}

func (p *Progress) stop() bool {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return false
	}

	p.ticker.Stop()
	p.ticker = nil
	close(p.done)
	p.mu.Unlock()

	p.render()
	return true
}

// Stop renders the final state and leaves it on screen.
func (p *Progress) Stop() bool {
	stopped := p.stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	if stopped {
		fmt.Fprintln(p.w)
	}

	// show cursor
	fmt.Fprint(p.w, "\033[?25h")
	p.w.Flush()
	return stopped
}

// StopAndClear erases every progress line.
func (p *Progress) StopAndClear() bool {
	stopped := p.stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	if stopped {
		for range p.pos - 1 {
			fmt.Fprint(p.w, "\033[A")
		}

		fmt.Fprint(p.w, "\033[2K", "\033[1G")
	}

	// show cursor
	fmt.Fprint(p.w, "\033[?25h")
	p.w.Flush()
	return stopped
}

func (p *Progress) Add(state State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.states = append(p.states, state)
}

func (p *Progress) render() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for range p.pos - 1 {
		fmt.Fprint(p.w, "\033[A")
	}

	fmt.Fprint(p.w, "\033[1G")
	for i, state := range p.states {
		fmt.Fprint(p.w, state.String(), "\033[K")
		if i < len(p.states)-1 {
			fmt.Fprint(p.w, "\n")
		}
	}

	p.pos = len(p.states)
	p.w.Flush()
}

func (p *Progress) start() {
	p.mu.Lock()
	ticker := p.ticker
	p.mu.Unlock()
	if ticker == nil {
		return
	}

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.render()
		}
	}
}
