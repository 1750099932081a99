package replication

import (
	"sync"

	zlogger "github.com/0chain/s3replicate/logger"
	"github.com/pterm/pterm"
)

type progress interface {
	Increment()
	Stop()
}

type barProgress struct {
	mu  sync.Mutex
	bar *pterm.ProgressbarPrinter
}

// newBarProgress draws a terminal progress bar; it degrades to log lines when
// the bar cannot be started.
func newBarProgress(title string, total int) progress {
	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(title).
		WithRemoveWhenDone(false).
		Start()
	if err != nil {
		zlogger.Logger.Debug().Err(err).Msg("progress bar unavailable")
		return newLogProgress(title, total)
	}
	return &barProgress{bar: bar}
}

func (p *barProgress) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bar.Increment()
}

func (p *barProgress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = p.bar.Stop()
}

// logProgress reports progress as "current/total" log lines every tenth of the job.
type logProgress struct {
	mu      sync.Mutex
	title   string
	total   int
	current int
	step    int
}

func newLogProgress(title string, total int) progress {
	step := total / 10
	if step < 1 {
		step = 1
	}
	return &logProgress{title: title, total: total, step: step}
}

func (p *logProgress) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	if p.current%p.step == 0 || p.current == p.total {
		zlogger.Logger.Info().Msgf("%v: %d/%d", p.title, p.current, p.total)
	}
}

func (p *logProgress) Stop() {}
