package output

import (
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"github.com/sdejongh/dirlink/pkg/models"
)

const (
	matchBarTemplate pb.ProgressBarTemplate = `{{string . "phase"}} {{counters . }} {{bar . }} {{percent . }} {{etime . }}`
	linkBarTemplate  pb.ProgressBarTemplate = `{{string . "phase"}} {{counters . }} {{bar . }} {{percent . }} {{speed . }}`
)

// refreshRate returns the bar redraw interval. Windows terminals have higher
// latency with ANSI sequences.
func refreshRate() time.Duration {
	if runtime.GOOS == "windows" {
		return 300 * time.Millisecond
	}
	return 100 * time.Millisecond
}

// ProgressFormatter shows progress bars for the match and link phases when
// writing to a terminal, and behaves like HumanFormatter otherwise
type ProgressFormatter struct {
	human *HumanFormatter

	mu          sync.Mutex
	writer      io.Writer
	interactive bool
	forced      bool
	width       int
	bar         *pb.ProgressBar
}

// NewProgressFormatter creates a new progress bar formatter
func NewProgressFormatter() *ProgressFormatter {
	return &ProgressFormatter{human: NewHumanFormatter()}
}

// SetInteractive forces bar rendering on or off regardless of the writer
func (f *ProgressFormatter) SetInteractive(interactive bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interactive = interactive
	f.forced = true
}

// Start initializes the formatter
func (f *ProgressFormatter) Start(writer io.Writer, op *models.Operation) error {
	if writer == nil {
		writer = os.Stdout
	}

	f.mu.Lock()
	f.writer = writer
	if file, ok := writer.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		if !f.forced {
			f.interactive = true
		}
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			f.width = width
		}
	}
	f.mu.Unlock()

	return f.human.Start(writer, op)
}

// Progress reports progress during the run
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	interactive := f.interactive
	f.mu.Unlock()

	if !interactive {
		return f.human.Progress(update)
	}

	switch update.Type {
	case UpdateMatchStart:
		f.human.Progress(update)
		f.startBar(matchBarTemplate, int64(update.Total), "Matching", false)

	case UpdateFileMatched:
		f.human.Progress(update)
		f.withBar(func(bar *pb.ProgressBar) { bar.Increment() })

	case UpdateLinkStart:
		f.finishBar()
		f.human.Progress(update)
		if update.Total > 0 {
			f.startBar(linkBarTemplate, update.TotalBytes, "Linking ", true)
		}

	case UpdateLinkComplete, UpdateLinkError:
		f.withBar(func(bar *pb.ProgressBar) { bar.Add64(update.TotalBytes) })

	case UpdateHashProgress, UpdateCompareError:
		// shown in the summary; printing here would break the bar

	default:
		f.human.Progress(update)
	}

	return nil
}

func (f *ProgressFormatter) startBar(tmpl pb.ProgressBarTemplate, total int64, phase string, bytes bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar != nil {
		f.bar.Finish()
	}

	bar := tmpl.New(0)
	bar.SetTotal(total)
	bar.SetWriter(f.writer)
	bar.SetRefreshRate(refreshRate())
	bar.Set("phase", phase)
	bar.Set(pb.Bytes, bytes)
	if f.width > 0 {
		bar.SetWidth(f.width)
	}
	f.bar = bar.Start()
}

func (f *ProgressFormatter) withBar(fn func(bar *pb.ProgressBar)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar != nil {
		fn(f.bar)
	}
}

func (f *ProgressFormatter) finishBar() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar != nil {
		f.bar.Finish()
		f.bar = nil
	}
}

// Complete finalizes bars and prints the summary
func (f *ProgressFormatter) Complete(report *models.RunReport) error {
	f.finishBar()
	return f.human.Complete(report)
}

// Error reports an error
func (f *ProgressFormatter) Error(err error) error {
	f.finishBar()
	return f.human.Error(err)
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}
