package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"mediarouter/internal/router"
)

// cliProgress renders search/execution progress to stderr: a spinner-
// style progressbar when stderr is a terminal, or plain log lines
// otherwise (redirected output, CI, a piped invocation).
type cliProgress struct {
	bar         *progressbar.ProgressBar
	interactive bool
}

var _ router.Progress = (*cliProgress)(nil)

func newCLIProgress() *cliProgress {
	interactive := isatty.IsTerminal(os.Stderr.Fd())
	var bar *progressbar.ProgressBar
	if interactive {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("searching"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
	}
	return &cliProgress{bar: bar, interactive: interactive}
}

func (p *cliProgress) OnPathAttempt(chain router.Chain) {
	if !p.interactive {
		fmt.Fprintln(os.Stderr, color.CyanString("trying: %s", describeChain(chain)))
		return
	}
	p.bar.Describe("trying " + describeChain(chain))
	_ = p.bar.Add(1)
}

func (p *cliProgress) OnStepStart(chain router.Chain, stepIndex int) {
	if stepIndex < 0 || stepIndex >= len(chain) {
		return
	}
	step := chain[stepIndex]
	if !p.interactive {
		fmt.Fprintln(os.Stderr, color.YellowString("  step %d/%d: %s -> %s", stepIndex+1, len(chain)-1, step.Handler.Name(), step.Format.MIME))
		return
	}
	p.bar.Describe(fmt.Sprintf("step %d/%d: %s", stepIndex+1, len(chain)-1, step.Handler.Name()))
	_ = p.bar.Add(1)
}

func (p *cliProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func describeChain(chain router.Chain) string {
	names := make([]string, len(chain))
	for i, n := range chain {
		names[i] = fmt.Sprintf("%s(%s)", n.Handler.Name(), n.Format.MIME)
	}
	return strings.Join(names, " -> ")
}
