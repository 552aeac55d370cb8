package router

import "runtime"

// Progress is the observer surface the searcher and executor use to
// report the chain currently under trial and the step currently
// executing. Neither method may block semantically: they may log,
// render, or yield, but they must not cancel or otherwise influence the
// search.
type Progress interface {
	// OnPathAttempt is invoked once per candidate chain, before any of
	// its hops execute.
	OnPathAttempt(chain Chain)

	// OnStepStart is invoked once per hop, before that hop's Convert
	// call. Implementations that need to let a host repaint should do
	// so here; NoopProgress yields the goroutine as the closest
	// single-process stand-in for a browser repaint barrier.
	OnStepStart(chain Chain, stepIndex int)
}

// NoopProgress is a Progress implementation that only yields the
// scheduler before each step, matching spec §9's note that outside a
// browser the repaint barrier degenerates to a scheduler yield.
type NoopProgress struct{}

func (NoopProgress) OnPathAttempt(Chain)    {}
func (NoopProgress) OnStepStart(Chain, int) { runtime.Gosched() }

// FuncProgress adapts two plain functions into a Progress, for callers
// that only care about one of the two callbacks.
type FuncProgress struct {
	Attempt func(chain Chain)
	Step    func(chain Chain, stepIndex int)
}

func (f FuncProgress) OnPathAttempt(chain Chain) {
	if f.Attempt != nil {
		f.Attempt(chain)
	}
	runtime.Gosched()
}

func (f FuncProgress) OnStepStart(chain Chain, stepIndex int) {
	if f.Step != nil {
		f.Step(chain, stepIndex)
	}
	runtime.Gosched()
}
