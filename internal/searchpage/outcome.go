// internal/searchpage/outcome.go
package searchpage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/searchprobe/internal/browser"
	"github.com/xkilldash9x/searchprobe/internal/waitutil"
)

// OutcomeKind is the completion state a search reached.
type OutcomeKind int

const (
	// OutcomeTimeout means no watched signal fired within its bound. It is
	// inconclusive, not an error.
	OutcomeTimeout OutcomeKind = iota
	OutcomeHasResults
	OutcomeExplicitEmpty
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeHasResults:
		return "has_results"
	case OutcomeExplicitEmpty:
		return "explicit_empty"
	default:
		return "timeout"
	}
}

// OutcomeSignal is the result of AwaitOutcome. Count is only meaningful for
// OutcomeHasResults.
type OutcomeSignal struct {
	Kind  OutcomeKind
	Count int
}

// HasResults builds a results signal.
func HasResults(n int) OutcomeSignal {
	return OutcomeSignal{Kind: OutcomeHasResults, Count: n}
}

var (
	ExplicitEmpty = OutcomeSignal{Kind: OutcomeExplicitEmpty}
	TimedOut      = OutcomeSignal{Kind: OutcomeTimeout}
)

func (s OutcomeSignal) String() string {
	if s.Kind == OutcomeHasResults {
		return fmt.Sprintf("%s(%d)", s.Kind, s.Count)
	}
	return s.Kind.String()
}

// AwaitOutcome waits until the search behind h signals completion or its
// bound elapses. It always returns within the configured bound.
func (p *SearchPage) AwaitOutcome(ctx context.Context, h SearchHandle) OutcomeSignal {
	if eh, ok := h.(EncapsulatedHandle); ok {
		return p.awaitInRoot(ctx, eh.Root)
	}
	return p.awaitInDocument(ctx)
}

func (p *SearchPage) awaitInRoot(ctx context.Context, root browser.Root) OutcomeSignal {
	signal := TimedOut
	_, err := waitutil.Poll(ctx, p.cfg.OutcomeInterval, p.cfg.OutcomeTimeout, func(ctx context.Context) (bool, error) {
		markers, err := root.Count(ctx, p.cfg.EmptyMarkerSelector)
		if err != nil {
			return false, err
		}
		if markers > 0 {
			signal = ExplicitEmpty
			return true, nil
		}
		items, err := root.Count(ctx, p.cfg.ResultItemSelector)
		if err != nil {
			return false, err
		}
		if items > 0 {
			signal = HasResults(items)
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		p.logger.Debug("Outcome polling interrupted.", zap.Error(err))
	}
	return signal
}

// awaitInDocument races the known completion signals of a plain render, each
// capped at the signal timeout.
func (p *SearchPage) awaitInDocument(ctx context.Context) OutcomeSignal {
	items := browser.CSS(p.cfg.ResultItemSelector)
	rows := browser.CSS(p.cfg.RowSelector)

	winner, err := waitutil.Race(ctx, p.cfg.SignalTimeout,
		p.shown(items),
		p.shown(browser.CSS(p.cfg.EmptyMarkerSelector)),
		p.shown(rows),
	)
	if err != nil {
		p.logger.Debug("Outcome race interrupted.", zap.Error(err))
		return TimedOut
	}

	switch winner {
	case 0:
		return HasResults(p.countOrZero(ctx, items.Visible()))
	case 1:
		return ExplicitEmpty
	case 2:
		// The first row is taken to be a header.
		return HasResults(max(0, p.countOrZero(ctx, rows.Visible())-1))
	default:
		return TimedOut
	}
}

// shown waits for any match of q to become visible. Hidden templates
// rendered ahead of time do not count as a signal.
func (p *SearchPage) shown(q browser.Query) waitutil.Wait {
	return func(ctx context.Context) error {
		return p.page.WaitFor(ctx, q, browser.StateVisible)
	}
}

func (p *SearchPage) countOrZero(ctx context.Context, q browser.Query) int {
	n, err := p.page.Count(ctx, q)
	if err != nil {
		p.logger.Debug("Count failed.", zap.Stringer("query", q), zap.Error(err))
		return 0
	}
	return n
}
