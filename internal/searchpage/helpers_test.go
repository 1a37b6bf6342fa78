// internal/searchpage/helpers_test.go
package searchpage

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/searchprobe/internal/browser"
	"github.com/xkilldash9x/searchprobe/internal/config"
	"github.com/xkilldash9x/searchprobe/internal/mocks"
)

const (
	componentTag = "md-stock-search-list"
	nameInput    = `input[placeholder*="Enter name"]`
)

// testConfig shrinks every bound so degraded paths finish quickly.
func testConfig() config.SearchConfig {
	cfg := config.DefaultSearchConfig()
	cfg.ProbeTimeout = 50 * time.Millisecond
	cfg.ProbeInterval = 5 * time.Millisecond
	cfg.FillTimeout = 100 * time.Millisecond
	cfg.FallbackFillTimeout = 100 * time.Millisecond
	cfg.OutcomeInterval = 5 * time.Millisecond
	cfg.OutcomeTimeout = 200 * time.Millisecond
	cfg.SignalTimeout = 200 * time.Millisecond
	cfg.ClickTimeout = 100 * time.Millisecond
	cfg.Overlay.DialogWait = 50 * time.Millisecond
	cfg.Overlay.ClickTimeout = 100 * time.Millisecond
	cfg.Overlay.PollInterval = 5 * time.Millisecond
	cfg.Overlay.PollTimeout = 100 * time.Millisecond
	return cfg
}

func newTestPage(t *testing.T, page browser.Page) *SearchPage {
	t.Helper()
	return New(page, testConfig(), zaptest.NewLogger(t))
}

// resultsTable renders a header row plus one row per name. Activating a row
// stores its name in activated.
func resultsTable(activated *string, names ...string) *mocks.FakeElement {
	table := mocks.El("", "table").With(mocks.El("Name Action", "tr"))
	for _, name := range names {
		name := name
		table.With(mocks.El(name, "tr").With(
			mocks.El("More information", "button").Clicked(func(*mocks.FakePage) { *activated = name }),
		))
	}
	return table
}

// plainSearchPage holds a plain search input that runs onEnter when Enter is
// pressed on it.
func plainSearchPage(onEnter func(p *mocks.FakePage)) *mocks.FakePage {
	input := mocks.El("", nameInput, "input")
	input.OnKey = func(p *mocks.FakePage, key string) {
		if key == enterKey && onEnter != nil {
			p.Mutate(onEnter)
		}
	}
	return mocks.NewFakePage(input)
}

// shadowSearchPage holds the custom component with an open root containing an
// input and, optionally, a submit control that runs onSubmit.
func shadowSearchPage(withSubmit bool, onSubmit func(root *mocks.FakeRoot)) (*mocks.FakePage, *mocks.FakeRoot) {
	root := &mocks.FakeRoot{ID: "shadow-root-1"}
	root.Elements = []*mocks.FakeElement{mocks.El("", "input")}
	if withSubmit {
		root.Elements = append(root.Elements, mocks.El("Search", `button[type="submit"]`).Clicked(func(p *mocks.FakePage) {
			if onSubmit != nil {
				p.Mutate(func(*mocks.FakePage) { onSubmit(root) })
			}
		}))
	}
	page := mocks.NewFakePage(mocks.El("", componentTag))
	page.SetRoot(componentTag, root)
	return page, root
}

func resultItem(activated *string, name string) *mocks.FakeElement {
	return mocks.El(name, ".search-result-item").With(
		mocks.El("More information", "button").Clicked(func(*mocks.FakePage) { *activated = name }),
	)
}
