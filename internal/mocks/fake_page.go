// File: internal/mocks/fake_page.go
package mocks

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/xkilldash9x/searchprobe/internal/browser"
)

// FakeElement is a node in the in-memory DOM used by FakePage.
type FakeElement struct {
	// Match lists the selectors this element answers to. Selectors with a
	// descendant combinator also match through ancestors, "body *"
	// matches every element, and trailing :not(x) clauses exclude elements
	// answering to x.
	Match    []string
	Text     string
	Value    string
	Hidden   bool
	Children []*FakeElement

	// OnClick runs after the element is clicked.
	OnClick func(p *FakePage)
	// OnKey runs after a key is pressed on the element.
	OnKey func(p *FakePage, key string)
}

// El builds an element with text and selectors.
func El(text string, match ...string) *FakeElement {
	return &FakeElement{Text: text, Match: match}
}

// With appends children and returns the element.
func (e *FakeElement) With(children ...*FakeElement) *FakeElement {
	e.Children = append(e.Children, children...)
	return e
}

// Hide marks the element hidden and returns it.
func (e *FakeElement) Hide() *FakeElement {
	e.Hidden = true
	return e
}

// Clicked sets OnClick and returns the element.
func (e *FakeElement) Clicked(fn func(p *FakePage)) *FakeElement {
	e.OnClick = fn
	return e
}

func (e *FakeElement) fullText() string {
	parts := []string{e.Text}
	for _, c := range e.Children {
		parts = append(parts, c.fullText())
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

type placed struct {
	el        *FakeElement
	ancestors []*FakeElement
}

func (p placed) visible() bool {
	if p.el.Hidden {
		return false
	}
	for _, a := range p.ancestors {
		if a.Hidden {
			return false
		}
	}
	return true
}

func (p placed) contains(other placed) bool {
	return slices.Contains(other.ancestors, p.el)
}

func flatten(elements []*FakeElement, ancestors []*FakeElement, out []placed) []placed {
	for _, el := range elements {
		out = append(out, placed{el: el, ancestors: ancestors})
		chain := append(slices.Clone(ancestors), el)
		out = flatten(el.Children, chain, out)
	}
	return out
}

// splitNot strips trailing :not(x) clauses from css and returns them.
func splitNot(css string) (string, []string) {
	var excluded []string
	for strings.HasSuffix(css, ")") {
		idx := strings.LastIndex(css, ":not(")
		if idx <= 0 {
			break
		}
		excluded = append(excluded, css[idx+len(":not("):len(css)-1])
		css = css[:idx]
	}
	return css, excluded
}

func matchesCSS(p placed, css string) bool {
	css, excluded := splitNot(css)
	for _, ex := range excluded {
		if slices.Contains(p.el.Match, ex) {
			return false
		}
	}
	if css == "body *" || slices.Contains(p.el.Match, css) {
		return true
	}
	idx := strings.LastIndex(css, " ")
	if idx <= 0 {
		return false
	}
	if !slices.Contains(p.el.Match, css[idx+1:]) {
		return false
	}
	outer := css[:idx]
	for i, a := range p.ancestors {
		if matchesCSS(placed{el: a, ancestors: p.ancestors[:i]}, outer) {
			return true
		}
	}
	return false
}

func containsText(text, needle string, fold bool) bool {
	if fold {
		return strings.Contains(strings.ToLower(text), strings.ToLower(needle))
	}
	return strings.Contains(text, needle)
}

// resolve applies browser.Query semantics to an element forest.
func resolve(elements []*FakeElement, q browser.Query) []placed {
	all := flatten(elements, nil, nil)

	candidates := all
	if q.Parent != nil {
		parents := resolve(elements, *q.Parent)
		if q.ParentNth >= 0 {
			if q.ParentNth < len(parents) {
				parents = parents[q.ParentNth : q.ParentNth+1]
			} else {
				parents = nil
			}
		}
		candidates = nil
		for _, c := range all {
			for _, par := range parents {
				if par.contains(c) {
					candidates = append(candidates, c)
					break
				}
			}
		}
	}

	var out []placed
	for _, c := range candidates {
		if !matchesCSS(c, q.CSS) {
			continue
		}
		if q.HasText != "" && !containsText(c.el.fullText(), q.HasText, q.FoldCase) {
			continue
		}
		out = append(out, c)
	}
	if q.Deepest {
		var deepest []placed
		for _, c := range out {
			inner := false
			for _, o := range out {
				if o.el != c.el && c.contains(o) {
					inner = true
					break
				}
			}
			if !inner {
				deepest = append(deepest, c)
			}
		}
		out = deepest
	}
	if q.VisibleOnly {
		out = slices.DeleteFunc(out, func(p placed) bool { return !p.visible() })
	}
	return out
}

// FakePage is an in-memory browser.Page. Element actions behave like the
// chromedp bridge: missing targets fail with browser.ErrNoElement and hidden
// targets block until the context is done.
type FakePage struct {
	mu       sync.Mutex
	elements []*FakeElement
	frames   []*FakeFrame
	roots    map[string]*FakeRoot
	events   []string
	sleeps   []time.Duration
	url      string
	timers   []*time.Timer

	// EvalFunc answers Evaluate. When nil, Evaluate records the call and
	// leaves out untouched.
	EvalFunc    func(p *FakePage, script string, out interface{}) error
	NavigateErr error
	OnNavigate  func(p *FakePage)
	// PollInterval is the cadence WaitFor re-checks the DOM at.
	PollInterval time.Duration
}

var _ browser.Page = (*FakePage)(nil)

// NewFakePage builds a page holding the given top-level elements.
func NewFakePage(elements ...*FakeElement) *FakePage {
	return &FakePage{
		elements:     elements,
		roots:        make(map[string]*FakeRoot),
		PollInterval: 5 * time.Millisecond,
	}
}

// Mutate runs fn with the page locked. fn must use the unlocked helpers
// (Add, Remove, SetRoot, AddFrame) only.
func (p *FakePage) Mutate(fn func(p *FakePage)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

// After schedules a mutation. Pending mutations are cancelled by Stop.
func (p *FakePage) After(d time.Duration, fn func(p *FakePage)) {
	t := time.AfterFunc(d, func() { p.Mutate(fn) })
	p.mu.Lock()
	p.timers = append(p.timers, t)
	p.mu.Unlock()
}

// Stop cancels pending mutations.
func (p *FakePage) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.timers {
		t.Stop()
	}
	p.timers = nil
}

// Add appends top-level elements. Call with the page locked (inside Mutate)
// or before the page is shared.
func (p *FakePage) Add(elements ...*FakeElement) {
	p.elements = append(p.elements, elements...)
}

// Remove drops every element (at any depth) carrying selector.
func (p *FakePage) Remove(selector string) {
	p.elements = removeMatching(p.elements, selector)
}

func removeMatching(elements []*FakeElement, selector string) []*FakeElement {
	kept := elements[:0:0]
	for _, el := range elements {
		if slices.Contains(el.Match, selector) {
			continue
		}
		el.Children = removeMatching(el.Children, selector)
		kept = append(kept, el)
	}
	return kept
}

// SetRoot attaches an open shadow root to hostCSS. A nil root removes it.
func (p *FakePage) SetRoot(hostCSS string, root *FakeRoot) {
	if root == nil {
		delete(p.roots, hostCSS)
		return
	}
	root.page = p
	p.roots[hostCSS] = root
}

// AddFrame attaches an embedded frame.
func (p *FakePage) AddFrame(frame *FakeFrame) {
	frame.page = p
	p.frames = append(p.frames, frame)
}

func (p *FakePage) record(event string) {
	p.events = append(p.events, event)
}

// Events returns the recorded action log.
func (p *FakePage) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.events)
}

// Sleeps returns the durations passed to Sleep.
func (p *FakePage) Sleeps() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.sleeps)
}

// URL returns the last navigated URL.
func (p *FakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Find returns the first element matching css, for assertions.
func (p *FakePage) Find(css string) *FakeElement {
	p.mu.Lock()
	defer p.mu.Unlock()
	if found := resolve(p.elements, browser.CSS(css)); len(found) > 0 {
		return found[0].el
	}
	return nil
}

func (p *FakePage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.url = url
	p.record("navigate:" + url)
	err := p.NavigateErr
	hook := p.OnNavigate
	p.mu.Unlock()
	if err != nil {
		return err
	}
	if hook != nil {
		p.Mutate(hook)
	}
	return nil
}

func (p *FakePage) Count(ctx context.Context, q browser.Query) (int, error) {
	return scopeCount(ctx, p, func() []*FakeElement { return p.elements }, q)
}

func (p *FakePage) Visible(ctx context.Context, q browser.Query, nth int) (bool, error) {
	return scopeVisible(ctx, p, func() []*FakeElement { return p.elements }, q, nth)
}

func (p *FakePage) Text(ctx context.Context, q browser.Query, nth int) (string, error) {
	return scopeText(ctx, p, func() []*FakeElement { return p.elements }, q, nth)
}

func (p *FakePage) Click(ctx context.Context, q browser.Query, nth int) error {
	return scopeAct(ctx, p, func() []*FakeElement { return p.elements }, q, nth, true, "click", func(el *FakeElement) func() {
		if el.OnClick == nil {
			return nil
		}
		return func() { el.OnClick(p) }
	})
}

func (p *FakePage) Fill(ctx context.Context, q browser.Query, value string) error {
	return scopeAct(ctx, p, func() []*FakeElement { return p.elements }, q, 0, true, "fill="+value, func(el *FakeElement) func() {
		el.Value = value
		return nil
	})
}

func (p *FakePage) Press(ctx context.Context, q browser.Query, key string) error {
	return scopeAct(ctx, p, func() []*FakeElement { return p.elements }, q, 0, true, "press="+key, func(el *FakeElement) func() {
		if el.OnKey == nil {
			return nil
		}
		return func() { el.OnKey(p, key) }
	})
}

func (p *FakePage) WaitFor(ctx context.Context, q browser.Query, state browser.State) error {
	interval := p.PollInterval
	if interval <= 0 {
		interval = 5 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		p.mu.Lock()
		found := resolve(p.elements, q)
		ready := len(found) > 0
		if state == browser.StateVisible {
			ready = slices.ContainsFunc(found, placed.visible)
		}
		p.mu.Unlock()
		if ready {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *FakePage) Frames(ctx context.Context) ([]browser.Scope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	scopes := make([]browser.Scope, len(p.frames))
	for i, f := range p.frames {
		scopes[i] = f
	}
	return scopes, nil
}

func (p *FakePage) Evaluate(ctx context.Context, script string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.record("evaluate")
	fn := p.EvalFunc
	p.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(p, script, out)
}

func (p *FakePage) ShadowRoot(ctx context.Context, hostCSS string) (browser.Root, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	root, ok := p.roots[hostCSS]
	if !ok {
		return nil, nil
	}
	if root.LookupErr != nil {
		return nil, root.LookupErr
	}
	return root, nil
}

func (p *FakePage) Sleep(ctx context.Context, d time.Duration) error {
	p.mu.Lock()
	p.sleeps = append(p.sleeps, d)
	p.mu.Unlock()
	return ctx.Err()
}

// FakeFrame is an embedded document exposed through FakePage.Frames.
type FakeFrame struct {
	Name     string
	Elements []*FakeElement
	page     *FakePage
}

var _ browser.Scope = (*FakeFrame)(nil)

func (f *FakeFrame) Count(ctx context.Context, q browser.Query) (int, error) {
	return scopeCount(ctx, f.page, func() []*FakeElement { return f.Elements }, q)
}

func (f *FakeFrame) Visible(ctx context.Context, q browser.Query, nth int) (bool, error) {
	return scopeVisible(ctx, f.page, func() []*FakeElement { return f.Elements }, q, nth)
}

func (f *FakeFrame) Text(ctx context.Context, q browser.Query, nth int) (string, error) {
	return scopeText(ctx, f.page, func() []*FakeElement { return f.Elements }, q, nth)
}

// Click synthesizes a click, so hidden targets are clicked too.
func (f *FakeFrame) Click(ctx context.Context, q browser.Query, nth int) error {
	return scopeAct(ctx, f.page, func() []*FakeElement { return f.Elements }, q, nth, false, "frame-click", func(el *FakeElement) func() {
		if el.OnClick == nil {
			return nil
		}
		return func() { el.OnClick(f.page) }
	})
}

func scopeCount(ctx context.Context, p *FakePage, elements func() []*FakeElement, q browser.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(resolve(elements(), q)), nil
}

func scopeVisible(ctx context.Context, p *FakePage, elements func() []*FakeElement, q browser.Query, nth int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	found := resolve(elements(), q)
	return nth < len(found) && found[nth].visible(), nil
}

func scopeText(ctx context.Context, p *FakePage, elements func() []*FakeElement, q browser.Query, nth int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	found := resolve(elements(), q)
	if nth >= len(found) {
		return "", fmt.Errorf("%w: %s [%d]", browser.ErrNoElement, q, nth)
	}
	return found[nth].el.fullText(), nil
}

// scopeAct resolves the nth match and applies act to it. act may return a
// callback, which runs after the page is unlocked.
func scopeAct(ctx context.Context, p *FakePage, elements func() []*FakeElement, q browser.Query, nth int,
	needVisible bool, label string, act func(el *FakeElement) func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	found := resolve(elements(), q)
	if nth >= len(found) {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s [%d]", browser.ErrNoElement, q, nth)
	}
	target := found[nth]
	if needVisible && !target.visible() {
		p.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}
	p.record(fmt.Sprintf("%s:%s", label, target.el.fullText()))
	after := act(target.el)
	p.mu.Unlock()

	if after != nil {
		after()
	}
	return nil
}

// FakeRoot is an in-memory browser.Root.
type FakeRoot struct {
	ID       string
	Elements []*FakeElement
	// Err fails every call on the root; LookupErr fails Page.ShadowRoot.
	Err       error
	LookupErr error
	page      *FakePage
}

var _ browser.Root = (*FakeRoot)(nil)

func (r *FakeRoot) Ref() string { return r.ID }

func (r *FakeRoot) lock(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.Err != nil {
		return nil, r.Err
	}
	if r.page == nil {
		return func() {}, nil
	}
	r.page.mu.Lock()
	return r.page.mu.Unlock, nil
}

func (r *FakeRoot) record(event string) {
	if r.page != nil {
		r.page.record(event)
	}
}

func (r *FakeRoot) Count(ctx context.Context, css string) (int, error) {
	unlock, err := r.lock(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()
	return len(resolve(r.Elements, browser.CSS(css))), nil
}

func (r *FakeRoot) Texts(ctx context.Context, css string, visibleOnly bool) ([]string, error) {
	unlock, err := r.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	q := browser.CSS(css)
	q.VisibleOnly = visibleOnly
	var texts []string
	for _, found := range resolve(r.Elements, q) {
		texts = append(texts, found.el.fullText())
	}
	return texts, nil
}

func (r *FakeRoot) SetValue(ctx context.Context, css, value string) (bool, error) {
	unlock, err := r.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()
	found := resolve(r.Elements, browser.CSS(css))
	if len(found) == 0 {
		return false, nil
	}
	found[0].el.Value = value
	r.record("root-input:" + value)
	return true, nil
}

func (r *FakeRoot) Click(ctx context.Context, css string) (bool, error) {
	return r.clickFirst(ctx, browser.CSS(css))
}

func (r *FakeRoot) ClickIn(ctx context.Context, itemCSS, contains, actionCSS string) (bool, error) {
	item := browser.CSS(itemCSS).WithText(contains)
	return r.clickFirst(ctx, browser.CSS(actionCSS).Inside(item, 0))
}

func (r *FakeRoot) clickFirst(ctx context.Context, q browser.Query) (bool, error) {
	unlock, err := r.lock(ctx)
	if err != nil {
		return false, err
	}
	found := resolve(r.Elements, q)
	if len(found) == 0 {
		unlock()
		return false, nil
	}
	el := found[0].el
	r.record("root-click:" + el.fullText())
	unlock()
	if el.OnClick != nil && r.page != nil {
		el.OnClick(r.page)
	}
	return true, nil
}
