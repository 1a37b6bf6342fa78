// internal/browser/interfaces.go
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrNoElement is returned by element actions when the query matches nothing
// at the requested index.
var ErrNoElement = errors.New("browser: no element matches query")

// State is the element state awaited by Page.WaitFor.
type State int

const (
	// StateAttached waits for at least one match in the DOM.
	StateAttached State = iota
	// StateVisible waits for any match to be rendered and visible.
	StateVisible
)

func (s State) String() string {
	if s == StateVisible {
		return "visible"
	}
	return "attached"
}

// Query selects elements in a document or frame. CSS is required; the remaining
// fields narrow the match set in the order they appear.
type Query struct {
	CSS string `json:"css"`
	// HasText keeps elements whose rendered text contains this substring.
	HasText  string `json:"hasText,omitempty"`
	FoldCase bool   `json:"foldCase,omitempty"`
	// Deepest keeps only matches that contain no other match, so a text
	// query resolves to the innermost element carrying the text.
	Deepest     bool `json:"deepest,omitempty"`
	VisibleOnly bool `json:"visibleOnly,omitempty"`
	// Parent scopes CSS to descendants of the parent query's matches.
	// ParentNth picks one parent match; negative means all of them.
	Parent    *Query `json:"parent,omitempty"`
	ParentNth int    `json:"parentNth"`
}

// CSS is a plain selector query.
func CSS(selector string) Query { return Query{CSS: selector} }

// textScopeCSS is every element under body except those that never render
// text: their innerText is raw source.
const textScopeCSS = "body *:not(script):not(style):not(noscript):not(template)"

// Text matches the innermost rendered element under body whose text contains
// s, ignoring case.
func Text(s string) Query {
	return Query{CSS: textScopeCSS, HasText: s, FoldCase: true, Deepest: true}
}

// WithText returns a copy of q restricted to elements containing text.
func (q Query) WithText(text string) Query {
	q.HasText = text
	return q
}

// WithTextFold is WithText with case-insensitive matching.
func (q Query) WithTextFold(text string) Query {
	q.HasText = text
	q.FoldCase = true
	return q
}

// Visible returns a copy of q that keeps visible matches only.
func (q Query) Visible() Query {
	q.VisibleOnly = true
	return q
}

// Inside returns a copy of q scoped to the nth match of parent (all matches
// when nth is negative).
func (q Query) Inside(parent Query, nth int) Query {
	q.Parent = &parent
	q.ParentNth = nth
	return q
}

func (q Query) String() string {
	s := q.CSS
	if q.HasText != "" {
		s += `:has-text("` + q.HasText + `")`
	}
	if q.VisibleOnly {
		s += ":visible"
	}
	if q.Parent != nil {
		s = q.Parent.String() + " >> " + s
	}
	return s
}

// Scope is a document (main page or frame) elements can be queried in.
type Scope interface {
	Count(ctx context.Context, q Query) (int, error)
	// Visible reports whether the nth match exists and is visible.
	Visible(ctx context.Context, q Query, nth int) (bool, error)
	Text(ctx context.Context, q Query, nth int) (string, error)
	Click(ctx context.Context, q Query, nth int) error
}

// Page is a single browser tab.
type Page interface {
	Scope

	Navigate(ctx context.Context, url string) error
	// Fill replaces the value of the first match.
	Fill(ctx context.Context, q Query, value string) error
	// Press sends a named key ("Enter", "Tab", "Escape") or literal text to the first match.
	Press(ctx context.Context, q Query, key string) error
	// WaitFor blocks until q reaches state or ctx is done.
	WaitFor(ctx context.Context, q Query, state State) error
	// Frames lists the embedded frames of the current document.
	Frames(ctx context.Context) ([]Scope, error)
	// Evaluate runs an expression in the page and decodes its JSON value into out.
	Evaluate(ctx context.Context, script string, out interface{}) error
	// ShadowRoot returns the open shadow root of the first hostCSS match,
	// or nil when there is no such host or its root is closed.
	ShadowRoot(ctx context.Context, hostCSS string) (Root, error)
	Sleep(ctx context.Context, d time.Duration) error
}

// Root is a script-retained reference to a shadow root. Every method reports
// whether a target element was found instead of failing on a miss.
type Root interface {
	// Ref identifies the underlying remote object.
	Ref() string
	Count(ctx context.Context, css string) (int, error)
	Texts(ctx context.Context, css string, visibleOnly bool) ([]string, error)
	// SetValue sets the first match's value and dispatches a bubbling input event.
	SetValue(ctx context.Context, css, value string) (bool, error)
	Click(ctx context.Context, css string) (bool, error)
	// ClickIn clicks the first actionCSS element inside the first itemCSS match
	// whose text contains the given substring.
	ClickIn(ctx context.Context, itemCSS, contains, actionCSS string) (bool, error)
}
