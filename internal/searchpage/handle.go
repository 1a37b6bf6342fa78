// internal/searchpage/handle.go
package searchpage

import "github.com/xkilldash9x/searchprobe/internal/browser"

// Kind tells which encapsulation strategy the search widget uses.
type Kind int

const (
	KindPlain Kind = iota
	KindEncapsulated
)

func (k Kind) String() string {
	if k == KindEncapsulated {
		return "encapsulated"
	}
	return "plain"
}

// SearchHandle points at the active search surface. It is resolved per
// operation and must not be kept across navigations.
type SearchHandle interface {
	Kind() Kind
	// Target names what the handle addresses: the component host for an
	// encapsulated surface, the input selector for a plain one.
	Target() string
}

// EncapsulatedHandle addresses the shadow root of the custom search component.
type EncapsulatedHandle struct {
	Host string
	Root browser.Root
}

func (h EncapsulatedHandle) Kind() Kind     { return KindEncapsulated }
func (h EncapsulatedHandle) Target() string { return h.Host }

// PlainHandle addresses a search input in the regular document.
type PlainHandle struct {
	Selector string
}

func (h PlainHandle) Kind() Kind     { return KindPlain }
func (h PlainHandle) Target() string { return h.Selector }
