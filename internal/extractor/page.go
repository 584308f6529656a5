package extractor

import "encoding/json"

// PageSession is a live rendered page. The headed crawl engine backs it with
// a real browser tab; tests back it with a scripted fake.
type PageSession interface {
	// URL returns the page's current address.
	URL() string
	// HTML returns the current serialized DOM.
	HTML() (string, error)
	// Eval runs a script in the page and returns its JSON-encoded result.
	Eval(js string) (json.RawMessage, error)
	// Elements returns every element matching the selector.
	Elements(selector string) ([]Element, error)
	// Element returns the first element matching the selector, or nil when
	// nothing matches.
	Element(selector string) (Element, error)
	// WaitStable blocks until network activity and DOM mutations quiesce,
	// or the session's own wait ceiling passes.
	WaitStable() error
	// ScrollToBottom scrolls the viewport to the document end.
	ScrollToBottom() error
	// NetworkExchanges returns the request/response pairs captured since
	// navigation started.
	NetworkExchanges() []NetworkExchange
}

// Element is a handle on a single DOM element.
type Element interface {
	Text() (string, error)
	Attribute(name string) (string, error)
	Visible() (bool, error)
	Click() error
	// Input types text into an input element.
	Input(text string) error
	// SelectOption picks an option on a select element.
	SelectOption(value string) error
	// Find returns the first descendant matching the selector, or nil.
	Find(selector string) (Element, error)
}

// NetworkExchange is one captured response with its request URL.
type NetworkExchange struct {
	URL         string
	ContentType string
	Body        []byte
}
