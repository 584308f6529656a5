package headed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"careerscout/internal/extractor"
)

// Sub-resource types blocked during rendering. None of them carry job
// content and skipping them cuts page load time sharply.
var blockedResourceTypes = map[proto.NetworkResourceType]bool{
	proto.NetworkResourceTypeImage:      true,
	proto.NetworkResourceTypeFont:       true,
	proto.NetworkResourceTypeStylesheet: true,
	proto.NetworkResourceTypeMedia:      true,
}

// Request URL tokens whose JSON responses are captured for the network
// extraction technique.
var capturedURLTokens = []string{"job", "career", "position", "vacan", "opening", "/api/", "graphql"}

const defaultStableTimeout = 5 * time.Second

// Session is a live rod page implementing the extractor's page contract.
// It blocks non-essential sub-resources and records job-related JSON
// responses as they stream past.
type Session struct {
	instance *BrowserInstance
	router   *rod.HijackRouter
	url      string

	stableTimeout time.Duration

	mu       sync.Mutex
	captured []extractor.NetworkExchange
}

// NewSession wires interception onto the instance's page. Call Navigate
// afterwards; exchanges start being captured immediately.
func NewSession(instance *BrowserInstance) *Session {
	s := &Session{
		instance:      instance,
		stableTimeout: defaultStableTimeout,
	}

	router := instance.Page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if blockedResourceTypes[h.Request.Type()] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}

		requestURL := h.Request.URL().String()
		if shouldCapture(h.Request.Type(), requestURL) {
			if err := h.LoadResponse(http.DefaultClient, true); err != nil {
				h.Response.Fail(proto.NetworkErrorReasonFailed)
				return
			}
			s.record(extractor.NetworkExchange{
				URL:         requestURL,
				ContentType: h.Response.Headers().Get("Content-Type"),
				Body:        []byte(h.Response.Body()),
			})
			return
		}

		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	s.router = router

	return s
}

func shouldCapture(resType proto.NetworkResourceType, url string) bool {
	if resType != proto.NetworkResourceTypeXHR && resType != proto.NetworkResourceTypeFetch {
		return false
	}
	lower := strings.ToLower(url)
	for _, token := range capturedURLTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func (s *Session) record(exchange extractor.NetworkExchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captured = append(s.captured, exchange)
}

// Navigate loads the URL and waits for the load event, bounded by timeout.
func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := rod.Try(func() {
		s.instance.Page.Context(navCtx).MustNavigate(url).MustWaitLoad()
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	s.url = url
	return nil
}

// Close stops interception and releases the browser instance.
func (s *Session) Close() {
	if s.router != nil {
		_ = s.router.Stop()
	}
	s.instance.Release()
}

// URL returns the page's current address.
func (s *Session) URL() string {
	var current string
	err := rod.Try(func() {
		current = s.instance.Page.MustInfo().URL
	})
	if err != nil || current == "" || current == "about:blank" {
		return s.url
	}
	return current
}

// HTML returns the serialized DOM.
func (s *Session) HTML() (string, error) {
	html, err := s.instance.Page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get page HTML: %w", err)
	}
	return html, nil
}

// Eval runs a script in the page and returns its JSON-encoded result.
func (s *Session) Eval(js string) (json.RawMessage, error) {
	result, err := s.instance.Page.Eval(js)
	if err != nil {
		return nil, fmt.Errorf("page eval failed: %w", err)
	}
	raw, err := result.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode eval result: %w", err)
	}
	return raw, nil
}

// Elements returns every element matching the selector without waiting.
func (s *Session) Elements(selector string) ([]extractor.Element, error) {
	elements, err := s.instance.Page.Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]extractor.Element, 0, len(elements))
	for _, el := range elements {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

// Element returns the first match, or nil when the selector matches nothing.
func (s *Session) Element(selector string) (extractor.Element, error) {
	elements, err := s.instance.Page.Elements(selector)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, nil
	}
	return &rodElement{el: elements.First()}, nil
}

// WaitStable blocks until the DOM stops mutating, bounded by the session's
// wait ceiling. Timing out here is not an error: a busy page simply stays
// busy.
func (s *Session) WaitStable() error {
	_ = rod.Try(func() {
		s.instance.Page.Timeout(s.stableTimeout).MustWaitStable()
	})
	return nil
}

// ScrollToBottom scrolls the viewport to the document end.
func (s *Session) ScrollToBottom() error {
	return rod.Try(func() {
		s.instance.Page.MustEval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	})
}

// NetworkExchanges returns the captured request/response pairs.
func (s *Session) NetworkExchanges() []extractor.NetworkExchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]extractor.NetworkExchange, len(s.captured))
	copy(out, s.captured)
	return out
}

// rodElement adapts a rod element to the extractor's element contract.
type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Attribute(name string) (string, error) {
	value, err := e.el.Attribute(name)
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

func (e *rodElement) Visible() (bool, error) {
	return e.el.Visible()
}

func (e *rodElement) Click() error {
	return rod.Try(func() {
		e.el.MustClick()
	})
}

func (e *rodElement) Input(text string) error {
	return rod.Try(func() {
		e.el.MustSelectAllText().MustInput(text)
	})
}

func (e *rodElement) SelectOption(value string) error {
	return e.el.Select([]string{value}, true, rod.SelectorTypeText)
}

func (e *rodElement) Find(selector string) (extractor.Element, error) {
	elements, err := e.el.Elements(selector)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, nil
	}
	return &rodElement{el: elements.First()}, nil
}
