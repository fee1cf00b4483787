package browser

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Event types dispatched by StaticDocument.
const (
	EventClick   = "click"
	EventChange  = "change"
	EventInput   = "input"
	EventDismiss = "dismiss"
)

// Handler reacts to an event on a StaticDocument. It may mutate the document
// through doc.Find, which is how tests emulate the page's own scripts.
type Handler func(doc *StaticDocument, target *goquery.Selection)

// Event is a recorded interaction.
type Event struct {
	Type  string
	Tag   string
	Text  string
	Value string
}

type handler struct {
	event    string
	selector string
	fn       Handler
}

// StaticDocument is a Document over parsed HTML. It has no scripts of its
// own; behaviour is attached with On. Used for tests and for offline scans
// of captured pages.
type StaticDocument struct {
	doc *goquery.Document
	url string

	mu       sync.Mutex
	handlers []handler
	events   []Event
}

// StaticOption configures a StaticDocument.
type StaticOption func(*StaticDocument)

// WithURL sets the URL reported by the document.
func WithURL(url string) StaticOption {
	return func(d *StaticDocument) {
		d.url = url
	}
}

// NewStaticDocument parses html.
func NewStaticDocument(html string, opts ...StaticOption) (*StaticDocument, error) {
	return NewStaticDocumentFromReader(strings.NewReader(html), opts...)
}

// NewStaticDocumentFromReader parses HTML from r.
func NewStaticDocumentFromReader(r io.Reader, opts ...StaticOption) (*StaticDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	d := &StaticDocument{doc: doc}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// On registers fn for event on elements matching selector. An empty selector
// matches any target.
func (d *StaticDocument) On(event, selector string, fn Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, handler{event: event, selector: selector, fn: fn})
}

// Find exposes the underlying document for handlers and assertions.
func (d *StaticDocument) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Events returns the recorded events of the given type, or all events when
// typ is empty.
func (d *StaticDocument) Events(typ string) []Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []Event
	for _, e := range d.events {
		if typ == "" || e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func (d *StaticDocument) Query(selector string) (Element, error) {
	return queryFirst(d, d.doc.Selection, selector)
}

func (d *StaticDocument) QueryAll(selector string) ([]Element, error) {
	return queryAll(d, d.doc.Selection, selector)
}

func (d *StaticDocument) URL() (string, error) {
	return d.url, nil
}

func (d *StaticDocument) Dismiss() error {
	d.dispatch(EventDismiss, d.doc.Find("body"))
	return nil
}

func (d *StaticDocument) dispatch(event string, target *goquery.Selection) {
	d.mu.Lock()
	d.events = append(d.events, Event{
		Type:  event,
		Tag:   strings.ToUpper(goquery.NodeName(target)),
		Text:  strings.TrimSpace(target.Text()),
		Value: target.AttrOr("value", ""),
	})
	var matched []Handler
	for _, h := range d.handlers {
		if h.event != event {
			continue
		}
		if h.selector == "" || target.Is(h.selector) {
			matched = append(matched, h.fn)
		}
	}
	d.mu.Unlock()

	// Handlers run unlocked so they can register handlers or read events.
	for _, fn := range matched {
		fn(d, target)
	}
}

func validSelector(selector string) error {
	if _, err := cascadia.ParseGroup(selector); err != nil {
		return fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return nil
}

func queryFirst(d *StaticDocument, root *goquery.Selection, selector string) (Element, error) {
	if err := validSelector(selector); err != nil {
		return nil, err
	}
	match := root.Find(selector).First()
	if match.Length() == 0 {
		return nil, nil
	}
	return &staticElement{doc: d, sel: match}, nil
}

func queryAll(d *StaticDocument, root *goquery.Selection, selector string) ([]Element, error) {
	if err := validSelector(selector); err != nil {
		return nil, err
	}
	var out []Element
	root.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &staticElement{doc: d, sel: s})
	})
	return out, nil
}

type staticElement struct {
	doc *StaticDocument
	sel *goquery.Selection
}

func (e *staticElement) Query(selector string) (Element, error) {
	return queryFirst(e.doc, e.sel, selector)
}

func (e *staticElement) QueryAll(selector string) ([]Element, error) {
	return queryAll(e.doc, e.sel, selector)
}

func (e *staticElement) Text() (string, error) {
	return e.sel.Text(), nil
}

func (e *staticElement) Attr(name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func (e *staticElement) Value() (string, error) {
	switch goquery.NodeName(e.sel) {
	case "option":
		if v, ok := e.sel.Attr("value"); ok {
			return v, nil
		}
		return strings.TrimSpace(e.sel.Text()), nil
	case "select":
		opt := e.sel.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = e.sel.Find("option").First()
		}
		if opt.Length() == 0 {
			return "", nil
		}
		return (&staticElement{doc: e.doc, sel: opt}).Value()
	default:
		return e.sel.AttrOr("value", ""), nil
	}
}

func (e *staticElement) TagName() (string, error) {
	return strings.ToUpper(goquery.NodeName(e.sel)), nil
}

func (e *staticElement) Disabled() (bool, error) {
	_, ok := e.sel.Attr("disabled")
	return ok, nil
}

func (e *staticElement) Click() error {
	e.doc.dispatch(EventClick, e.sel)
	return nil
}

func (e *staticElement) SetValue(value string) error {
	if goquery.NodeName(e.sel) == "select" {
		e.sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
			v, _ := (&staticElement{doc: e.doc, sel: opt}).Value()
			if v == value {
				opt.SetAttr("selected", "")
			} else {
				opt.RemoveAttr("selected")
			}
		})
	}
	e.sel.SetAttr("value", value)
	e.doc.dispatch(EventChange, e.sel)
	e.doc.dispatch(EventInput, e.sel)
	return nil
}
