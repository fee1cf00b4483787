package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// clickTimeout bounds the wait for an element to become interactable before
// falling back to a scripted click.
const clickTimeout = 5 * time.Second

// RodDocument adapts a live Rod page to Document.
type RodDocument struct {
	page *rod.Page
}

// NewRodDocument wraps page.
func NewRodDocument(page *rod.Page) *RodDocument {
	return &RodDocument{page: page}
}

// Page exposes the underlying Rod page.
func (d *RodDocument) Page() *rod.Page {
	return d.page
}

func (d *RodDocument) Query(selector string) (Element, error) {
	found, el, err := d.page.Has(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	if !found {
		return nil, nil
	}
	return &rodElement{el: el}, nil
}

func (d *RodDocument) QueryAll(selector string) ([]Element, error) {
	els, err := d.page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("query all %q: %w", selector, err)
	}
	return wrapRodElements(els), nil
}

func (d *RodDocument) URL() (string, error) {
	info, err := d.page.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// Dismiss presses Escape and clicks the body, which collapses the card
// dropdown on the offers page.
func (d *RodDocument) Dismiss() error {
	if err := d.page.Keyboard.Press(input.Escape); err != nil {
		return fmt.Errorf("press escape: %w", err)
	}
	if _, err := d.page.Eval(`() => document.body && document.body.click()`); err != nil {
		return fmt.Errorf("click body: %w", err)
	}
	return nil
}

type rodElement struct {
	el *rod.Element
}

// WrapElement adapts a Rod element to Element.
func WrapElement(el *rod.Element) Element {
	return &rodElement{el: el}
}

func wrapRodElements(els rod.Elements) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out
}

func (e *rodElement) Query(selector string) (Element, error) {
	found, el, err := e.el.Has(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	if !found {
		return nil, nil
	}
	return &rodElement{el: el}, nil
}

func (e *rodElement) QueryAll(selector string) ([]Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("query all %q: %w", selector, err)
	}
	return wrapRodElements(els), nil
}

func (e *rodElement) Text() (string, error) {
	res, err := e.el.Eval(`() => this.textContent || ""`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e *rodElement) Attr(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *rodElement) Value() (string, error) {
	v, err := e.el.Property("value")
	if err != nil {
		return "", err
	}
	if v.Nil() {
		return "", nil
	}
	return v.Str(), nil
}

func (e *rodElement) TagName() (string, error) {
	res, err := e.el.Eval(`() => this.tagName`)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(res.Value.Str()), nil
}

func (e *rodElement) Disabled() (bool, error) {
	prop, err := e.el.Property("disabled")
	if err != nil {
		return false, err
	}
	if prop.Bool() {
		return true, nil
	}
	_, present, err := e.Attr("disabled")
	return present, err
}

// Click uses a real mouse click and falls back to HTMLElement.click() when the
// element is covered or not interactable (e.g. inside a closed dropdown).
func (e *rodElement) Click() error {
	el := e.el.Timeout(clickTimeout)
	defer el.CancelTimeout()
	if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
		return nil
	}
	if _, err := e.el.Eval(`() => this.click()`); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

func (e *rodElement) SetValue(value string) error {
	_, err := e.el.Eval(`(v) => {
		this.value = v;
		this.dispatchEvent(new Event('change', { bubbles: true }));
		this.dispatchEvent(new Event('input', { bubbles: true }));
	}`, value)
	if err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	return nil
}
