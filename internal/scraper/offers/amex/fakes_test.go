package amex

import (
	"errors"
	"time"

	"github.com/grez-lucas/amex-offers/internal/scraper/browser"
)

var errDetached = errors.New("node is detached from document")

// brokenDoc finds elements but every element it returns fails on read, as
// happens when the page navigates away mid-scan.
type brokenDoc struct {
	*browser.StaticDocument
}

func (d *brokenDoc) Query(selector string) (browser.Element, error) {
	el, err := d.StaticDocument.Query(selector)
	if el == nil || err != nil {
		return el, err
	}
	return failingElement{}, nil
}

type failingElement struct{}

func (failingElement) Query(string) (browser.Element, error)      { return nil, errDetached }
func (failingElement) QueryAll(string) ([]browser.Element, error) { return nil, errDetached }
func (failingElement) Text() (string, error)                      { return "", errDetached }
func (failingElement) Attr(string) (string, bool, error)          { return "", false, errDetached }
func (failingElement) Value() (string, error)                     { return "", errDetached }
func (failingElement) TagName() (string, error)                   { return "", errDetached }
func (failingElement) Disabled() (bool, error)                    { return false, errDetached }
func (failingElement) Click() error                               { return errDetached }
func (failingElement) SetValue(string) error                      { return errDetached }

// panickingElement panics on every call.
type panickingElement struct{}

func (panickingElement) Query(string) (browser.Element, error)      { panic("boom") }
func (panickingElement) QueryAll(string) ([]browser.Element, error) { panic("boom") }
func (panickingElement) Text() (string, error)                      { panic("boom") }
func (panickingElement) Attr(string) (string, bool, error)          { panic("boom") }
func (panickingElement) Value() (string, error)                     { panic("boom") }
func (panickingElement) TagName() (string, error)                   { panic("boom") }
func (panickingElement) Disabled() (bool, error)                    { panic("boom") }
func (panickingElement) Click() error                               { panic("boom") }
func (panickingElement) SetValue(string) error                      { panic("boom") }

// panickingDoc returns a panickingElement for every match.
type panickingDoc struct {
	*browser.StaticDocument
}

func (d *panickingDoc) Query(selector string) (browser.Element, error) {
	el, err := d.StaticDocument.Query(selector)
	if el == nil || err != nil {
		return el, err
	}
	return panickingElement{}, nil
}

// slowDoc delays every query, like a page busy with rendering.
type slowDoc struct {
	*browser.StaticDocument
	delay time.Duration
}

func (d *slowDoc) Query(selector string) (browser.Element, error) {
	time.Sleep(d.delay)
	return d.StaticDocument.Query(selector)
}
