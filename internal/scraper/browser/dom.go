// Package browser provides the DOM access used by the offer automation,
// backed either by a live Rod page or by a static goquery document.
package browser

// Document is the page the automation reads and acts on.
type Document interface {
	// Query returns the first element matching selector, or nil without an
	// error when nothing matches. It does not wait.
	Query(selector string) (Element, error)
	// QueryAll returns every match in document order.
	QueryAll(selector string) ([]Element, error)
	// URL returns the current page URL.
	URL() (string, error)
	// Dismiss closes transient popups such as an expanded dropdown.
	Dismiss() error
}

// Element is a handle to a node owned by the page. Handles can go stale when
// the page re-renders; callers re-query instead of caching them.
type Element interface {
	Query(selector string) (Element, error)
	QueryAll(selector string) ([]Element, error)
	// Text returns the text content, untrimmed.
	Text() (string, error)
	// Attr returns the attribute value and whether it is present.
	Attr(name string) (string, bool, error)
	// Value returns the native value property (option and form controls).
	Value() (string, error)
	// TagName returns the upper-case tag name, e.g. "SELECT".
	TagName() (string, error)
	// Disabled reports the native disabled property or attribute.
	Disabled() (bool, error)
	Click() error
	// SetValue assigns the native value and dispatches bubbling change and
	// input events.
	SetValue(value string) error
}
