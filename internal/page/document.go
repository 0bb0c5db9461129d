// Package page models the receiving side of text insertion: an HTML
// document with editable fields, and the websocket agent that exposes
// it to the daemon.
package page

import (
	"strings"

	"golang.org/x/net/html"
)

// Field kinds.
const (
	KindInput           = "input"
	KindTextarea        = "textarea"
	KindContentEditable = "contenteditable"
)

// Field is one editable region of the document.
type Field struct {
	Kind  string
	Value string

	// Selection range in runes. Equal start and end is a caret.
	SelStart int
	SelEnd   int

	node *html.Node
}

// Event is a synthetic DOM-style event emitted after an insertion.
type Event struct {
	Type  string
	Field int
	Value string
}

// Document wraps a parsed HTML page and tracks focus across its
// editable fields.
type Document struct {
	root    *html.Node
	fields  []Field
	focused int // index into fields, -1 when nothing is focused

	events    []Event
	listeners []func(Event)
}

// Parse builds a Document from HTML source. Editable fields are
// collected in document order; a field carrying the autofocus attribute
// starts focused.
func Parse(src string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, err
	}

	doc := &Document{root: root, focused: -1}
	doc.collect(root)
	return doc, nil
}

func (d *Document) collect(n *html.Node) {
	if n.Type == html.ElementNode {
		switch {
		case n.Data == "input" && textualInput(attr(n, "type")):
			d.addField(Field{Kind: KindInput, Value: attr(n, "value"), node: n})
		case n.Data == "textarea":
			d.addField(Field{Kind: KindTextarea, Value: textContent(n), node: n})
		case attr(n, "contenteditable") == "true":
			d.addField(Field{Kind: KindContentEditable, Value: textContent(n), node: n})
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.collect(c)
	}
}

func (d *Document) addField(f Field) {
	// Caret starts at the end of any existing value.
	f.SelStart = len([]rune(f.Value))
	f.SelEnd = f.SelStart

	if hasAttr(f.node, "autofocus") && d.focused < 0 {
		d.focused = len(d.fields)
	}
	d.fields = append(d.fields, f)
}

// Fields returns a copy of the document's editable fields.
func (d *Document) Fields() []Field {
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// Focused returns the index of the focused field, or -1.
func (d *Document) Focused() int {
	return d.focused
}

// Focus moves focus to the field at index i.
func (d *Document) Focus(i int) {
	if i >= 0 && i < len(d.fields) {
		d.focused = i
	}
}

// Blur removes focus from all fields.
func (d *Document) Blur() {
	d.focused = -1
}

// Select sets the selection range of the field at index i.
// The range is clamped to the field's value.
func (d *Document) Select(i, start, end int) {
	if i < 0 || i >= len(d.fields) {
		return
	}

	length := len([]rune(d.fields[i].Value))
	start = clamp(start, 0, length)
	end = clamp(end, start, length)

	d.fields[i].SelStart = start
	d.fields[i].SelEnd = end
}

// OnInput registers a listener for synthetic input events.
func (d *Document) OnInput(fn func(Event)) {
	d.listeners = append(d.listeners, fn)
}

// Events returns the synthetic events emitted so far.
func (d *Document) Events() []Event {
	out := make([]Event, len(d.events))
	copy(out, d.events)
	return out
}

// InsertText splices text into the focused editable field, replacing
// the current selection and leaving the caret after the inserted text.
// Without a focused field it falls back to the first editable field.
// Returns false when the document has no editable field at all.
func (d *Document) InsertText(text string) bool {
	target := d.focused
	if target < 0 {
		if len(d.fields) == 0 {
			return false
		}
		// Fall back to the first editable field and focus it.
		target = 0
		d.focused = 0
	}

	f := &d.fields[target]
	runes := []rune(f.Value)
	inserted := []rune(text)

	value := make([]rune, 0, len(runes)+len(inserted))
	value = append(value, runes[:f.SelStart]...)
	value = append(value, inserted...)
	value = append(value, runes[f.SelEnd:]...)

	f.Value = string(value)
	f.SelStart += len(inserted)
	f.SelEnd = f.SelStart

	d.writeBack(f)

	// Value-carrying controls fire input events; contenteditable
	// regions do not take part in form change tracking.
	if f.Kind == KindInput || f.Kind == KindTextarea {
		d.emit(Event{Type: "input", Field: target, Value: f.Value})
	}

	return true
}

// writeBack pushes a field's value into the underlying parse tree so
// Render reflects the insertion.
func (d *Document) writeBack(f *Field) {
	switch f.Kind {
	case KindInput:
		setAttr(f.node, "value", f.Value)
	default:
		// textarea and contenteditable hold their value as text content
		for f.node.FirstChild != nil {
			f.node.RemoveChild(f.node.FirstChild)
		}
		f.node.AppendChild(&html.Node{Type: html.TextNode, Data: f.Value})
	}
}

func (d *Document) emit(e Event) {
	d.events = append(d.events, e)
	for _, fn := range d.listeners {
		fn(e)
	}
}

// Render serializes the document back to HTML.
func (d *Document) Render() (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, d.root); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// textualInput reports whether an input type holds free text.
// Buttons, checkboxes and the like are not insertion targets.
func textualInput(typ string) bool {
	switch typ {
	case "", "text", "search", "email", "url", "tel", "password", "number":
		return true
	}
	return false
}

// textContent concatenates the text of a node's descendant text nodes.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
