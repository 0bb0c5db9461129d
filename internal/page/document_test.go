package page

import (
	"strings"
	"testing"
)

func TestInsertText_FocusedTextarea(t *testing.T) {
	doc, err := Parse(`<html><body>
		<input type="text" value="ignored">
		<textarea autofocus>hello world</textarea>
	</body></html>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if doc.Focused() != 1 {
		t.Fatalf("Focused = %d, want the autofocus textarea", doc.Focused())
	}

	// Select "world" and replace it.
	doc.Select(1, 6, 11)
	if !doc.InsertText("there") {
		t.Fatal("InsertText should succeed")
	}

	fields := doc.Fields()
	if fields[1].Value != "hello there" {
		t.Errorf("Value = %q, want %q", fields[1].Value, "hello there")
	}
	// Caret sits right after the inserted text.
	if fields[1].SelStart != 11 || fields[1].SelEnd != 11 {
		t.Errorf("selection = [%d,%d], want caret at 11", fields[1].SelStart, fields[1].SelEnd)
	}
	// The untouched input keeps its value.
	if fields[0].Value != "ignored" {
		t.Errorf("input value = %q, should be untouched", fields[0].Value)
	}
}

func TestInsertText_CaretAppend(t *testing.T) {
	doc, err := Parse(`<textarea autofocus>abc</textarea>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// Caret defaults to the end of the value.
	if !doc.InsertText("def") {
		t.Fatal("InsertText should succeed")
	}
	if got := doc.Fields()[0].Value; got != "abcdef" {
		t.Errorf("Value = %q, want %q", got, "abcdef")
	}
}

func TestInsertText_FallbackToFirstEditable(t *testing.T) {
	doc, err := Parse(`<html><body>
		<p>not editable</p>
		<input type="text" value="">
		<textarea>second</textarea>
	</body></html>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if doc.Focused() != -1 {
		t.Fatalf("nothing should be focused, got %d", doc.Focused())
	}

	if !doc.InsertText("filled") {
		t.Fatal("InsertText should fall back to the first editable field")
	}

	fields := doc.Fields()
	if fields[0].Value != "filled" {
		t.Errorf("first field value = %q", fields[0].Value)
	}
	if fields[1].Value != "second" {
		t.Errorf("second field should be untouched, got %q", fields[1].Value)
	}
}

func TestInsertText_NoEditableFields(t *testing.T) {
	doc, err := Parse(`<html><body><p>just prose</p></body></html>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	before, err := doc.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if doc.InsertText("anything") {
		t.Error("InsertText should report false with no editable fields")
	}

	after, err := doc.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if before != after {
		t.Error("document should be unchanged")
	}
}

func TestInsertText_ContentEditable(t *testing.T) {
	doc, err := Parse(`<div contenteditable="true">draft</div>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	fields := doc.Fields()
	if len(fields) != 1 || fields[0].Kind != KindContentEditable {
		t.Fatalf("fields = %+v, want one contenteditable", fields)
	}

	doc.Focus(0)
	if !doc.InsertText(" final") {
		t.Fatal("InsertText should succeed")
	}
	if got := doc.Fields()[0].Value; got != "draft final" {
		t.Errorf("Value = %q", got)
	}

	// contenteditable regions do not fire input events.
	if len(doc.Events()) != 0 {
		t.Errorf("events = %v, want none", doc.Events())
	}
}

func TestInsertText_EmitsInputEvent(t *testing.T) {
	doc, err := Parse(`<input type="text" value="a" autofocus>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var seen []Event
	doc.OnInput(func(e Event) { seen = append(seen, e) })

	if !doc.InsertText("b") {
		t.Fatal("InsertText should succeed")
	}

	if len(seen) != 1 {
		t.Fatalf("listener saw %d events, want 1", len(seen))
	}
	if seen[0].Type != "input" || seen[0].Value != "ab" {
		t.Errorf("event = %+v", seen[0])
	}
	if len(doc.Events()) != 1 {
		t.Errorf("Events() = %v", doc.Events())
	}
}

func TestParse_SkipsNonTextInputs(t *testing.T) {
	doc, err := Parse(`<html><body>
		<input type="checkbox">
		<input type="submit" value="Go">
		<input type="email" value="a@b.c">
	</body></html>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	fields := doc.Fields()
	if len(fields) != 1 {
		t.Fatalf("fields = %+v, want only the email input", fields)
	}
	if fields[0].Value != "a@b.c" {
		t.Errorf("Value = %q", fields[0].Value)
	}
}

func TestRender_ReflectsInsertion(t *testing.T) {
	doc, err := Parse(`<textarea autofocus></textarea>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !doc.InsertText("rendered text") {
		t.Fatal("InsertText should succeed")
	}

	out, err := doc.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "rendered text") {
		t.Errorf("rendered document missing inserted text:\n%s", out)
	}
}
