package comment

import (
	"strings"
	"testing"
)

func TestDeriveShortcode(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "skips short words",
			text: "Good job on the citations",
			want: "Good citations",
		},
		{
			name: "first two long words",
			text: "Excellent argumentation, supported by sources.",
			want: "Excellent argumentation,",
		},
		{
			name: "all words too short",
			text: "a be ad ok",
			want: "",
		},
		{
			name: "empty text",
			text: "",
			want: "",
		},
		{
			name: "single qualifying word",
			text: "the citations",
			want: "citations",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveShortcode(tt.text); got != tt.want {
				t.Errorf("DeriveShortcode(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestDeriveShortcode_Truncates(t *testing.T) {
	text := strings.Repeat("x", 40) + " " + strings.Repeat("y", 40)
	got := DeriveShortcode(text)
	if len([]rune(got)) != ShortcodeMaxLen {
		t.Errorf("len = %d, want %d", len([]rune(got)), ShortcodeMaxLen)
	}
	if got != strings.Repeat("x", 30) {
		t.Errorf("got %q, want 30 x's", got)
	}
}

func TestSortDefault(t *testing.T) {
	comments := []Comment{
		{ID: "a", UsedCount: 1, CreatedAt: 100},
		{ID: "b", UsedCount: 3, CreatedAt: 50},
		{ID: "c", UsedCount: 1, CreatedAt: 200},
		{ID: "d", UsedCount: 0, CreatedAt: 999},
	}

	SortDefault(comments)

	wantOrder := []string{"b", "c", "a", "d"}
	for i, id := range wantOrder {
		if comments[i].ID != id {
			t.Fatalf("position %d = %q, want %q (full order: %v)", i, comments[i].ID, id, comments)
		}
	}
}

func TestTopByUsage(t *testing.T) {
	comments := []Comment{
		{ID: "a", UsedCount: 1},
		{ID: "b", UsedCount: 5},
		{ID: "c", UsedCount: 1},
		{ID: "d", UsedCount: 2},
	}

	top := TopByUsage(comments, 3)
	if len(top) != 3 {
		t.Fatalf("len = %d, want 3", len(top))
	}
	if top[0].ID != "b" || top[1].ID != "d" {
		t.Errorf("order = %v, want b, d first", top)
	}
	// Tie between a and c keeps input order.
	if top[2].ID != "a" {
		t.Errorf("tie order not stable: got %q, want a", top[2].ID)
	}

	// Input must not be reordered.
	if comments[0].ID != "a" || comments[3].ID != "d" {
		t.Error("TopByUsage mutated its input")
	}
}

func TestTopByUsage_LimitLargerThanSet(t *testing.T) {
	comments := []Comment{{ID: "a"}, {ID: "b"}}
	if got := TopByUsage(comments, 8); len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestSamples(t *testing.T) {
	samples := Samples()
	if len(samples) != 4 {
		t.Fatalf("len = %d, want 4", len(samples))
	}
	for _, s := range samples {
		if s.Text == "" || s.Shortcode == "" || s.Category == "" {
			t.Errorf("incomplete sample: %+v", s)
		}
		if s.Category == FilterAll {
			t.Errorf("sample stored with reserved category %q", FilterAll)
		}
	}
}
