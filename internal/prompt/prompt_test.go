package prompt

import (
	"strings"
	"testing"
)

func TestComposePersonalContext(t *testing.T) {
	tests := []struct {
		name    string
		context string
		want    bool
	}{
		{"absent", "", false},
		{"blank", "   \n\t", false},
		{"present", "I am a Go developer", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compose(Input{Query: "hi", PersonalContext: tt.context})
			has := strings.Contains(got, "Personal Context:")
			if has != tt.want {
				t.Errorf("personalization segment present = %v, want %v\n%s", has, tt.want, got)
			}
			if tt.want && !strings.HasPrefix(got, "Personal Context: I am a Go developer\n") {
				t.Errorf("personalization should be the first segment:\n%s", got)
			}
		})
	}
}

func TestComposeScreenContent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"absent", "", false},
		{"blank", "  ", false},
		{"sentinel", NoTextFound, false},
		{"text", "func main() {}", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compose(Input{ExtractedText: tt.text, HasImage: true})
			has := strings.Contains(got, "Screen Content Analysis:")
			if has != tt.want {
				t.Errorf("screen content segment present = %v, want %v\n%s", has, tt.want, got)
			}
			if tt.want && !strings.Contains(got, "---\nfunc main() {}\n---") {
				t.Errorf("extracted text should be framed by delimiter lines:\n%s", got)
			}
		})
	}
}

func TestComposeQueryImageTruthTable(t *testing.T) {
	branches := map[string]string{
		"query+image": "User Query about Screen Content: 'what is this?'",
		"query":       "User Query: 'what is this?'",
		"image":       "Please analyze this screenshot and provide insights",
		"none":        "Hello! I'm Glass, your AI assistant.",
	}

	tests := []struct {
		query    string
		hasImage bool
		want     string
	}{
		{"what is this?", true, "query+image"},
		{"what is this?", false, "query"},
		{"", true, "image"},
		{"   ", true, "image"},
		{"", false, "none"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := Compose(Input{Query: tt.query, HasImage: tt.hasImage})
			for name, marker := range branches {
				has := strings.Contains(got, marker)
				if name == tt.want && !has {
					t.Errorf("expected %s branch:\n%s", name, got)
				}
				if name != tt.want && has {
					t.Errorf("unexpected %s branch:\n%s", name, got)
				}
			}
		})
	}
}

func TestComposeGuidelinesAlwaysLast(t *testing.T) {
	inputs := []Input{
		{},
		{Query: "q"},
		{Query: "q", HasImage: true, ExtractedText: "text", PersonalContext: "ctx"},
		{ImageIssue: true, Query: "q"},
	}

	for _, in := range inputs {
		segs := Segments(in)
		if segs[len(segs)-1] != guidelines {
			t.Errorf("last segment for %+v = %q", in, segs[len(segs)-1])
		}
		if !strings.HasSuffix(Compose(in), "explain clearly") {
			t.Errorf("composed prompt for %+v should end with the guidelines", in)
		}
	}
}

func TestComposeOrderAndSeparator(t *testing.T) {
	got := Compose(Input{
		Query:           "why does it fail?",
		ExtractedText:   "panic: nil map",
		PersonalContext: "backend engineer",
		HasImage:        true,
	})

	segs := strings.Split(got, "\n\n")
	// The guidelines segment starts with a newline, so it splits into an
	// extra empty-prefixed piece; the first three must be in fixed order.
	if !strings.HasPrefix(segs[0], "Personal Context:") {
		t.Errorf("segment 0 = %q", segs[0])
	}
	if !strings.HasPrefix(segs[1], "Screen Content Analysis:") {
		t.Errorf("segment 1 = %q", segs[1])
	}
	if !strings.HasPrefix(segs[2], "User Query about Screen Content:") {
		t.Errorf("segment 2 = %q", segs[2])
	}
}

func TestComposeImageIssueNote(t *testing.T) {
	got := Compose(Input{Query: "help", ExtractedText: "ignored", ImageIssue: true})

	if !strings.Contains(got, "issue processing the screenshot") {
		t.Errorf("expected screenshot issue note:\n%s", got)
	}
	if strings.Contains(got, "Screen Content Analysis:") {
		t.Errorf("note must replace the screen content segment:\n%s", got)
	}
	if !strings.Contains(got, "User Query: 'help'") {
		t.Errorf("decode failure should fall back to the text-only branch:\n%s", got)
	}
}

func TestComposeDeterministic(t *testing.T) {
	in := Input{Query: "q", ExtractedText: "t", PersonalContext: "c", HasImage: true}
	if Compose(in) != Compose(in) {
		t.Fatal("Compose is not deterministic")
	}
}
