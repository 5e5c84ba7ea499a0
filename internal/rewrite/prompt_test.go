package rewrite

import (
	"strings"
	"testing"

	"github.com/nandincho/blogforge/internal/types"
)

func TestBuildPrompt(t *testing.T) {
	refs := []types.ReferenceArticle{
		{Title: "Ref A", Content: "content of the first reference", URL: "https://a.example/1"},
		{Title: "Ref B", Content: "content of the second reference", URL: "https://b.example/2"},
	}

	prompt := BuildPrompt("My Post", "original body text", refs)

	for _, want := range []string{
		"Title: My Post",
		"original body text",
		"Reference 1:\ncontent of the first reference",
		"Reference 2:\ncontent of the second reference",
		"DO NOT copy sentences",
		"End with a References section",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// Reference URLs are delivered via the rules, not as labeled content.
	if strings.Contains(prompt, "https://a.example/1") {
		t.Errorf("prompt should not embed reference URLs in content blocks")
	}
}

func TestSplitReferences(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		wantBody string
		wantRefs string
	}{
		{
			name:     "markdown heading",
			text:     "Intro paragraph.\n\n## References\n- https://a.example/1\n- https://b.example/2",
			wantBody: "Intro paragraph.",
			wantRefs: "## References\n- https://a.example/1\n- https://b.example/2",
		},
		{
			name:     "plain heading with colon",
			text:     "Body.\n\nReferences:\n- https://a.example/1",
			wantBody: "Body.",
			wantRefs: "References:\n- https://a.example/1",
		},
		{
			name:     "no heading",
			text:     "Just a body with no trailing section.",
			wantBody: "Just a body with no trailing section.",
			wantRefs: "",
		},
		{
			name:     "inline mention is not a heading",
			text:     "See the references below for details.\nMore body.",
			wantBody: "See the references below for details.\nMore body.",
			wantRefs: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, refs := SplitReferences(tc.text)
			if body != tc.wantBody {
				t.Errorf("body: got %q, want %q", body, tc.wantBody)
			}
			if refs != tc.wantRefs {
				t.Errorf("references: got %q, want %q", refs, tc.wantRefs)
			}
		})
	}
}
