package rewrite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nandincho/blogforge/internal/types"
)

const systemPrompt = "You rewrite blog articles professionally."

const promptTemplate = `You are a professional content writer.

TASK:
Rewrite the ORIGINAL ARTICLE using insights, structure, and tone from the REFERENCE ARTICLES.

RULES:
- DO NOT copy sentences
- DO NOT mention competitors by name inside content
- Improve clarity, structure, and depth
- Keep SEO-friendly headings
- Keep article length similar or better
- End with a References section listing the source URLs

ORIGINAL ARTICLE:
Title: %s
Content:
%s

REFERENCE ARTICLES:
%s

OUTPUT FORMAT:
- Title
- Well-structured article (headings + paragraphs)
- References (bullet list with URLs)
`

// BuildPrompt assembles the single generation request: rewrite rules, the
// original article, and the reference contents labeled by index.
func BuildPrompt(title, content string, refs []types.ReferenceArticle) string {
	blocks := make([]string, len(refs))
	for i, r := range refs {
		blocks[i] = fmt.Sprintf("Reference %d:\n%s", i+1, r.Content)
	}
	return fmt.Sprintf(promptTemplate, title, content, strings.Join(blocks, "\n\n"))
}

// The generated output embeds its own References section inside the free
// text; consumers that want the body alone strip it by heading.
var referencesHeading = regexp.MustCompile(`(?im)^#{0,3}\s*references\s*:?\s*$`)

// SplitReferences splits generated text into the body and the trailing
// References section (heading included). If no References heading is found
// the whole text is the body.
func SplitReferences(text string) (body, references string) {
	loc := referencesHeading.FindStringIndex(text)
	if loc == nil {
		return strings.TrimSpace(text), ""
	}
	return strings.TrimSpace(text[:loc[0]]), strings.TrimSpace(text[loc[0]:])
}
