package ai

import (
	"regexp"
	"strings"
)

var (
	codeBlockRe = regexp.MustCompile("(?s)```(\\w+)?\\n(.*?)\\n```")
	boldRe      = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe    = regexp.MustCompile(`\*(.*?)\*`)
)

// FormatResponse converts the model's markdown-ish output into the
// small HTML subset the chat page renders. Code blocks are handled
// first so their fences are not re-matched as emphasis.
func FormatResponse(text string) string {
	text = codeBlockRe.ReplaceAllString(text, `<pre><code class="language-$1">$2</code></pre>`)
	text = boldRe.ReplaceAllString(text, "<strong>$1</strong>")
	text = italicRe.ReplaceAllString(text, "<em>$1</em>")
	text = strings.ReplaceAll(text, "\n", "<br>")
	return text
}
