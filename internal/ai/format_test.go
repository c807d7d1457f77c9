package ai

import (
	"strings"
	"testing"
)

func TestFormatResponseEmphasis(t *testing.T) {
	got := FormatResponse("use **focus blocks** and *short breaks*")
	want := "use <strong>focus blocks</strong> and <em>short breaks</em>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatResponseCodeBlock(t *testing.T) {
	got := FormatResponse("try:\n```go\nfmt.Println(1)\n```\ndone")
	if !strings.Contains(got, `<pre><code class="language-go">`) {
		t.Errorf("code block not converted: %q", got)
	}
	if strings.Contains(got, "```") {
		t.Errorf("fences left behind: %q", got)
	}
}

func TestFormatResponseNewlines(t *testing.T) {
	got := FormatResponse("one\ntwo")
	if got != "one<br>two" {
		t.Errorf("got %q", got)
	}
}
