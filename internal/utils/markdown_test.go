package utils

import (
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	html := RenderMarkdown("use **bcrypt** here")
	if !strings.Contains(html, "<strong>bcrypt</strong>") {
		t.Fatalf("bold not rendered: %q", html)
	}
}

func TestRenderMarkdownStripsScripts(t *testing.T) {
	html := RenderMarkdown(`hello <script>alert("x")</script> world`)
	if strings.Contains(html, "<script") {
		t.Fatalf("script survived sanitization: %q", html)
	}
	if !strings.Contains(html, "hello") || !strings.Contains(html, "world") {
		t.Fatalf("text content lost: %q", html)
	}
}

func TestRenderMarkdownAutolinkTarget(t *testing.T) {
	html := RenderMarkdown("see [docs](https://example.com/docs)")
	if !strings.Contains(html, `href="https://example.com/docs"`) {
		t.Fatalf("link lost: %q", html)
	}
	if !strings.Contains(html, `target="_blank"`) {
		t.Fatalf("external link missing target: %q", html)
	}
}
