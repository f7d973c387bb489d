package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := string(RenderMarkdown("**hi** <script>alert(1)</script>"))
	assert.Contains(t, out, "<strong>hi</strong>")
	assert.NotContains(t, out, "<script>")
}

func TestYouTubeID(t *testing.T) {
	assert.Equal(t, "abc123", YouTubeID("https://www.youtube.com/watch?v=abc123&t=10"))
	assert.Equal(t, "xyz", YouTubeID("https://youtu.be/xyz"))
	assert.Equal(t, "short1", YouTubeID("https://youtube.com/shorts/short1"))
	assert.Equal(t, "", YouTubeID("https://example.com/watch?v=abc"))
}

func TestRenderRecordingEmbedsLonePlayerLink(t *testing.T) {
	out := string(RenderRecording("Our busking set\n\nhttps://youtu.be/xyz"))
	assert.Contains(t, out, "https://www.youtube.com/embed/xyz")
	assert.True(t, strings.Contains(out, "Our busking set"))
}

func TestRenderCommentDropsImagesKeepsLinks(t *testing.T) {
	out := string(RenderComment("see ![cover](https://example.com/a.png) and [site](https://example.com)\n\n# big"))
	assert.NotContains(t, out, "<img")
	assert.NotContains(t, out, "<h1")
	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, "big")
}
