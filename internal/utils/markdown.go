package utils

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	postPolicy    = bluemonday.UGCPolicy()
	commentPolicy = bluemonday.NewPolicy()
)

func init() {
	postPolicy.AllowImages()
	postPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	postPolicy.RequireNoReferrerOnLinks(true)

	// Comments keep inline formatting and links only.
	commentPolicy.AllowElements("p", "br", "strong", "em", "del", "code", "pre", "blockquote", "ul", "ol", "li")
	commentPolicy.AllowStandardURLs()
	commentPolicy.AllowAttrs("href").OnElements("a")
	commentPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	commentPolicy.RequireNoReferrerOnLinks(true)
}

func render(source string, p *bluemonday.Policy) template.HTML {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(p.SanitizeBytes(buf.Bytes()))
}

// RenderMarkdown converts a post body to sanitized HTML.
func RenderMarkdown(source string) template.HTML {
	return render(source, postPolicy)
}

// RenderComment converts a comment to HTML without images or headings.
func RenderComment(source string) template.HTML {
	return render(source, commentPolicy)
}

// RenderRecording renders a recording-board post, turning lone video links into players.
func RenderRecording(source string) template.HTML {
	return EmbedVideos(string(RenderMarkdown(source)))
}
