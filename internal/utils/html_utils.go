package utils

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const playerHTML = `<div class="video-container"><iframe src="%s" frameborder="0" allowfullscreen allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture"></iframe></div>`

// EmbedVideos replaces paragraphs holding a single YouTube link with an embedded player
// and hardens images for lazy loading.
func EmbedVideos(htmlStr string) template.HTML {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return template.HTML(htmlStr)
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
	})

	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if !strings.HasPrefix(text, "http") || strings.Contains(text, " ") {
			return
		}
		if id := YouTubeID(text); id != "" {
			src := "https://www.youtube.com/embed/" + url.PathEscape(id)
			s.ReplaceWithHtml(fmt.Sprintf(playerHTML, src))
		}
	})

	// goquery wraps fragments in html/body; only the body is ours.
	out, _ := doc.Find("body").Html()
	if out == "" {
		out, _ = doc.Html()
	}
	return template.HTML(out)
}

// YouTubeID extracts the video id from watch, short and shorts links.
func YouTubeID(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(u.Host, "www.")
	host = strings.TrimPrefix(host, "m.")
	switch host {
	case "youtube.com":
		if u.Path == "/watch" {
			return u.Query().Get("v")
		}
		if strings.HasPrefix(u.Path, "/shorts/") {
			return strings.Trim(strings.TrimPrefix(u.Path, "/shorts/"), "/")
		}
	case "youtu.be":
		return strings.Trim(u.Path, "/")
	}
	return ""
}
