package handlers

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"veryus/internal/models"
	"veryus/internal/utils"
)

const sitemapLimit = 500

type SEOHandler struct {
	*Deps
}

func NewSEOHandler(d *Deps) *SEOHandler {
	return &SEOHandler{Deps: d}
}

func (h *SEOHandler) siteURL() string {
	return strings.TrimRight(h.Config.Server.SiteURL, "/")
}

// RobotsTxt keeps crawlers on the public boards.
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

Disallow: /api/
Disallow: /ws
Disallow: /files/

Sitemap: %s/sitemap.xml
`, h.siteURL())

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// SitemapXML lists the board pages and the most recent posts.
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	site := h.siteURL()
	now := time.Now()
	today := now.Format("2006-01-02")

	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	set.URLs = append(set.URLs, sitemapURL{Loc: site + "/", LastMod: today, ChangeFreq: "daily", Priority: "1.0"})
	for _, board := range models.BoardTypes {
		set.URLs = append(set.URLs, sitemapURL{
			Loc: fmt.Sprintf("%s/boards/%s", site, board), LastMod: today, ChangeFreq: "hourly", Priority: "0.9",
		})
	}

	var posts []models.Post
	err := h.DB.WithContext(c.Request.Context()).
		Select("id", "type", "created_at", "updated_at").
		Order("created_at desc").
		Limit(sitemapLimit).
		Find(&posts).Error
	if err != nil {
		respondError(c, utils.Unavailable("list posts", err))
		return
	}
	for _, post := range posts {
		// Fresh posts are recrawled more often.
		age := now.Sub(post.CreatedAt)
		priority, freq := "0.6", "weekly"
		switch {
		case age < 7*24*time.Hour:
			priority, freq = "0.8", "daily"
		case age < 30*24*time.Hour:
			priority = "0.7"
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        fmt.Sprintf("%s/boards/%s/%s", site, post.Type, post.ID),
			LastMod:    post.UpdatedAt.Format("2006-01-02"),
			ChangeFreq: freq,
			Priority:   priority,
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		respondError(c, utils.NewAppError(utils.ErrInternal, "encode sitemap", err))
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), out...))
}
