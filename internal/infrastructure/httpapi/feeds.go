package httpapi

import (
	"encoding/xml"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"FundingArchive/internal/config"
	"FundingArchive/internal/domain"
)

const feedSize = 50

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	GUID        rssGUID  `xml:"guid"`
	PubDate     string   `xml:"pubDate"`
	Categories  []string `xml:"category,omitempty"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type feedBuilder struct {
	site config.SiteConfig
}

func (f feedBuilder) baseURL() string {
	return strings.TrimSuffix(f.site.BaseURL, "/")
}

func (f feedBuilder) rss(updates []domain.Update) rssFeed {
	channel := rssChannel{
		Title:       f.site.Title,
		Link:        f.baseURL() + "/",
		Description: f.site.Description,
		Items:       make([]rssItem, 0, len(updates)),
	}
	if len(updates) > 0 {
		channel.LastBuildDate = updates[0].Timestamp.UTC().Format(time.RFC1123Z)
	}

	for _, u := range updates {
		item := rssItem{
			Title:       updateTitle(u),
			Link:        f.updateLink(u),
			Description: u.Summary,
			GUID:        rssGUID{Value: "update-" + strconv.FormatInt(u.ID, 10)},
			PubDate:     u.Timestamp.UTC().Format(time.RFC1123Z),
		}
		if item.Description == "" {
			item.Description = u.Text
		}
		if u.CategoryName != "" {
			item.Categories = []string{u.CategoryName}
		}
		channel.Items = append(channel.Items, item)
	}

	return rssFeed{Version: "2.0", Channel: channel}
}

// updateLink prefers the first link of the announcement itself.
func (f feedBuilder) updateLink(u domain.Update) string {
	if len(u.URLs) > 0 {
		return u.URLs[0]
	}
	return f.baseURL() + "/?q=" + url.QueryEscape(updateTitle(u))
}

func (f feedBuilder) sitemap(updates []domain.Update, grants []domain.GrantEntry) urlSet {
	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}

	home := sitemapURL{Loc: f.baseURL() + "/"}
	if len(updates) > 0 {
		home.LastMod = updates[0].Timestamp.UTC().Format("2006-01-02")
	}
	set.URLs = append(set.URLs, home)

	for _, g := range grants {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:     f.baseURL() + "/grants/" + url.PathEscape(g.Slug),
			LastMod: g.PublishedAt.UTC().Format("2006-01-02"),
		})
	}
	return set
}

func updateTitle(u domain.Update) string {
	if u.Title != "" {
		return u.Title
	}
	line, _, _ := strings.Cut(strings.TrimSpace(u.Text), "\n")
	if r := []rune(line); len(r) > 100 {
		line = string(r[:100]) + "…"
	}
	return line
}

func writeXML(c *gin.Context, contentType string, v any) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		respondError(c, http.StatusInternalServerError, "encode", err)
		return
	}
	c.Data(http.StatusOK, contentType, append([]byte(xml.Header), out...))
}

func (h *handlers) rssFeed(c *gin.Context) {
	updates, _, err := h.svc.Recent(c.Request.Context(), feedSize)
	degrade(c, err)
	writeXML(c, "application/rss+xml; charset=utf-8", h.feeds.rss(updates))
}

func (h *handlers) sitemap(c *gin.Context) {
	updates, grants, err := h.svc.Recent(c.Request.Context(), feedSize)
	degrade(c, err)
	writeXML(c, "application/xml; charset=utf-8", h.feeds.sitemap(updates, grants))
}
