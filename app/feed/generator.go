package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/post-comb/app/cfg"
	"github.com/lysyi3m/post-comb/app/post"
)

const titleLength = 80

// Channel describes the RSS channel wrapping a set of posts.
type Channel struct {
	Path        string // served path, e.g. "/feed.xml"
	Title       string
	Description string
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Run(channel Channel, posts []post.Post) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", channel.Title, 4)
	g.writeElement(&buf, "link", "https://www.linkedin.com/feed/", 4)
	g.writeElement(&buf, "description", cmp.Or(channel.Description, "Posts collected from keyword searches"), 4)

	var selfLink string
	if cfg.Get().BaseUrl != "" {
		selfLink = strings.TrimSuffix(cfg.Get().BaseUrl, "/") + channel.Path
	} else {
		selfLink = fmt.Sprintf("http://localhost:%s%s", cfg.Get().Port, channel.Path)
	}
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(selfLink)))

	lastBuildDate := time.Now().In(time.Local)
	if len(posts) > 0 {
		if d := post.EffectiveDate(posts[0]); !d.IsZero() {
			lastBuildDate = d
		}
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("Post-Comb/%s", cfg.Get().Version), 4)

	for _, p := range posts {
		g.writeItem(&buf, p)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, p post.Post) {
	buf.WriteString("    <item>\n")

	if guid := cmp.Or(p.URN, p.ID); guid != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(guid)))
		xml.EscapeText(buf, []byte(guid))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", itemTitle(p), 6)
	g.writeElement(buf, "link", p.URL, 6)
	g.writeElement(buf, "description", cmp.Or(p.TextPreview, "No description available"), 6)

	if p.Text != "" && p.Text != p.TextPreview {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(strings.ReplaceAll(p.Text, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	if d := post.EffectiveDate(p); !d.IsZero() {
		g.writeElement(buf, "pubDate", d.Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "author", p.AuthorName, 6)

	for _, kw := range p.Keywords {
		g.writeElement(buf, "category", kw, 6)
	}
	if p.PostType == post.TypeJobPosting {
		g.writeElement(buf, "category", "job", 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// itemTitle is "<author>: <first line of the post>", cut to 80 characters.
func itemTitle(p post.Post) string {
	line, _, _ := strings.Cut(strings.TrimSpace(p.Text), "\n")
	if runes := []rune(line); len(runes) > titleLength {
		line = string(runes[:titleLength]) + "…"
	}
	if p.AuthorName == "" {
		return cmp.Or(line, p.ID)
	}
	if line == "" {
		return p.AuthorName
	}
	return p.AuthorName + ": " + line
}
