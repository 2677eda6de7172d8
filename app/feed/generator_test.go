package feed

import (
	"strings"
	"testing"

	"github.com/lysyi3m/post-comb/app/cfg"
	"github.com/lysyi3m/post-comb/app/post"
	"github.com/mmcdole/gofeed"
)

func setupTestConfig(t *testing.T) {
	t.Helper()
	if _, err := cfg.LoadArgs([]string{"--port", "8080"}); err != nil {
		t.Fatal(err)
	}
}

func testPosts() []post.Post {
	longText := "Shipping our Rust rewrite today\n" + strings.Repeat("details ", 40)
	return []post.Post{
		{
			ID:          "7100",
			URN:         "urn:li:activity:7100",
			Text:        longText,
			TextPreview: post.Preview(longText),
			Keywords:    []string{"rust", "rewrite"},
			AuthorName:  "Jane Doe",
			CreatedAt:   "2024-05-30T09:15:00.000000Z",
			URL:         "https://www.linkedin.com/feed/update/urn:li:activity:7100/",
			PostType:    post.TypePost,
		},
		{
			ID:          "42",
			URN:         "urn:li:job:42",
			Text:        "Senior Rust Engineer at Acme <Remote>",
			TextPreview: "Senior Rust Engineer at Acme <Remote>",
			Keywords:    []string{"rust"},
			PostType:    post.TypeJobPosting,
		},
	}
}

func TestGenerateRSS(t *testing.T) {
	setupTestConfig(t)
	generator := NewGenerator()

	rss, err := generator.Run(Channel{Path: "/feed.xml", Title: "Post Comb"}, testPosts())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(rss, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("RSS should contain XML declaration")
	}

	if !strings.Contains(rss, `<atom:link href="http://localhost:8080/feed.xml" rel="self" type="application/rss+xml" />`) {
		t.Error("RSS should contain atom:link self reference")
	}

	if !strings.Contains(rss, `<guid isPermaLink="false">urn:li:activity:7100</guid>`) {
		t.Error("RSS should contain first item GUID")
	}

	if !strings.Contains(rss, "<title>Jane Doe: Shipping our Rust rewrite today</title>") {
		t.Error("RSS should contain author-prefixed item title")
	}

	if !strings.Contains(rss, "<pubDate>Thu, 30 May 2024 09:15:00 +0000</pubDate>") {
		t.Error("RSS should contain item published date")
	}

	if !strings.Contains(rss, "<content:encoded><![CDATA[") {
		t.Error("RSS should contain full text when longer than the preview")
	}

	if !strings.Contains(rss, "Senior Rust Engineer at Acme &lt;Remote&gt;") {
		t.Error("RSS should escape item text")
	}

	if !strings.Contains(rss, "<category>job</category>") {
		t.Error("RSS should mark job postings")
	}
}

func TestGeneratedRSSParses(t *testing.T) {
	setupTestConfig(t)
	generator := NewGenerator()

	rss, err := generator.Run(Channel{Path: "/feeds/rust", Title: "rust"}, testPosts())
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := gofeed.NewParser().ParseString(rss)
	if err != nil {
		t.Fatalf("Generated RSS should parse, got: %v", err)
	}

	if parsed.FeedType != "rss" {
		t.Errorf("Expected feed type 'rss', got '%s'", parsed.FeedType)
	}
	if parsed.Title != "rust" {
		t.Errorf("Expected title 'rust', got '%s'", parsed.Title)
	}
	if len(parsed.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(parsed.Items))
	}

	first := parsed.Items[0]
	if first.Link != "https://www.linkedin.com/feed/update/urn:li:activity:7100/" {
		t.Errorf("Unexpected link: %s", first.Link)
	}
	if len(first.Categories) != 2 || first.Categories[0] != "rust" {
		t.Errorf("Expected keyword categories, got %v", first.Categories)
	}
	if first.PublishedParsed == nil {
		t.Error("Expected parsed publish date")
	}

	if parsed.Items[1].PublishedParsed != nil {
		t.Error("Expected undated job posting without pubDate")
	}
}

func TestGenerateEmpty(t *testing.T) {
	setupTestConfig(t)

	rss, err := NewGenerator().Run(Channel{Path: "/feed.xml", Title: "Post Comb"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(rss, "<item>") {
		t.Error("Empty feed should have no items")
	}
	if !strings.Contains(rss, "<description>Posts collected from keyword searches</description>") {
		t.Error("RSS should contain default description")
	}
}
