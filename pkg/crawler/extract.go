package crawler

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/kaptinlin/jsonrepair"

	"github.com/berryware/berryrag/internal/util"
	"github.com/berryware/berryrag/pkg/common"
)

// MinContentChars is the floor below which an extracted page is not
// considered readable content.
const MinContentChars = 100

// Page is the readable form of one fetched URL: cleaned main text,
// document metadata and the same-host link candidates found in the
// markup.
type Page struct {
	URL           string          `json:"url"`
	Title         string          `json:"title"`
	Text          string          `json:"text"`
	Excerpt       string          `json:"excerpt,omitempty"`
	Author        string          `json:"author,omitempty"`
	PublishedTime string          `json:"published_time,omitempty"`
	Language      string          `json:"language,omitempty"`
	SiteName      string          `json:"site_name,omitempty"`
	Links         []LinkCandidate `json:"links,omitempty"`
}

// ExtractPage turns raw HTML into a Page. The main text comes from
// readability; title and document metadata come from the markup's meta
// tags, Open Graph properties and JSON-LD blocks. A page whose readable
// text falls below MinContentChars is an ExtractionError.
func ExtractPage(rawHTML []byte, pageURL string, maxLinks int) (*Page, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, common.Validationf("url", "unparseable: %v", err)
	}

	article, err := readability.FromReader(bytes.NewReader(rawHTML), base)
	if err != nil {
		return nil, &common.ExtractionError{URL: pageURL, Reason: "content not readable", Err: err}
	}
	var text strings.Builder
	if err := article.RenderText(&text); err != nil {
		return nil, &common.ExtractionError{URL: pageURL, Reason: "render failed", Err: err}
	}

	page := &Page{
		URL:   pageURL,
		Text:  util.NormalizeDocumentText(text.String()),
		Links: ExtractLinks(rawHTML, base, maxLinks),
	}
	fillMetadata(page, rawHTML)

	if len(page.Text) < MinContentChars {
		return nil, &common.ExtractionError{
			URL:    pageURL,
			Reason: "readable content too short",
		}
	}

	if page.Excerpt == "" {
		page.Excerpt = util.TruncateAtWord(page.Text, 200)
	}
	return page, nil
}

// fillMetadata reads title, description, author, published time and
// language out of the markup. Meta tags win over JSON-LD; JSON-LD
// blocks are parsed leniently since real pages ship malformed ones.
func fillMetadata(page *Page, rawHTML []byte) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return
	}

	page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if og := metaContent(doc, `meta[property="og:title"]`); og != "" {
		page.Title = og
	}
	page.Excerpt = firstNonEmpty(
		metaContent(doc, `meta[name="description"]`),
		metaContent(doc, `meta[property="og:description"]`),
	)
	page.Author = metaContent(doc, `meta[name="author"]`)
	page.SiteName = metaContent(doc, `meta[property="og:site_name"]`)
	page.PublishedTime = firstNonEmpty(
		metaContent(doc, `meta[property="article:published_time"]`),
		metaContent(doc, `meta[name="date"]`),
	)
	if lang, ok := doc.Find("html").First().Attr("lang"); ok {
		page.Language = strings.TrimSpace(lang)
	}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var ld struct {
			Headline      string `json:"headline"`
			DatePublished string `json:"datePublished"`
			Author        any    `json:"author"`
		}
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}
		if err := json.Unmarshal([]byte(raw), &ld); err != nil {
			repaired, rerr := jsonrepair.JSONRepair(raw)
			if rerr != nil || json.Unmarshal([]byte(repaired), &ld) != nil {
				return true
			}
		}
		if page.Title == "" && ld.Headline != "" {
			page.Title = ld.Headline
		}
		if page.PublishedTime == "" && ld.DatePublished != "" {
			page.PublishedTime = ld.DatePublished
		}
		if page.Author == "" {
			page.Author = ldAuthorName(ld.Author)
		}
		return page.Title == "" || page.PublishedTime == "" || page.Author == ""
	})
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ldAuthorName handles the two shapes JSON-LD authors come in: a plain
// string or an object with a name field.
func ldAuthorName(author any) string {
	switch v := author.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if name, ok := v["name"].(string); ok {
			return strings.TrimSpace(name)
		}
	case []any:
		for _, entry := range v {
			if name := ldAuthorName(entry); name != "" {
				return name
			}
		}
	}
	return ""
}
