package crawler

import (
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

const (
	// DefaultMaxLinks caps how many candidates one page contributes.
	DefaultMaxLinks = 20
	// MaxLinkLimit is the upper bound accepted at the tool boundary.
	MaxLinkLimit = 50

	minAnchorChars = 3
	maxAnchorChars = 100

	keywordWeight  = 0.7
	positionWeight = 0.3
)

// LinkCandidate is one link found on a source page: its absolute URL,
// the anchor text and the position among the page's links. Candidates
// are ephemeral; they exist to be scored and discarded.
type LinkCandidate struct {
	URL      string `json:"url"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// ScoredLink is a candidate with its relevance breakdown.
type ScoredLink struct {
	LinkCandidate
	Score            float64 `json:"score"`
	KeywordRelevance float64 `json:"keyword_relevance"`
	PositionScore    float64 `json:"position_score"`
}

// ScoreLinks ranks candidates by 0.7*keywordRelevance +
// 0.3*positionScore. Keyword relevance is the share of distinct
// keywords found in URL plus anchor text, case-insensitive; position
// score decays linearly with page position so earlier links win all
// else equal. Without keywords relevance is 0 for everyone and the
// ranking reduces to page order. The sort is stable: ties keep page
// order.
func ScoreLinks(links []LinkCandidate, keywords []string, totalLinks int) []ScoredLink {
	if totalLinks <= 0 {
		totalLinks = len(links)
	}

	lowered := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" {
			lowered = append(lowered, keyword)
		}
	}

	scored := make([]ScoredLink, 0, len(links))
	for _, link := range links {
		haystack := strings.ToLower(link.URL + " " + link.Text)

		relevance := 0.0
		if len(lowered) > 0 {
			matched := 0
			for _, keyword := range lowered {
				if strings.Contains(haystack, keyword) {
					matched++
				}
			}
			relevance = float64(matched) / float64(len(lowered))
			if relevance > 1 {
				relevance = 1
			}
		}

		position := 0.0
		if totalLinks > 0 {
			position = 1 - float64(link.Position)/float64(totalLinks)
		}

		scored = append(scored, ScoredLink{
			LinkCandidate:    link,
			Score:            keywordWeight*relevance + positionWeight*position,
			KeywordRelevance: relevance,
			PositionScore:    position,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// NormalizeURL canonicalizes a URL for visited-set dedup: fragment
// stripped, trailing slash removed. Unparseable input passes through
// unchanged.
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	normalized := u.String()
	return strings.TrimSuffix(normalized, "/")
}

// ExtractLinks pulls same-host link candidates out of raw HTML. Links
// with mailto:/javascript: schemes, fragment-only targets, off-host
// targets or anchor text of three characters or fewer are dropped;
// anchor text is capped at 100 characters; duplicates collapse by
// normalized URL; at most maxLinks candidates are returned in page
// order.
func ExtractLinks(rawHTML []byte, base *url.URL, maxLinks int) []LinkCandidate {
	if maxLinks <= 0 {
		maxLinks = DefaultMaxLinks
	}

	root, err := html.Parse(strings.NewReader(string(rawHTML)))
	if err != nil {
		return nil
	}

	baseNorm := NormalizeURL(base.String())
	seen := make(map[string]struct{})
	out := make([]LinkCandidate, 0, maxLinks)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(out) >= maxLinks {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			if candidate, ok := candidateFromAnchor(n, base); ok {
				normalized := NormalizeURL(candidate.URL)
				if _, dup := seen[normalized]; !dup && normalized != baseNorm {
					seen[normalized] = struct{}{}
					candidate.Position = len(out)
					out = append(out, candidate)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return out
}

func candidateFromAnchor(n *html.Node, base *url.URL) (LinkCandidate, bool) {
	var href string
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			href = strings.TrimSpace(attr.Val)
			break
		}
	}
	if href == "" || strings.HasPrefix(href, "#") {
		return LinkCandidate{}, false
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "tel:") {
		return LinkCandidate{}, false
	}

	resolved, err := base.Parse(href)
	if err != nil {
		return LinkCandidate{}, false
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return LinkCandidate{}, false
	}
	if !strings.EqualFold(resolved.Host, base.Host) {
		return LinkCandidate{}, false
	}

	text := strings.Join(strings.Fields(anchorText(n)), " ")
	if len(text) <= minAnchorChars {
		return LinkCandidate{}, false
	}
	if len(text) > maxAnchorChars {
		text = text[:maxAnchorChars]
	}

	return LinkCandidate{URL: resolved.String(), Text: text}, true
}

func anchorText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
