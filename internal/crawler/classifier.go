package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/coinhunter/internal/model"
	"github.com/nao1215/coinhunter/internal/signature"
)

// Classification is the outcome of classifying one fetched resource.
type Classification struct {
	// Events holds one event per script, in document order.
	Events []model.ClassificationEvent

	// Children are the targets discovered on the page: remote script
	// sources at the page's depth and links at depth+1.
	Children []model.CrawlTarget
}

// Matches returns the number of matched events.
func (c Classification) Matches() int {
	n := 0
	for _, ev := range c.Events {
		if ev.Matched {
			n++
		}
	}
	return n
}

// Classifier decides which scripts of a page relate to known mining domains.
// It is stateless apart from its read-only inputs and safe for concurrent use.
type Classifier struct {
	signatures *signature.Set

	// root is the site root every reference is resolved against.
	root *url.URL
}

// NewClassifier creates a Classifier that matches against signatures and
// resolves references against root (see SiteRoot).
func NewClassifier(signatures *signature.Set, root *url.URL) *Classifier {
	return &Classifier{
		signatures: signatures,
		root:       root,
	}
}

// Classify parses result.Body and classifies its scripts.
//
// Pages with <script> elements yield one event per element: remote scripts
// are matched by the host of their resolved src and also become children
// at the same depth; inline scripts are matched by substring search over
// their lower-cased text. A body without any <script> element is treated as
// a raw script and yields exactly one inline event whose locator is the page
// URL. Every <a href> becomes a child at depth+1.
func (c *Classifier) Classify(result *model.FetchResult) (Classification, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.Body))
	if err != nil {
		return Classification{}, fmt.Errorf("%w: %s: %w", ErrNotHTML, result.URL, err)
	}

	out := Classification{
		Events:   make([]model.ClassificationEvent, 0),
		Children: make([]model.CrawlTarget, 0),
	}

	scripts := doc.Find("script")
	if scripts.Length() > 0 {
		scripts.Each(func(i int, s *goquery.Selection) {
			if src, ok := s.Attr("src"); ok {
				c.classifyRemote(&out, result, src)
				return
			}
			locator := fmt.Sprintf("%s#script-%d", result.URL, i+1)
			out.Events = append(out.Events, c.classifyInline(result, locator, s.Text()))
		})
	} else {
		out.Events = append(out.Events, c.classifyInline(result, result.URL, result.Body))
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if abs, ok := resolve(c.root, href); ok {
			out.Children = append(out.Children, model.NewCrawlTarget(abs, result.Depth+1))
		}
	})

	return out, nil
}

func (c *Classifier) classifyRemote(out *Classification, result *model.FetchResult, src string) {
	ev := model.ClassificationEvent{
		SourceURL:     result.URL,
		ScriptLocator: strings.TrimSpace(src),
		Kind:          model.ScriptRemote,
		Depth:         result.Depth,
	}

	abs, ok := resolve(c.root, src)
	if !ok {
		out.Events = append(out.Events, ev)
		return
	}
	ev.ScriptLocator = abs

	if u, err := url.Parse(abs); err == nil {
		host := strings.ToLower(u.Hostname())
		if c.signatures.Contains(host) {
			ev.Matched = true
			ev.Signatures = []string{strings.TrimSuffix(host, ".")}
		}
	}

	out.Events = append(out.Events, ev)
	out.Children = append(out.Children, model.NewCrawlTarget(abs, result.Depth))
}

func (c *Classifier) classifyInline(result *model.FetchResult, locator, text string) model.ClassificationEvent {
	matched := c.signatures.MatchText(text)
	return model.ClassificationEvent{
		SourceURL:     result.URL,
		ScriptLocator: locator,
		Kind:          model.ScriptInline,
		Matched:       len(matched) > 0,
		Signatures:    matched,
		Depth:         result.Depth,
	}
}
