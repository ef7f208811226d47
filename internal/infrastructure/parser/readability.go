package parser

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"NewsCaster/internal/domain"
	"NewsCaster/internal/ports"
)

// ReadabilityExtractor keeps the site listing of its base extractor but falls back to a
// generic readability pass when an article page lacks the expected body container.
type ReadabilityExtractor struct {
	base    ports.Extractor
	siteURL *url.URL
}

var _ ports.Extractor = (*ReadabilityExtractor)(nil)

// NewReadabilityExtractor wraps base; a nil base means HLTVExtractor. Relative image
// links are resolved against siteURL.
func NewReadabilityExtractor(base ports.Extractor, siteURL string) *ReadabilityExtractor {
	if base == nil {
		base = NewHLTVExtractor()
	}
	r := &ReadabilityExtractor{base: base}
	if parsed, err := url.Parse(siteURL); err == nil && parsed.Host != "" {
		r.siteURL = parsed
	}
	return r
}

// ListHomepage delegates to the base extractor.
func (r *ReadabilityExtractor) ListHomepage(html string) ([]domain.Candidate, error) {
	return r.base.ListHomepage(html)
}

// ExtractArticle prefers the base extractor and only reads the page generically when
// the base finds nothing.
func (r *ReadabilityExtractor) ExtractArticle(html string) (domain.Article, bool, error) {
	article, found, err := r.base.ExtractArticle(html)
	if err != nil || found {
		return article, found, err
	}

	parsed, err := readability.FromReader(strings.NewReader(html), r.siteURL)
	if err != nil {
		// Pages readability cannot parse simply have no content.
		return domain.Article{}, false, nil
	}

	body := strings.TrimSpace(parsed.TextContent)
	if body == "" {
		return domain.Article{}, false, nil
	}
	return domain.Article{Body: body, ImageURL: strings.TrimSpace(parsed.Image)}, true, nil
}
