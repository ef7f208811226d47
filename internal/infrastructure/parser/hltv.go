package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsCaster/internal/domain"
	"NewsCaster/internal/ports"
)

const (
	homepageEntrySelector = "a.newsline.article"
	entryLabelSelector    = "div.newsrecent"
	entryTitleSelector    = "div.newstext"
	entryMetaSelector     = "div.newstc"
	articleBodySelector   = "div.newstext-con"
	articleImageSelector  = "img.image"
)

// HLTVExtractor reads the HLTV homepage listing and article pages.
type HLTVExtractor struct{}

var _ ports.Extractor = HLTVExtractor{}

// NewHLTVExtractor returns the markup extractor for hltv.org.
func NewHLTVExtractor() HLTVExtractor {
	return HLTVExtractor{}
}

// ListHomepage returns every news entry of the listing in document order. Entries
// without a title or a link are dropped.
func (HLTVExtractor) ListHomepage(html string) ([]domain.Candidate, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}

	var candidates []domain.Candidate
	doc.Find(homepageEntrySelector).Each(func(_ int, entry *goquery.Selection) {
		candidate, ok := parseEntry(entry)
		if ok {
			candidates = append(candidates, candidate)
		}
	})
	return candidates, nil
}

// ExtractArticle returns the article text and lead image. It reports false when the page
// has no article body container.
func (HLTVExtractor) ExtractArticle(html string) (domain.Article, bool, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return domain.Article{}, false, err
	}

	container := doc.Find(articleBodySelector).First()
	if container.Length() == 0 {
		return domain.Article{}, false, nil
	}

	image, _ := doc.Find(articleImageSelector).First().Attr("src")
	return domain.Article{
		Body:     strings.TrimSpace(container.Text()),
		ImageURL: strings.TrimSpace(image),
	}, true, nil
}

func parseEntry(entry *goquery.Selection) (domain.Candidate, bool) {
	title := strings.TrimSpace(entry.Find(entryTitleSelector).First().Text())
	href, _ := entry.Attr("href")
	href = strings.TrimSpace(href)
	if title == "" || href == "" {
		return domain.Candidate{}, false
	}

	return domain.Candidate{
		Title:          title,
		Href:           href,
		PublishedLabel: strings.TrimSpace(entry.Find(entryLabelSelector).First().Text()),
		CommentText:    commentText(entry),
	}, true
}

// commentText returns the first direct child of the meta block mentioning comments.
func commentText(entry *goquery.Selection) string {
	var text string
	entry.Find(entryMetaSelector).First().ChildrenFiltered("div").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		value := strings.TrimSpace(div.Text())
		if strings.Contains(strings.ToLower(value), "comments") {
			text = value
			return false
		}
		return true
	})
	return text
}

func parseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: parse document: %v", domain.ErrExtract, err)
	}
	return doc, nil
}
