package domain

// Candidate is the raw record scraped from the homepage listing.
type Candidate struct {
	Title          string
	Href           string
	PublishedLabel string
	CommentText    string
}

// Article is what an article page yields after extraction.
type Article struct {
	Body     string
	ImageURL string
}

// NewsItem is one delivery unit. Stages return a new value instead of mutating the old one.
type NewsItem struct {
	Title           string
	URL             string
	CommentCount    int
	ImageURL        string
	Body            string
	TranslatedTitle string
	Summary         string
}

// WithContent returns a copy enriched with the article page content.
func (n NewsItem) WithContent(body, imageURL string) NewsItem {
	n.Body = body
	n.ImageURL = imageURL
	return n
}

// WithTransform returns a copy carrying the translated title and the summary.
func (n NewsItem) WithTransform(translatedTitle, summary string) NewsItem {
	n.TranslatedTitle = translatedTitle
	n.Summary = summary
	return n
}
