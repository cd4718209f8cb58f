package scraper

import (
	"bytes"
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const (
	imageContainerSelector = `[class*="image__container"]`
	paragraphSelector      = `p[class*="paragraph"]`
)

// Details holds what could be extracted from an article page. Empty fields
// mean the heuristics found nothing.
type Details struct {
	ImageURL    string
	Description string
}

// DetailFetcher loads article pages and extracts image and description
type DetailFetcher struct {
	fetcher             *Fetcher
	timeout             time.Duration
	readabilityFallback bool
}

func NewDetailFetcher(fetcher *Fetcher, timeout time.Duration, readabilityFallback bool) *DetailFetcher {
	return &DetailFetcher{
		fetcher:             fetcher,
		timeout:             timeout,
		readabilityFallback: readabilityFallback,
	}
}

// FetchDetails never fails: fetch or parse problems yield empty Details
func (d *DetailFetcher) FetchDetails(ctx context.Context, articleURL string) Details {
	log.Printf("  -> Fetching details for %s", articleURL)

	body, err := d.fetcher.Fetch(ctx, articleURL, d.timeout)
	if err != nil {
		log.Printf("    -> Error fetching article details for %s: %v", articleURL, err)
		return Details{}
	}

	return ExtractDetails(articleURL, body, d.readabilityFallback)
}

// ExtractDetails applies the image and description heuristics to an
// article page body.
func ExtractDetails(pageURL string, body []byte, readabilityFallback bool) Details {
	var details Details

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		log.Printf("    -> Error parsing article %s: %v", pageURL, err)
		return details
	}

	base, _ := url.Parse(pageURL)

	container := doc.Find(imageContainerSelector).First()
	if container.Length() > 0 {
		if src, ok := container.Find("img").First().Attr("src"); ok {
			details.ImageURL = resolveImage(base, strings.TrimSpace(src))
		}
	}

	if p := doc.Find(paragraphSelector).First(); p.Length() > 0 {
		details.Description = cleanText(p.Text())
	}

	if details.Description == "" && readabilityFallback && base != nil {
		article, err := readability.FromReader(bytes.NewReader(body), base)
		if err == nil {
			details.Description = cleanText(article.Excerpt)
		}
	}

	return details
}

func resolveImage(base *url.URL, src string) string {
	if src == "" || base == nil {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// cleanText trims and collapses runs of whitespace
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
