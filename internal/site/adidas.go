// Package site holds the storefront-specific extraction routines injected
// into the harvest pipeline. The engine supplies pooling, retry, and the
// round walk; these functions only know selectors.
package site

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jfaulkner/pageharvest/internal/harvest"
)

var nonDigits = regexp.MustCompile(`[^0-9]`)

// AdidasListing returns a listing extractor that walks the category listing:
// collect the product links on the current page, then follow the "Next"
// pagination control until it disappears. Links come back in page-visit
// order.
func AdidasListing(logger *zap.Logger) harvest.ListingExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, page harvest.Page) ([]string, error) {
		var products []string
		for {
			doc, err := parse(ctx, page)
			if err != nil {
				return nil, err
			}

			links := productLinks(doc)
			products = append(products, links...)

			next := nextPageURL(doc)
			logger.Debug("listing page parsed",
				zap.Int("links", len(links)),
				zap.String("next", next),
			)
			if next == "" {
				return products, nil
			}
			if err := page.Navigate(ctx, next); err != nil {
				return nil, fmt.Errorf("follow next page: %w", err)
			}
		}
	}
}

// AdidasItem returns an item extractor for the product detail page.
func AdidasItem(logger *zap.Logger) harvest.ItemExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, page harvest.Page) (map[string]any, error) {
		doc, err := parse(ctx, page)
		if err != nil {
			return nil, err
		}
		if doc.Find("section.ProductPage-Content").Length() == 0 {
			return nil, errors.New("product content not present")
		}

		priceText := firstText(doc, ".ProductDescription-Price .gl-price-item--sale")
		if priceText == "" {
			priceText = firstText(doc, ".ProductDescription-Price .gl-price-item")
		}
		price, err := rawPrice(priceText)
		if err != nil {
			return nil, err
		}

		item := map[string]any{
			"name":        firstText(doc, ".ProductInformation-Name"),
			"color":       firstText(doc, "h5.ProductDescription-Color"),
			"price":       price,
			"description": firstText(doc, ".ProductInformation-ShortDescription"),
			"img_urls":    imageURLs(doc),
		}
		logger.Debug("product parsed", zap.Any("name", item["name"]))
		return item, nil
	}
}

func parse(ctx context.Context, page harvest.Page) (*goquery.Document, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	return doc, nil
}

func productLinks(doc *goquery.Document) []string {
	var links []string
	doc.Find(".ProductCard a.gl-product-card__link").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			links = append(links, href)
		}
	})
	return links
}

// nextPageURL returns the href of the pagination link labeled "Next", or ""
// when the control is absent.
func nextPageURL(doc *goquery.Document) string {
	var href string
	doc.Find("a.CategoryPaginationLink").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(s.Text()), "next") {
			return true
		}
		href, _ = s.Attr("href")
		return false
	})
	return href
}

// imageURLs collects the gallery image sources: thumbnail images first, the
// zoomed hero image as a fallback.
func imageURLs(doc *goquery.Document) []string {
	var urls []string
	doc.Find("button.ProductGallery-PaginationItem img").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			urls = append(urls, src)
		}
	})
	if len(urls) > 0 {
		return urls
	}
	doc.Find("img.TranslateOnCursorMove-ZoomedImage").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			urls = append(urls, src)
		}
	})
	return urls
}

// rawPrice strips everything but digits from a displayed price.
func rawPrice(s string) (int, error) {
	digits := nonDigits.ReplaceAllString(s, "")
	if digits == "" {
		return 0, fmt.Errorf("no digits in price %q", s)
	}
	price, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	return price, nil
}

func firstText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}
