package ingest

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mira/dine-finder/internal/models"
	"github.com/mira/dine-finder/internal/search"
)

// TruncateText cuts a string to max length, appending ellipsis if truncated.
func TruncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	if maxLen > 3 {
		return text[:maxLen-3] + "..."
	}
	return text[:maxLen]
}

// HTMLToText converts HTML to plain text, collapsing whitespace. Listing
// names occasionally arrive entity-encoded or wrapped in markup.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html // Fallback to original if parsing fails
	}
	return cleanText(doc.Text())
}

// cleanText collapses runs of whitespace into single spaces, trims, and
// drops invalid UTF-8 sequences before they reach a TEXT column.
func cleanText(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// restaurantFromBusiness maps one search hit onto a restaurant row. Address
// parts join with a single space.
func restaurantFromBusiness(cityID int64, b *search.Business) *models.Restaurant {
	return &models.Restaurant{
		CityID:    cityID,
		Name:      HTMLToText(b.Name),
		Address:   cleanText(strings.Join(b.Location.DisplayAddress, " ")),
		Phone:     cleanText(b.DisplayPhone),
		ImageURL:  strings.TrimSpace(b.ImageURL),
		Latitude:  b.Location.Coordinate.Latitude,
		Longitude: b.Location.Coordinate.Longitude,
	}
}
