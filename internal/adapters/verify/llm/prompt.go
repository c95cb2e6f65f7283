package llm

import (
	"fmt"
	"strconv"
	"strings"

	"marketwatch/internal/services/watcher/domain"
)

const systemPrompt = `You are an AI that determines if a product listing is relevant to a search query.
Analyze the listing title, price, images, and context to determine relevance.
You MUST respond with valid JSON only, no markdown or extra text.
Response format: {"relevant": true/false, "confidence": 0.0-1.0, "reason": "brief explanation"}`

// UserPrompt describes the query and the listing
func UserPrompt(l domain.Listing, q domain.Query) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search query: %q", q.Keyword)
	if q.Description != "" {
		b.WriteString("\nUser is looking for: " + q.Description)
	}
	b.WriteString("\nInclude terms: " + list(q.IncludeTerms))
	b.WriteString("\nExclude terms: " + list(q.ExcludeTerms))
	b.WriteString("\nPrice range: " + bound(q.MinPrice) + " - " + bound(q.MaxPrice))
	b.WriteString("\n\nListing:")
	b.WriteString("\n- Title: " + l.Title)
	b.WriteString("\n- Price: " + l.PriceText)
	b.WriteString("\n- Location: " + l.Location)
	if len(l.Tags) > 0 {
		b.WriteString("\n- Tags: " + strings.Join(l.Tags, ", "))
	}
	b.WriteString("\n\nIs this listing relevant to the search query?")
	return b.String()
}

func list(ts []string) string {
	if len(ts) == 0 {
		return "none"
	}
	return strings.Join(ts, ", ")
}

func bound(p *float64) string {
	if p == nil {
		return "any"
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
