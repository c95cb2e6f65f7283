package service

import (
	notifydom "marketwatch/internal/services/notify/domain"
	wdom "marketwatch/internal/services/watcher/domain"
)

// BuildMessage renders a listing into the channel neutral message
func BuildMessage(l wdom.Listing, q wdom.Query, v *wdom.Verification) notifydom.Message {
	m := notifydom.Message{
		Title:        orDefault(l.Title, "N/A"),
		Price:        orDefault(l.PriceText, "N/A"),
		Link:         orDefault(l.URL, "#"),
		ImageURL:     l.ImageURL,
		Listing:      l,
		Query:        q,
		Verification: v,
	}
	if v != nil {
		m.Reason = v.Reason
	}
	return m
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
