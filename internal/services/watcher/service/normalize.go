package service

import (
	"strconv"
	"strings"

	pstrings "marketwatch/internal/platform/strings"
	ptime "marketwatch/internal/platform/time"
	"marketwatch/internal/services/watcher/domain"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	untitled       = "未知标题"
	noOriginal     = "暂无"
	appScheme      = "fleamarket://"
	webBase        = "https://www.goofish.com/"
	tenThousand    = "万"
	itemURLPattern = webBase + "item?id="
)

var (
	priceNoise   = strings.NewReplacer("当前价", "", "¥", "", "￥", "", ",", "", "，", "", " ", "")
	pricePrinter = message.NewPrinter(language.English)
)

// ParsePrice reads marketplace price text; 万 multiplies by 10000 and junk yields 0
func ParsePrice(text string) float64 {
	s := strings.TrimSpace(priceNoise.Replace(text))
	mult := 1.0
	if strings.Contains(s, tenThousand) {
		mult = 10000
		s = strings.ReplaceAll(s, tenThousand, "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v * mult
}

// FormatPrice renders a price as ¥1,299.00
func FormatPrice(v float64) string { return pricePrinter.Sprintf("¥%.2f", v) }

// leadingInt reads the digits at the start of s, e.g. "12人想要" -> 12
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	return n, err == nil
}

func detailURL(target, id string) string {
	target = strings.TrimSpace(target)
	switch {
	case strings.HasPrefix(target, appScheme):
		return webBase + strings.TrimPrefix(target, appScheme)
	case target != "":
		return target
	case id != "":
		return itemURLPattern + id
	}
	return ""
}

// Normalize turns one raw search record into a Listing; ok is false when it has no id
func Normalize(r domain.RawListing) (domain.Listing, bool) {
	id := strings.TrimSpace(r.ItemID)
	if id == "" {
		return domain.Listing{}, false
	}

	l := domain.Listing{
		ID:         id,
		Title:      strings.TrimSpace(r.Title),
		Price:      ParsePrice(r.PriceText),
		ImageURL:   strings.TrimSpace(r.PicURL),
		SellerID:   strings.TrimSpace(r.SellerID),
		SellerName: strings.TrimSpace(r.SellerName),
		Location:   strings.TrimSpace(r.Area),
		URL:        detailURL(r.TargetURL, id),
		Tags:       pstrings.Terms(r.Tags),
	}
	if l.Title == "" {
		l.Title = untitled
	}
	l.PriceText = FormatPrice(l.Price)

	if op := strings.TrimSpace(r.OriginalPrice); op != "" && op != noOriginal {
		l.OriginalPrice = &op
	}
	if n, ok := leadingInt(r.WantCount); ok {
		l.Wants = &n
	}
	if ms, err := strconv.ParseInt(strings.TrimSpace(r.PublishTimeMs), 10, 64); err == nil {
		if t := ptime.FromUnixMilli(ms); !t.IsZero() {
			l.PublishedAt = &t
		}
	}
	return l, true
}

// NormalizeAll keeps feed order and drops records that fail Normalize or repeat an id
func NormalizeAll(raws []domain.RawListing) []domain.Listing {
	out := make([]domain.Listing, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	for _, r := range raws {
		l, ok := Normalize(r)
		if !ok {
			continue
		}
		if _, dup := seen[l.ID]; dup {
			continue
		}
		seen[l.ID] = struct{}{}
		out = append(out, l)
	}
	return out
}
