package goofish

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	perr "marketwatch/internal/platform/errors"
	"marketwatch/internal/services/watcher/domain"
)

// loose decodes a JSON string, number or bool as text; anything else is empty
type loose string

// UnmarshalJSON implements json.Unmarshaler
func (s *loose) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*s = ""
	case b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = loose(v)
	case b[0] == '{' || b[0] == '[':
		*s = ""
	default:
		*s = loose(b)
	}
	return nil
}

type searchEnvelope struct {
	Ret  []string `json:"ret"`
	Data struct {
		ResultList []struct {
			Data struct {
				Item struct {
					Main searchMain `json:"main"`
				} `json:"item"`
			} `json:"data"`
		} `json:"resultList"`
	} `json:"data"`
}

type searchMain struct {
	ExContent struct {
		ItemID       loose           `json:"itemId"`
		Title        loose           `json:"title"`
		Price        json.RawMessage `json:"price"`
		OriPrice     loose           `json:"oriPrice"`
		Area         loose           `json:"area"`
		UserNickName loose           `json:"userNickName"`
		UserID       loose           `json:"userId"`
		PicURL       loose           `json:"picUrl"`
		FishTags     struct {
			R1 struct {
				TagList []struct {
					Data struct {
						Content loose `json:"content"`
					} `json:"data"`
				} `json:"tagList"`
			} `json:"r1"`
		} `json:"fishTags"`
	} `json:"exContent"`
	ClickParam struct {
		Args struct {
			PublishTime loose `json:"publishTime"`
			WantNum     loose `json:"wantNum"`
			Tag         loose `json:"tag"`
		} `json:"args"`
	} `json:"clickParam"`
	TargetURL loose `json:"targetUrl"`
}

// ParseSearch decodes one intercepted search response into raw listings in feed order
func ParseSearch(body []byte) ([]domain.RawListing, error) {
	var env searchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUpstream, "goofish search payload")
	}
	if err := checkRet(env.Ret); err != nil {
		return nil, err
	}

	out := make([]domain.RawListing, 0, len(env.Data.ResultList))
	for _, r := range env.Data.ResultList {
		m := r.Data.Item.Main
		ex := m.ExContent
		args := m.ClickParam.Args

		var tags []string
		if args.Tag == "freeship" {
			tags = append(tags, domain.TagFreeShipping)
		}
		for _, t := range ex.FishTags.R1.TagList {
			if strings.Contains(string(t.Data.Content), domain.TagInspected) {
				tags = append(tags, domain.TagInspected)
				break
			}
		}

		out = append(out, domain.RawListing{
			ItemID:        string(ex.ItemID),
			Title:         string(ex.Title),
			PriceText:     priceText(ex.Price),
			OriginalPrice: string(ex.OriPrice),
			Area:          string(ex.Area),
			SellerID:      string(ex.UserID),
			SellerName:    string(ex.UserNickName),
			PicURL:        string(ex.PicURL),
			TargetURL:     string(m.TargetURL),
			PublishTimeMs: string(args.PublishTime),
			WantCount:     string(args.WantNum),
			Tags:          tags,
		})
	}
	return out, nil
}

// priceText joins the text parts of a price list, or takes a scalar price as is
func priceText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var parts []struct {
		Text loose `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		var b strings.Builder
		for _, p := range parts {
			b.WriteString(string(p.Text))
		}
		return b.String()
	}
	var s loose
	if err := json.Unmarshal(raw, &s); err == nil {
		return string(s)
	}
	return ""
}

// checkRet maps mtop ret codes; anything other than SUCCESS is a session problem
func checkRet(ret []string) error {
	if len(ret) == 0 {
		return nil
	}
	for _, r := range ret {
		if strings.HasPrefix(r, "SUCCESS") {
			return nil
		}
	}
	msg := strings.Join(ret, "; ")
	if strings.Contains(msg, "TOKEN") || strings.Contains(msg, "SESSION") || strings.Contains(msg, "RGV587") {
		return perr.Unauthorizedf("goofish rejected session: %s", msg)
	}
	return perr.Upstreamf("goofish error: %s", msg)
}

// Ratings is the tally of a seller's rating cards
type Ratings struct {
	SellerPositive int
	SellerTotal    int
	BuyerPositive  int
	BuyerTotal     int
}

// SellerRate is the positive share of seller-role ratings in percent
func (r Ratings) SellerRate() float64 {
	if r.SellerTotal == 0 {
		return 0
	}
	return float64(r.SellerPositive) / float64(r.SellerTotal) * 100
}

// Transactions counts every rated trade in either role
func (r Ratings) Transactions() int { return r.SellerTotal + r.BuyerTotal }

// ParseRatings tallies the rating cards of a profile page
func ParseRatings(body []byte) (Ratings, error) {
	var env struct {
		Data struct {
			CardList []struct {
				CardData struct {
					Rate        loose `json:"rate"`
					RateTagList []struct {
						Text string `json:"text"`
					} `json:"rateTagList"`
				} `json:"cardData"`
			} `json:"cardList"`
		} `json:"data"`
	}
	var r Ratings
	if err := json.Unmarshal(body, &env); err != nil {
		return r, perr.Wrap(err, perr.ErrorCodeUpstream, "goofish ratings payload")
	}
	for _, c := range env.Data.CardList {
		if len(c.CardData.RateTagList) == 0 {
			continue
		}
		role := c.CardData.RateTagList[0].Text
		positive := c.CardData.Rate == "1"
		switch {
		case strings.Contains(role, "卖家"):
			r.SellerTotal++
			if positive {
				r.SellerPositive++
			}
		case strings.Contains(role, "买家"):
			r.BuyerTotal++
			if positive {
				r.BuyerPositive++
			}
		}
	}
	return r, nil
}

// ParseRegDays reads the registration age from the profile head payload; 0 when absent
func ParseRegDays(body []byte) (int, error) {
	var env struct {
		Data struct {
			Module struct {
				Base struct {
					RegDays loose `json:"regDays"`
				} `json:"base"`
			} `json:"module"`
			Item struct {
				Main struct {
					UserHead struct {
						RegDays loose `json:"regDays"`
					} `json:"userHead"`
				} `json:"main"`
			} `json:"item"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeUpstream, "goofish profile payload")
	}
	raw := env.Data.Item.Main.UserHead.RegDays
	if raw == "" {
		raw = env.Data.Module.Base.RegDays
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

// BuildReputation combines ratings and account age into a Reputation.
// Score weighs positive rate 0.4, trade volume 0.3 (saturating at 1000) and account age 0.3 (saturating at ten years).
func BuildReputation(r Ratings, regDays int) *domain.Reputation {
	rep := &domain.Reputation{
		RegistrationDays: regDays,
		RegistrationText: RegistrationText(regDays),
		SellerRating:     r.SellerRate() / 100,
		SellerTotal:      r.SellerTotal,
		Transactions:     r.Transactions(),
	}
	if r.SellerTotal > 0 {
		s := (r.SellerRate()/100*0.4 +
			math.Min(float64(r.Transactions())/1000, 1)*0.3 +
			math.Min(float64(regDays)/3650, 1)*0.3) * 100
		s = math.Round(s*100) / 100
		rep.Score = &s
	}
	return rep
}

// RegistrationText renders account age as N天, Y年 or Y年D天
func RegistrationText(days int) string {
	if days < 365 {
		return strconv.Itoa(days) + "天"
	}
	y, d := days/365, days%365
	if d == 0 {
		return strconv.Itoa(y) + "年"
	}
	return strconv.Itoa(y) + "年" + strconv.Itoa(d) + "天"
}
