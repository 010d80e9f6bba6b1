package fetcher

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// DramOptions parameterise the DRAMeXchange spot table fetcher.
type DramOptions struct {
	BaseURL string
	Targets []string
}

// Dram scrapes Session Average prices for tracked memory components.
type Dram struct {
	opts   DramOptions
	client *Client
	logger zerolog.Logger
}

// NewDram builds a DRAMeXchange fetcher.
func NewDram(opts DramOptions, client *Client, logger zerolog.Logger) *Dram {
	return &Dram{
		opts:   opts,
		client: client,
		logger: logger.With().Str("component", "dram_fetcher").Logger(),
	}
}

var itemSpaceRe = regexp.MustCompile(`\s+`)

// FetchSpotPrices returns the session average and session change for each
// configured target found in a Session Average table. Missing targets are
// simply absent from the result.
func (d *Dram) FetchSpotPrices(ctx context.Context) (map[string]SpotPrice, error) {
	body, err := d.client.Get(ctx, d.opts.BaseURL, nil)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	prices := make(map[string]SpotPrice)
	seen := make(map[string]bool)

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() == 0 {
			return
		}
		if !strings.Contains(rows.First().Text(), "Session Average") {
			return
		}

		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() < 7 {
				return
			}

			item := normalizeItem(cells.Eq(0).Text())
			for _, target := range d.opts.Targets {
				if normalizeItem(target) != item || seen[target] {
					continue
				}
				prices[target] = SpotPrice{
					SessionAverage: strings.TrimSpace(cells.Eq(5).Text()),
					SessionChange:  strings.TrimSpace(cells.Eq(6).Text()),
				}
				seen[target] = true
			}
		})
	})

	return prices, nil
}

// normalizeItem collapses layout-driven spacing in model names so that table
// cells compare equal to configured targets.
func normalizeItem(s string) string {
	return itemSpaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

var _ SpotPriceFetcher = (*Dram)(nil)
