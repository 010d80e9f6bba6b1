package fetcher

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// OilOptions parameterise the oil price fetcher.
type OilOptions struct {
	// Tickers maps an oil type (WTI, Brent) to its provider ticker.
	Tickers map[string]string
	// ScrapeURL is the price-table page used for types without a ticker.
	ScrapeURL string
	// ScrapeNames lists row labels to pull from the table (e.g. Dubai).
	ScrapeNames []string
}

// Oil combines the market-data provider with the price-table scrape. Sources
// are independent; a failed one only removes its types from the result.
type Oil struct {
	opts   OilOptions
	quotes *OHLCV
	client *Client
	logger zerolog.Logger
}

// NewOil builds an oil price fetcher.
func NewOil(opts OilOptions, quotes *OHLCV, client *Client, logger zerolog.Logger) *Oil {
	return &Oil{
		opts:   opts,
		quotes: quotes,
		client: client,
		logger: logger.With().Str("component", "oil_fetcher").Logger(),
	}
}

// FetchOilPrices returns current prices keyed by oil type, rounded to cents.
func (o *Oil) FetchOilPrices(ctx context.Context) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal)

	for name, ticker := range o.opts.Tickers {
		quote, err := o.quotes.FetchQuote(ctx, ticker)
		if err != nil {
			o.logger.Warn().Err(err).Str("type", name).Msg("quote lookup failed")
			continue
		}
		prices[name] = quote.Current.Round(2)
	}

	if o.opts.ScrapeURL != "" && len(o.opts.ScrapeNames) > 0 {
		scraped, err := o.scrapeTable(ctx)
		if err != nil {
			o.logger.Warn().Err(err).Msg("price table scrape failed")
		} else {
			for name, price := range scraped {
				prices[name] = price
			}
		}
	}

	return prices, nil
}

func (o *Oil) scrapeTable(ctx context.Context) (map[string]decimal.Decimal, error) {
	body, err := o.client.Get(ctx, o.opts.ScrapeURL, nil)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(o.opts.ScrapeNames))
	for _, n := range o.opts.ScrapeNames {
		wanted[n] = true
	}

	prices := make(map[string]decimal.Decimal)
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		name := strings.TrimSpace(cells.Eq(1).Text())
		if !wanted[name] {
			return
		}
		if _, done := prices[name]; done {
			return
		}
		price, err := decimal.NewFromString(strings.TrimSpace(cells.Eq(2).Text()))
		if err != nil {
			o.logger.Warn().Str("type", name).Msg("unparseable price cell")
			return
		}
		prices[name] = price.Round(2)
	})

	return prices, nil
}

var _ OilPriceFetcher = (*Oil)(nil)
