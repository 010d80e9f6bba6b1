package fetcher

import (
	"context"

	"github.com/shopspring/decimal"
)

// BoardPost is one posting on the customs press-release board.
type BoardPost struct {
	ID       string
	DetailID string
	Title    string
	Date     string
}

// Attachment points at a downloadable report file.
type Attachment struct {
	URL      string
	Filename string
}

// BoardFetcher retrieves press-release postings and their attachments.
type BoardFetcher interface {
	FetchBoardList(ctx context.Context) ([]BoardPost, error)
	FetchAttachment(ctx context.Context, post BoardPost) (*Attachment, error)
	DownloadPDF(ctx context.Context, att Attachment) (path string, cleanup func(), err error)
}

// SpotPrice is one DRAMeXchange session-average quote, kept as reported.
type SpotPrice struct {
	SessionAverage string
	SessionChange  string
}

// SpotPriceFetcher retrieves session-average prices for tracked items.
type SpotPriceFetcher interface {
	FetchSpotPrices(ctx context.Context) (map[string]SpotPrice, error)
}

// OilPriceFetcher retrieves current prices per oil type.
type OilPriceFetcher interface {
	FetchOilPrices(ctx context.Context) (map[string]decimal.Decimal, error)
}

// Quote is a daily snapshot of one listed security.
type Quote struct {
	Ticker    string
	Current   decimal.Decimal
	PrevClose decimal.Decimal
	ChangePct decimal.Decimal
}

// QuoteFetcher retrieves the latest close and day-over-day change.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, ticker string) (Quote, error)
}
