package fetcher

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// ErrPostMissing indicates the detail page rejected the posting id.
var ErrPostMissing = errors.New("board post does not exist")

// CustomsOptions parameterise the customs board fetcher.
type CustomsOptions struct {
	BoardURL  string
	DetailURL string
	SiteBase  string
	MenuID    string
	BoardID   string
}

// Customs scrapes the Korea Customs Service press-release board for
// import/export status postings.
type Customs struct {
	opts   CustomsOptions
	client *Client
	logger zerolog.Logger
}

// NewCustoms builds a customs board fetcher.
func NewCustoms(opts CustomsOptions, client *Client, logger zerolog.Logger) *Customs {
	return &Customs{
		opts:   opts,
		client: client,
		logger: logger.With().Str("component", "customs_fetcher").Logger(),
	}
}

var attachmentSuffixRe = regexp.MustCompile(`\s*\[.*`)

// FetchBoardList returns postings whose category contains 정보데이터 and
// whose title contains 수출입 현황.
func (c *Customs) FetchBoardList(ctx context.Context) ([]BoardPost, error) {
	body, err := c.client.Get(ctx, c.opts.BoardURL, c.boardParams())
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var posts []BoardPost
	doc.Find("a.nttInfoBtn").Each(func(_ int, link *goquery.Selection) {
		row := link.Closest("tr")
		if row.Length() == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}

		category := strings.TrimSpace(cells.Eq(1).Text())
		title := strings.TrimSpace(strings.ReplaceAll(link.Text(), "새글", ""))

		date := ""
		if cells.Length() >= 5 {
			date = strings.TrimSpace(cells.Eq(cells.Length() - 2).Text())
		}

		if strings.Contains(category, "정보데이터") && strings.Contains(title, "수출입 현황") {
			posts = append(posts, BoardPost{
				ID:       link.AttrOr("data-id", ""),
				DetailID: link.AttrOr("data-url", ""),
				Title:    title,
				Date:     date,
			})
		}
	})

	return posts, nil
}

// FetchAttachment loads the posting detail page and locates the PDF
// attachment link. Returns nil when the posting carries no PDF.
func (c *Customs) FetchAttachment(ctx context.Context, post BoardPost) (*Attachment, error) {
	// The detail endpoint requires the listing-page session cookie.
	if _, err := c.client.Get(ctx, c.opts.BoardURL, c.boardParams()); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("bbsId", c.opts.BoardID)
	form.Set("nttSn", post.ID)
	form.Set("nttSnUrl", post.DetailID)
	form.Set("mi", c.opts.MenuID)
	form.Set("currPage", "1")
	form.Set("searchValue", "")

	body, err := c.client.PostForm(ctx, c.opts.DetailURL, form)
	if err != nil {
		return nil, err
	}

	text := string(body)
	if strings.Contains(text, "존재하지않습니다") || strings.Contains(text, "유효하지 않은") {
		return nil, ErrPostMissing
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var attachment *Attachment
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		label := strings.TrimSpace(a.Text())
		if strings.Contains(href, "nttFileDownload") && strings.Contains(strings.ToLower(label), ".pdf") {
			attachment = &Attachment{
				URL:      c.opts.SiteBase + href,
				Filename: strings.TrimSpace(attachmentSuffixRe.ReplaceAllString(label, "")),
			}
			return false
		}
		return true
	})

	return attachment, nil
}

// DownloadPDF fetches the attachment into a temp file. The cleanup func
// deletes it and must run on every path, including failures downstream.
func (c *Customs) DownloadPDF(ctx context.Context, att Attachment) (string, func(), error) {
	return c.client.DownloadTemp(ctx, att.URL, "customs-*.pdf")
}

func (c *Customs) boardParams() url.Values {
	params := url.Values{}
	params.Set("mi", c.opts.MenuID)
	params.Set("bbsId", c.opts.BoardID)
	return params
}

var _ BoardFetcher = (*Customs)(nil)
