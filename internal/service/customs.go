package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"marketwatch/internal/alerting"
	"marketwatch/internal/detect"
	"marketwatch/internal/extract"
	"marketwatch/internal/fetcher"
	"marketwatch/internal/holiday"
	"marketwatch/internal/pdftext"
	"marketwatch/internal/state"
)

const customsStateName = "customs_seen"

// CustomsService watches the customs press-release board and announces new
// import/export status postings with figures extracted from the attached PDF.
type CustomsService struct {
	board     fetcher.BoardFetcher
	pdfs      pdftext.Extractor
	states    *state.Store
	notifier  alerting.Notifier
	holidays  *holiday.Checker
	boardLink string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCustoms constructs the customs monitor.
func NewCustoms(board fetcher.BoardFetcher, pdfs pdftext.Extractor, states *state.Store, notifier alerting.Notifier, holidays *holiday.Checker, boardLink string, logger zerolog.Logger) *CustomsService {
	return &CustomsService{
		board:     board,
		pdfs:      pdfs,
		states:    states,
		notifier:  notifier,
		holidays:  holidays,
		boardLink: boardLink,
		logger:    logger.With().Str("component", "customs_monitor").Logger(),
		now:       time.Now,
	}
}

// CheckOnce runs one board sweep. Holidays and already-completed days are
// skipped; postings seen in prior runs never re-fire.
func (s *CustomsService) CheckOnce(ctx context.Context) error {
	now := s.now().In(holiday.KST)
	if s.holidays.IsHoliday(now) {
		s.logger.Info().Msg("holiday, skipping board check")
		return nil
	}

	st := s.states.Load(customsStateName)
	today := todayIn(now)
	if st.LastRunDate == today {
		s.logger.Info().Str("date", today).Msg("already checked today, skipping")
		return nil
	}

	posts, err := s.board.FetchBoardList(ctx)
	if err != nil {
		// No data this cycle; no state mutated.
		return err
	}
	s.logger.Info().Int("posts", len(posts)).Msg("matching postings found")

	// Partial progress survives any later failure.
	defer func() {
		st.LastRunDate = today
		if saveErr := s.states.Save(customsStateName, st); saveErr != nil {
			s.logger.Warn().Err(saveErr).Msg("failed to persist seen state")
		}
	}()

	newCount := 0
	for _, post := range posts {
		if !detect.Presence(st, post.ID).Fire {
			s.logger.Debug().Str("title", post.Title).Msg("already announced")
			continue
		}

		s.announce(ctx, post)
		st.Set(post.ID, post.Title)
		newCount++
	}

	s.logger.Info().Int("new", newCount).Msg("board sweep complete")
	return nil
}

// announce extracts the report summary and delivers the notification. Every
// failure inside degrades to the extraction-fallback message; the temporary
// PDF is deleted on all paths.
func (s *CustomsService) announce(ctx context.Context, post fetcher.BoardPost) {
	var summary extract.Result
	var pdfPath, pdfName string

	attachment, err := s.board.FetchAttachment(ctx, post)
	if err != nil {
		if errors.Is(err, fetcher.ErrPostMissing) {
			s.logger.Warn().Str("post", post.ID).Msg("detail page rejected posting id")
		} else {
			s.logger.Warn().Err(err).Str("post", post.ID).Msg("detail fetch failed")
		}
	}

	var cleanup func()
	if attachment != nil {
		path, cl, err := s.board.DownloadPDF(ctx, *attachment)
		if err != nil {
			s.logger.Warn().Err(err).Str("post", post.ID).Msg("pdf download failed")
		} else {
			cleanup = cl
			pdfPath = path
			pdfName = attachment.Filename

			text, err := s.pdfs.Text(path)
			if err != nil {
				s.logger.Warn().Err(err).Str("post", post.ID).Msg("pdf text extraction failed")
			} else {
				summary = extract.Apply(text, extract.CustomsRules())
			}
		}
	}
	if cleanup != nil {
		defer cleanup()
	}

	if summary.Empty() {
		summary = extract.FromFields(extract.Field{Key: extract.KeyMonthExport, Value: alerting.ExtractionFallback})
	}

	message := alerting.FormatCustoms(post.Title, post.Date, s.boardLink, summary)

	if s.notifier == nil {
		return
	}
	if pdfPath != "" {
		err := s.notifier.NotifyFile(ctx, message, pdfPath, pdfName)
		if err == nil {
			return
		}
		s.logger.Error().Err(err).Str("post", post.ID).Msg("file notification failed, falling back to text")
	}
	notify(ctx, s.notifier, s.logger, message)
}
