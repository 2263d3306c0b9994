package remote

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/seenimoa/agriprice/internal/catalog"
	"github.com/seenimoa/agriprice/internal/history"
	"github.com/seenimoa/agriprice/internal/matcher"
	"github.com/seenimoa/agriprice/pkg/models"
	"github.com/seenimoa/agriprice/pkg/utils"
)

// liveStrategy downloads the published price report and resolves its rows
// against the catalog.
type liveStrategy struct {
	src *Source
}

func (l *liveStrategy) Name() string { return TierLive }

func (l *liveStrategy) Attempt(ctx context.Context, cat *catalog.Catalog) (Result, error) {
	s := l.src
	if s.cfg.LiveDisabled {
		return Result{}, skipf("live fetch disabled")
	}
	url := strings.TrimSpace(s.cfg.ReportURL)
	if s.cfg.FeedURL != "" {
		if found, err := s.discover(ctx); err != nil {
			logx.WithContext(ctx).Errorf("remote: report discovery failed feed=%s err=%v", s.cfg.FeedURL, err)
		} else if found != "" {
			url = found
		}
	}
	if url == "" {
		return Result{}, skipf("no report URL configured")
	}

	rows, err := s.fetchRows(ctx, url)
	if err != nil {
		return Result{}, skipf("%v", err)
	}
	latest := history.Latest(rows)
	if need := s.cfg.MinRows; need > 0 && len(latest) < need {
		return Result{}, skipf("report has %d usable rows, need %d", len(latest), need)
	}
	if len(latest) == 0 {
		return Result{}, skipf("report has no usable rows")
	}

	recs := s.resolve(cat, latest, rows)
	if len(recs) == 0 {
		return Result{}, skipf("no catalog entry matched %d report rows", len(latest))
	}
	return Result{Records: recs, Rows: usable(rows)}, nil
}

// usable keeps the rows that carry a valid amount.
func usable(rows []models.RawPriceRow) []models.RawPriceRow {
	out := make([]models.RawPriceRow, 0, len(rows))
	for _, r := range rows {
		if _, ok := r.ValidAmount(); ok {
			out = append(out, r)
		}
	}
	return out
}

// FetchRows downloads url and returns every row it carries, including rows
// with unusable amounts.
func (s *Source) FetchRows(ctx context.Context, url string) ([]models.RawPriceRow, error) {
	return s.fetchRows(ctx, url)
}

func (s *Source) fetchRows(ctx context.Context, url string) ([]models.RawPriceRow, error) {
	timeout := s.cfg.Timeout()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, contentType, err := s.doGet(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, s.maxBody()))
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", url, err)
	}
	rows, err := parseReport(data, contentType, utils.DateString(s.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("parse report %s: %w", url, err)
	}
	return rows, nil
}

// resolve turns report rows into one record per matched catalog entry. The
// change fields compare against the preceding observation in all, when the
// report carries one.
func (s *Source) resolve(cat *catalog.Catalog, latest, all []models.RawPriceRow) []models.PriceRecord {
	region := s.region()
	today := utils.DateString(s.clock.Now())
	var recs []models.PriceRecord
	for _, entry := range cat.Entries() {
		row, ok := matcher.Match(entry, latest)
		if !ok {
			continue
		}
		amount, _ := row.ValidAmount()
		rec := models.PriceRecord{
			CommodityID:   entry.ID,
			CommodityName: entry.Name,
			Price:         utils.Round2(amount),
			Unit:          entry.Unit,
			Date:          today,
			Source:        models.SourceRemote,
			Region:        region,
			Specification: row.Specification,
		}
		if t, ok := row.ParsedDate(); ok {
			rec.Date = t.Format(utils.DateLayout)
		}
		if prev, ok := history.Previous(all, row); ok {
			p, _ := prev.ValidAmount()
			tr := history.Trend(amount, p)
			rec.PriceChange, rec.PriceChangePercent = tr.Change, tr.ChangePercent
		}
		recs = append(recs, rec)
	}
	return recs
}

func (s *Source) region() string {
	if r := strings.TrimSpace(s.cfg.Region); r != "" {
		return r
	}
	return models.DefaultRegion
}

// --- report discovery ---

// discover reads the configured feed and returns the link of the newest
// item that announces a price report, or "" when none does.
func (s *Source) discover(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	body, _, err := s.doGet(ctx, s.cfg.FeedURL, map[string]string{
		"Accept": "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8",
	})
	if err != nil {
		return "", err
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(io.LimitReader(body, s.maxBody()))
	if err != nil {
		return "", fmt.Errorf("parse feed: %w", err)
	}

	var (
		link   string
		newest time.Time
	)
	for _, item := range feed.Items {
		text := strings.ToLower(item.Title + " " + item.Link)
		if !strings.Contains(text, "price") || item.Link == "" {
			continue
		}
		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		}
		if link == "" || published.After(newest) {
			link, newest = item.Link, published
		}
	}
	return link, nil
}
