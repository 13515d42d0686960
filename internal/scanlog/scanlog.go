// Package scanlog is the append-only record of scans and its reports.
package scanlog

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/apperr"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/models"
)

// DefaultRecentLimit applies when Recent is called with a non-positive limit.
const DefaultRecentLimit = 5

// MaxPeriodDays bounds the span of a period report.
const MaxPeriodDays = 366

// DateLayout is the calendar date format used by reports.
const DateLayout = "2006-01-02"

// Store persists scan records.
type Store interface {
	CreateScan(ctx context.Context, scan *models.Scan) (int64, error)
	RecentScans(ctx context.Context, limit int) ([]models.Scan, error)
	ListScansBetween(ctx context.Context, from, to int64, platform string) ([]models.Scan, error)
	CountScansByDay(ctx context.Context) ([]models.DayCount, error)
	CountScansByPlatform(ctx context.Context) ([]models.PlatformCount, error)
}

// Log appends scans and answers report queries. Dates are UTC.
type Log struct {
	store Store
	now   func() time.Time
}

// New creates a Log. A nil now uses time.Now.
func New(store Store, now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	return &Log{store: store, now: now}
}

// Record stamps the capture instant and appends the scan.
func (l *Log) Record(ctx context.Context, scan *models.Scan) error {
	if strings.TrimSpace(scan.Barcode) == "" {
		return &apperr.FormatError{Input: scan.Barcode, Reason: "empty code"}
	}
	scan.CapturedAt = l.now().UnixMilli()
	id, err := l.store.CreateScan(ctx, scan)
	if err != nil {
		return err
	}
	scan.ID = id
	return nil
}

// Recent returns up to limit scans, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]models.Scan, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	scans, err := l.store.RecentScans(ctx, limit)
	if err != nil {
		return nil, err
	}
	if scans == nil {
		scans = []models.Scan{}
	}
	return scans, nil
}

// AggregateByDay counts scans per capture date, newest date first.
func (l *Log) AggregateByDay(ctx context.Context) ([]models.DayCount, error) {
	counts, err := l.store.CountScansByDay(ctx)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []models.DayCount{}
	}
	return counts, nil
}

// AggregateByPlatform counts scans per platform name.
func (l *Log) AggregateByPlatform(ctx context.Context) ([]models.PlatformCount, error) {
	counts, err := l.store.CountScansByPlatform(ctx)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []models.PlatformCount{}
	}
	return counts, nil
}

// DailyReport summarizes one calendar day.
type DailyReport struct {
	Date       string
	Total      int
	ByPlatform map[string]int
	Scans      []models.Scan
}

// Daily reports the scans captured on day.
func (l *Log) Daily(ctx context.Context, day time.Time) (*DailyReport, error) {
	start := truncateDay(day)
	scans, err := l.store.ListScansBetween(ctx, start.UnixMilli(), start.AddDate(0, 0, 1).UnixMilli(), "")
	if err != nil {
		return nil, err
	}
	report := &DailyReport{
		Date:       start.Format(DateLayout),
		Total:      len(scans),
		ByPlatform: make(map[string]int),
		Scans:      scans,
	}
	if report.Scans == nil {
		report.Scans = []models.Scan{}
	}
	for _, s := range scans {
		report.ByPlatform[s.Platform]++
	}
	return report, nil
}

// Today reports the current UTC day.
func (l *Log) Today(ctx context.Context) (*DailyReport, error) {
	return l.Daily(ctx, l.now())
}

// PeriodDay is one row of a period report.
type PeriodDay struct {
	Date       string
	Total      int
	ByPlatform map[string]int
}

// PlatformShare is the leading platform of a period.
type PlatformShare struct {
	Name       string
	Count      int
	Percentage int
}

// PeriodReport summarizes every day in an inclusive date range.
type PeriodReport struct {
	Start       string
	End         string
	Platform    string
	Total       int
	Average     int
	BestDay     models.DayCount
	TopPlatform PlatformShare
	Days        []PeriodDay
	Platforms   map[string]int
	Hourly      [24]int
}

// Period reports scans captured between the from and to dates, both
// inclusive. An empty platform matches all platforms.
func (l *Log) Period(ctx context.Context, from, to time.Time, platform string) (*PeriodReport, error) {
	start, end := truncateDay(from), truncateDay(to)
	if end.Before(start) {
		return nil, &apperr.FormatError{Input: to.Format(DateLayout), Reason: "end date is before start date"}
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days > MaxPeriodDays {
		return nil, &apperr.FormatError{Input: to.Format(DateLayout), Reason: "period longer than 366 days"}
	}

	scans, err := l.store.ListScansBetween(ctx, start.UnixMilli(), end.AddDate(0, 0, 1).UnixMilli(), platform)
	if err != nil {
		return nil, err
	}

	report := &PeriodReport{
		Start:     start.Format(DateLayout),
		End:       end.Format(DateLayout),
		Platform:  platform,
		Total:     len(scans),
		Days:      make([]PeriodDay, days),
		Platforms: make(map[string]int),
	}
	index := make(map[string]int, days)
	for i := range report.Days {
		date := start.AddDate(0, 0, i).Format(DateLayout)
		report.Days[i] = PeriodDay{Date: date, ByPlatform: make(map[string]int)}
		index[date] = i
	}

	for _, s := range scans {
		captured := time.UnixMilli(s.CapturedAt).UTC()
		if i, ok := index[captured.Format(DateLayout)]; ok {
			report.Days[i].Total++
			report.Days[i].ByPlatform[s.Platform]++
		}
		report.Platforms[s.Platform]++
		report.Hourly[captured.Hour()]++
	}

	for _, d := range report.Days {
		if d.Total > report.BestDay.Count {
			report.BestDay = models.DayCount{Day: d.Date, Count: d.Total}
		}
	}
	report.Average = int(math.Round(float64(report.Total) / float64(days)))
	report.TopPlatform = topPlatform(report.Platforms, report.Total)
	return report, nil
}

func topPlatform(counts map[string]int, total int) PlatformShare {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	var top PlatformShare
	for _, name := range names {
		if counts[name] > top.Count {
			top = PlatformShare{Name: name, Count: counts[name]}
		}
	}
	if total > 0 {
		top.Percentage = int(math.Round(float64(top.Count) * 100 / float64(total)))
	}
	return top
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, &apperr.FormatError{Input: s, Reason: "expected a YYYY-MM-DD date"}
	}
	return t, nil
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
