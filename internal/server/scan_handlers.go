package server

import (
	"net/http"
	"strings"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/scanlog"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/scanner"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/types"
)

// allPlatforms is the period filter value that disables platform filtering.
const allPlatforms = "all"

func (s *APIServer) handleBip(w http.ResponseWriter, r *http.Request) {
	var req types.BipRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.Scanner.Scan(r.Context(), req.Barcode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.BipResponse{Status: types.StatusSuccess, Data: scanData(result)})
}

func scanData(result *scanner.Result) *types.ScanData {
	res, scan := result.Resolution, result.Scan
	data := &types.ScanData{
		ScanID:      scan.ID,
		Barcode:     res.Code,
		Platform:    res.Platform,
		Source:      res.Source,
		Found:       res.Found,
		ProductID:   res.Product.ID,
		ProductName: res.Product.Name,
		SKU:         res.Product.SKU,
		Price:       res.Product.Price.StringFixed(2),
		ImageURL:    res.Product.ImageURL,
		CapturedAt:  formatMillis(scan.CapturedAt),
		Order:       res.Order,
	}
	if res.Order != nil {
		data.OrderID = res.Order.ID
		data.BuyerName = res.Order.DisplayBuyer()
	}
	return data
}

func (s *APIServer) handleReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	byDay, err := s.Log.AggregateByDay(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	byPlatform, err := s.Log.AggregateByPlatform(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	recent, err := s.Log.Recent(ctx, scanlog.DefaultRecentLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := types.ReportsResponse{
		ByDay:      make([]types.DayCount, 0, len(byDay)),
		ByPlatform: make([]types.PlatformCount, 0, len(byPlatform)),
		Recent:     scanRecords(recent),
	}
	for _, d := range byDay {
		resp.ByDay = append(resp.ByDay, types.DayCount{Day: d.Day, Count: d.Count})
	}
	for _, p := range byPlatform {
		resp.ByPlatform = append(resp.ByPlatform, types.PlatformCount{Platform: p.Platform, Count: p.Count})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *APIServer) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	var (
		report *scanlog.DailyReport
		err    error
	)
	if date := r.URL.Query().Get("date"); date != "" {
		day, perr := scanlog.ParseDate(date)
		if perr != nil {
			s.writeError(w, r, perr)
			return
		}
		report, err = s.Log.Daily(r.Context(), day)
	} else {
		report, err = s.Log.Today(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, types.DailyReportResponse{
		Date:       report.Date,
		Total:      report.Total,
		ByPlatform: report.ByPlatform,
		Scans:      scanRecords(report.Scans),
	})
}

func (s *APIServer) handlePeriodReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := scanlog.ParseDate(q.Get("start_date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := scanlog.ParseDate(q.Get("end_date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// Platform filters may name a provider id; scans store display names.
	// "all" and an empty filter both match every platform.
	platform := strings.TrimSpace(q.Get("platform"))
	if strings.EqualFold(platform, allPlatforms) {
		platform = ""
	}
	if p, ok := s.Flow.Providers().Lookup(platform); ok {
		platform = p.Name
	}

	report, err := s.Log.Period(r.Context(), from, to, platform)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := types.PeriodReportResponse{
		StartDate: report.Start,
		EndDate:   report.End,
		Platform:  report.Platform,
		Summary: types.PeriodSummary{
			Total:       report.Total,
			Average:     report.Average,
			BestDay:     types.BestDay{Date: report.BestDay.Day, Count: report.BestDay.Count},
			TopPlatform: types.TopPlatform{Name: report.TopPlatform.Name, Percentage: report.TopPlatform.Percentage},
		},
		Daily:     make([]types.PeriodDay, 0, len(report.Days)),
		Platforms: report.Platforms,
		Hourly:    report.Hourly[:],
	}
	for _, d := range report.Days {
		resp.Daily = append(resp.Daily, types.PeriodDay{Date: d.Date, Total: d.Total, Platforms: d.ByPlatform})
	}
	writeJSON(w, http.StatusOK, resp)
}
