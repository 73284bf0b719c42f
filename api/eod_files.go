package api

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vantage/eod"
	"vantage/state"
)

func errInvalidTimeframe(tf string) error {
	return fmt.Errorf("invalid timeframe %q (want one of 1m,5m,15m,1h,4h,1d)", tf)
}

// listEODReportDates enumerates the YYYY-MM-DD report files already
// persisted under layout's eod-reports directory, newest first.
func listEODReportDates(layout state.Layout) ([]string, error) {
	dir := filepath.Dir(layout.EODReport("x"))
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		dates = append(dates, strings.TrimSuffix(name, ".json"))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

func loadEODReport(layout state.Layout, date string) (eod.Report, bool, error) {
	var report eod.Report
	ok, err := state.ReadJSON(layout.EODReport(date), &report)
	return report, ok, err
}

func saveEODReport(layout state.Layout, report eod.Report) error {
	return state.AtomicWriteJSON(layout.EODReport(report.Date), report)
}
