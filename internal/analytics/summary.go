package analytics

import (
	"math"
	"sort"

	"github.com/wonny/dipscan/internal/contracts"
	"github.com/wonny/dipscan/internal/normalize"
)

// companyStats accumulates one company's rows in a single pass
type companyStats struct {
	first, last contracts.PricePoint
	returns     []float64
}

// Summarize returns one record per company, ordered by company name.
// Statistics are computed on unrounded values and rounded to 2 decimals.
func Summarize(ds contracts.Dataset) []contracts.SummaryRecord {
	stats := make(map[string]*companyStats)

	for _, p := range ds.Points {
		s, ok := stats[p.Company]
		if !ok {
			stats[p.Company] = &companyStats{first: p, last: p}
			s = stats[p.Company]
		} else {
			if p.Date.Before(s.first.Date) {
				s.first = p
			}
			if !p.Date.Before(s.last.Date) {
				s.last = p
			}
		}
		if p.ReturnPct != nil {
			s.returns = append(s.returns, *p.ReturnPct)
		}
	}

	companies := make([]string, 0, len(stats))
	for c := range stats {
		companies = append(companies, c)
	}
	sort.Strings(companies)

	records := make([]contracts.SummaryRecord, 0, len(companies))
	for _, c := range companies {
		s := stats[c]
		rec := contracts.SummaryRecord{
			Company:    c,
			FirstPrice: normalize.Round2(s.first.Price),
			LastPrice:  normalize.Round2(s.last.Price),
		}

		// 첫 가격이 0 이하이면 총수익률 정의 불가
		if s.first.Price > 0 {
			total := 100 * (s.last.Price/s.first.Price - 1)
			rec.TotalReturn = normalize.Round2Ptr(&total)
		}

		rec.Volatility = normalize.Round2Ptr(sampleStdDev(s.returns))

		if len(s.returns) > 0 {
			lo, hi := s.returns[0], s.returns[0]
			for _, r := range s.returns[1:] {
				lo = math.Min(lo, r)
				hi = math.Max(hi, r)
			}
			rec.MaxReturn = normalize.Round2Ptr(&hi)
			rec.MinReturn = normalize.Round2Ptr(&lo)
		}

		records = append(records, rec)
	}

	return records
}

// sampleStdDev uses the n-1 denominator; nil with fewer than 2 values
func sampleStdDev(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}

	// 평균 계산
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	// 표본 표준편차 계산
	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values) - 1)

	std := math.Sqrt(variance)
	return &std
}
