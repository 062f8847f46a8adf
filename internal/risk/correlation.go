package risk

import (
	"math"
	"sort"
	"time"

	"github.com/quantfold/marketlens/internal/models"
)

// minOverlapReturns is the fewest aligned return observations a symbol
// pair needs before its correlation is reported.
const minOverlapReturns = 10

// CorrelationMatrix computes pairwise Pearson correlations of daily
// returns across the given series, aligning each pair on the intersection
// of their trading dates. Pairs with too little overlap, or with a
// zero-variance leg, are left out of the matrix. The diagonal is exactly 1.
func CorrelationMatrix(seriesBySymbol map[string]*models.PriceSeries) models.CorrelationMatrix {
	symbols := make([]string, 0, len(seriesBySymbol))
	closesBySymbol := make(map[string]map[time.Time]float64, len(seriesBySymbol))
	for sym, series := range seriesBySymbol {
		if series == nil || series.Len() == 0 {
			continue
		}
		closes := make(map[time.Time]float64, series.Len())
		for _, p := range series.Points {
			closes[p.Date.Truncate(24*time.Hour)] = p.Close
		}
		symbols = append(symbols, sym)
		closesBySymbol[sym] = closes
	}
	sort.Strings(symbols)

	matrix := models.CorrelationMatrix{
		Symbols: symbols,
		Values:  make(map[string]map[string]float64, len(symbols)),
	}
	for _, sym := range symbols {
		matrix.Values[sym] = map[string]float64{sym: 1.0}
	}

	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			a, b := symbols[i], symbols[j]
			ra, rb := alignedReturns(closesBySymbol[a], closesBySymbol[b])
			corr, ok := pearson(ra, rb)
			if !ok {
				continue
			}
			matrix.Values[a][b] = corr
			matrix.Values[b][a] = corr
		}
	}
	return matrix
}

// Beta regresses an asset's daily returns against a benchmark's over their
// shared trading dates: cov(asset, market) / var(market).
func Beta(asset, market *models.PriceSeries) (float64, error) {
	if asset == nil || market == nil {
		return 0, models.ErrInsufficientData
	}
	ra, rm := alignedReturns(closesByDate(asset), closesByDate(market))
	if len(ra) < minOverlapReturns {
		return 0, models.ErrInsufficientData
	}
	ma, mm := mean(ra), mean(rm)
	var cov, varM float64
	for k := range ra {
		cov += (ra[k] - ma) * (rm[k] - mm)
		varM += (rm[k] - mm) * (rm[k] - mm)
	}
	if varM == 0 {
		return 0, models.ErrUndefined
	}
	return cov / varM, nil
}

func closesByDate(series *models.PriceSeries) map[time.Time]float64 {
	closes := make(map[time.Time]float64, series.Len())
	for _, p := range series.Points {
		closes[p.Date.Truncate(24*time.Hour)] = p.Close
	}
	return closes
}

// alignedReturns builds two parallel return slices over the sorted
// intersection of dates present in both close maps.
func alignedReturns(a, b map[time.Time]float64) ([]float64, []float64) {
	shared := make([]time.Time, 0, len(a))
	for date := range a {
		if _, ok := b[date]; ok {
			shared = append(shared, date)
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i].Before(shared[j]) })

	var ra, rb []float64
	for i := 1; i < len(shared); i++ {
		prevA, curA := a[shared[i-1]], a[shared[i]]
		prevB, curB := b[shared[i-1]], b[shared[i]]
		if prevA == 0 || prevB == 0 {
			continue
		}
		ra = append(ra, curA/prevA-1)
		rb = append(rb, curB/prevB-1)
	}
	return ra, rb
}

func pearson(x, y []float64) (float64, bool) {
	if len(x) != len(y) || len(x) < minOverlapReturns {
		return 0, false
	}
	mx, my := mean(x), mean(y)
	var cov, varX, varY float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varX*varY), true
}
