package training

import (
	"log/slog"
	"slices"
	"strconv"

	"github.com/crimson-sun/vettriage/internal/engine/encoder"
	"github.com/crimson-sun/vettriage/internal/model"
)

// unknownCategory fills a categorical column that has no values at all.
const unknownCategory = "Unknown"

// prepared is the imputed dataset as cases plus the columns it materializes.
type prepared struct {
	cases       []model.AnimalCase
	labels      []string
	categorical []string // categorical columns present in the data
	features    []string // feature column order for the artifact
	droppedRows int      // rows without a target label
}

// prepare imputes missing values and converts rows to cases. Categorical
// columns take their mode, numeric columns their median; temperature text is
// parsed before its median is taken.
func prepare(ds *Dataset, target string) prepared {
	var rows []map[string]string
	var p prepared
	for _, r := range ds.Rows {
		if _, ok := r[target]; !ok {
			p.droppedRows++
			continue
		}
		rows = append(rows, r)
	}
	if p.droppedRows > 0 {
		slog.Warn("dropped rows without a target label", "count", p.droppedRows, "column", target)
	}

	for _, col := range encoder.CategoricalColumns {
		if ds.HasColumn(col) {
			p.categorical = append(p.categorical, col)
		}
	}
	fill := make(map[string]string, len(p.categorical))
	for _, col := range p.categorical {
		fill[col] = mode(rows, col)
	}

	var numeric []string
	for _, col := range encoder.NumericColumns {
		if ds.HasColumn(col) {
			numeric = append(numeric, col)
		}
	}
	nums := make(map[string][]float64, len(numeric)+1)
	for _, col := range numeric {
		nums[col] = imputeNumeric(rows, col, parseFloat)
	}
	hasTemp := ds.HasColumn(encoder.ColTemperature)
	if hasTemp {
		nums[encoder.ColTemperatureNumeric] = imputeNumeric(rows, encoder.ColTemperature, encoder.ParseTemperature)
	}

	for _, col := range p.categorical {
		p.features = append(p.features, encoder.EncodedName(col))
	}
	p.features = append(p.features, numeric...)
	if hasTemp {
		p.features = append(p.features, encoder.ColTemperatureNumeric)
	}

	p.cases = make([]model.AnimalCase, len(rows))
	p.labels = make([]string, len(rows))
	for i, r := range rows {
		get := func(col string) string {
			if v, ok := r[col]; ok {
				return v
			}
			return fill[col]
		}
		num := func(col string) *float64 {
			if vs, ok := nums[col]; ok {
				return model.Float(vs[i])
			}
			return model.Float(0)
		}
		c := model.AnimalCase{
			Attributes: model.Attributes{
				Species:     get(encoder.ColAnimalType),
				Breed:       get(encoder.ColBreed),
				Gender:      get(encoder.ColGender),
				Duration:    get(encoder.ColDuration),
				Age:         num(encoder.ColAge),
				Weight:      num(encoder.ColWeight),
				HeartRate:   num(encoder.ColHeartRate),
				Temperature: num(encoder.ColTemperatureNumeric),
			},
			Indicators: make(map[string]bool, len(encoder.Indicators)),
		}
		for j, col := range encoder.SymptomColumns {
			c.Symptoms[j] = get(col)
		}
		for _, ind := range encoder.Indicators {
			c.Indicators[ind.Column] = encoder.ParseYesNo(get(ind.Column))
		}
		p.cases[i] = c
		p.labels[i] = r[target]
	}
	return p
}

// mode returns the most frequent value of col. Ties go to the
// lexicographically smallest value; a column with no values yields "Unknown".
func mode(rows []map[string]string, col string) string {
	counts := make(map[string]int)
	for _, r := range rows {
		if v, ok := r[col]; ok {
			counts[v]++
		}
	}
	best, bestN := unknownCategory, 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best
}

// imputeNumeric parses col in every row and fills missing or unparsable
// cells with the median of the parsed ones.
func imputeNumeric(rows []map[string]string, col string, parse func(string) (float64, error)) []float64 {
	out := make([]float64, len(rows))
	ok := make([]bool, len(rows))
	var seen []float64
	for i, r := range rows {
		s, present := r[col]
		if !present {
			continue
		}
		v, err := parse(s)
		if err != nil {
			continue
		}
		out[i], ok[i] = v, true
		seen = append(seen, v)
	}
	m := median(seen)
	if len(seen) == 0 {
		slog.Warn("numeric column has no usable values, filling with 0", "column", col)
	}
	for i := range out {
		if !ok[i] {
			out[i] = m
		}
	}
	return out
}

func median(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	s := slices.Clone(vs)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
