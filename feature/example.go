package feature

import "math"

// Example pairs a feature row with the consumption observed at the following step
type Example struct {
	Row    Row
	Target float64
}

// TrainingExamples pairs each row with the next row of the same segment. Rows with undefined lags,
// without a successor or missing any of the requested columns are skipped and counted.
func TrainingExamples(rows []Row, numeric, categorical []string) ([]Example, int) {
	examples := make([]Example, 0, len(rows))
	var dropped int
	for i, row := range rows {
		if i+1 >= len(rows) || rows[i+1].Segment != row.Segment {
			dropped++
			continue
		}
		if math.IsNaN(row.Lag1) || math.IsNaN(row.Lag2) || !complete(row, numeric, categorical) {
			dropped++
			continue
		}
		examples = append(examples, Example{Row: row, Target: rows[i+1].KWh})
	}
	return examples, dropped
}

func complete(row Row, numeric, categorical []string) bool {
	for _, col := range numeric {
		if _, ok := row.Numeric(col); !ok {
			return false
		}
	}
	for _, col := range categorical {
		if _, ok := row.Categorical(col); !ok {
			return false
		}
	}
	return true
}

// Targets returns the target of every example
func Targets(examples []Example) []float64 {
	y := make([]float64, len(examples))
	for i, ex := range examples {
		y[i] = ex.Target
	}
	return y
}
