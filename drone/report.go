package drone

import (
	"fmt"
	"strings"
)

// ClassMetrics is the precision/recall/F1 breakdown for one class.
type ClassMetrics struct {
	Class     string  `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report summarises predictions against ground truth.
type Report struct {
	Accuracy        float64        `json:"accuracy"`
	Total           int            `json:"total"`
	Classes         []ClassMetrics `json:"classes"`
	MacroAvg        ClassMetrics   `json:"macroAvg"`
	WeightedAvg     ClassMetrics   `json:"weightedAvg"`
	ConfusionMatrix [][]int        `json:"confusionMatrix"` // [actual][predicted]
}

// Evaluate compares predicted class indices against the truth.
func Evaluate(truth, predicted []int, classes []string) (Report, error) {
	if len(truth) != len(predicted) {
		return Report{}, fmt.Errorf("truth and predictions differ in length: %d != %d", len(truth), len(predicted))
	}
	if len(truth) == 0 {
		return Report{}, fmt.Errorf("nothing to evaluate")
	}

	n := len(classes)
	confusion := make([][]int, n)
	for i := range confusion {
		confusion[i] = make([]int, n)
	}

	correct := 0
	for i := range truth {
		a, p := truth[i], predicted[i]
		if a < 0 || a >= n || p < 0 || p >= n {
			return Report{}, fmt.Errorf("row %d has class outside %d classes", i, n)
		}
		confusion[a][p]++
		if a == p {
			correct++
		}
	}

	report := Report{
		Accuracy:        float64(correct) / float64(len(truth)),
		Total:           len(truth),
		Classes:         make([]ClassMetrics, n),
		ConfusionMatrix: confusion,
		MacroAvg:        ClassMetrics{Class: "macro avg", Support: len(truth)},
		WeightedAvg:     ClassMetrics{Class: "weighted avg", Support: len(truth)},
	}

	for c := 0; c < n; c++ {
		tp := confusion[c][c]
		predictedCount, support := 0, 0
		for k := 0; k < n; k++ {
			predictedCount += confusion[k][c]
			support += confusion[c][k]
		}

		m := ClassMetrics{Class: classes[c], Support: support}
		if predictedCount > 0 {
			m.Precision = float64(tp) / float64(predictedCount)
		}
		if support > 0 {
			m.Recall = float64(tp) / float64(support)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		report.Classes[c] = m

		w := float64(support) / float64(len(truth))
		report.MacroAvg.Precision += m.Precision / float64(n)
		report.MacroAvg.Recall += m.Recall / float64(n)
		report.MacroAvg.F1 += m.F1 / float64(n)
		report.WeightedAvg.Precision += m.Precision * w
		report.WeightedAvg.Recall += m.Recall * w
		report.WeightedAvg.F1 += m.F1 * w
	}

	return report, nil
}

// String renders the report as a fixed-width table.
func (r Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%14s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support")
	for _, m := range r.Classes {
		writeMetricsRow(&sb, m)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%14s %10s %10s %10.2f %10d\n", "accuracy", "", "", r.Accuracy, r.Total)
	writeMetricsRow(&sb, r.MacroAvg)
	writeMetricsRow(&sb, r.WeightedAvg)
	return sb.String()
}

func writeMetricsRow(sb *strings.Builder, m ClassMetrics) {
	fmt.Fprintf(sb, "%14s %10.2f %10.2f %10.2f %10d\n", m.Class, m.Precision, m.Recall, m.F1, m.Support)
}
