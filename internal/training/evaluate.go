package training

// ClassMetrics is one row of a classification report.
type ClassMetrics struct {
	Class     string  `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

func accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	hit := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(yTrue))
}

// confusionMatrix returns counts indexed [true][predicted].
func confusionMatrix(yTrue, yPred []int, k int) [][]int {
	m := make([][]int, k)
	for i := range m {
		m[i] = make([]int, k)
	}
	for i := range yTrue {
		m[yTrue[i]][yPred[i]]++
	}
	return m
}

// classificationReport computes per-class precision, recall and F1 for every
// class that occurs in yTrue or yPred, plus macro and support-weighted
// averages. Undefined ratios are 0.
func classificationReport(cm [][]int, classes []string) (rows []ClassMetrics, macro, weighted ClassMetrics) {
	k := len(cm)
	total := 0
	for i := 0; i < k; i++ {
		tp := cm[i][i]
		support, predicted := 0, 0
		for j := 0; j < k; j++ {
			support += cm[i][j]
			predicted += cm[j][i]
		}
		if support == 0 && predicted == 0 {
			continue
		}
		p := ratio(tp, predicted)
		r := ratio(tp, support)
		f1 := 0.0
		if p+r > 0 {
			f1 = 2 * p * r / (p + r)
		}
		rows = append(rows, ClassMetrics{Class: classes[i], Precision: p, Recall: r, F1: f1, Support: support})
		total += support
	}

	macro = ClassMetrics{Class: "macro avg", Support: total}
	weighted = ClassMetrics{Class: "weighted avg", Support: total}
	if len(rows) == 0 {
		return rows, macro, weighted
	}
	for _, r := range rows {
		macro.Precision += r.Precision
		macro.Recall += r.Recall
		macro.F1 += r.F1
		if total > 0 {
			w := float64(r.Support) / float64(total)
			weighted.Precision += w * r.Precision
			weighted.Recall += w * r.Recall
			weighted.F1 += w * r.F1
		}
	}
	n := float64(len(rows))
	macro.Precision /= n
	macro.Recall /= n
	macro.F1 /= n
	return rows, macro, weighted
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
