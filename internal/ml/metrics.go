package ml

import "sort"

// Accuracy is the fraction of matching labels.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0
	}
	hits := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(yTrue))
}

// ROCAUC computes the area under the ROC curve via the rank-sum statistic,
// with average ranks for tied scores. It is more robust to label imbalance
// than accuracy. Degenerate single-class inputs return 0.5.
func ROCAUC(yTrue []int, scores []float64) float64 {
	if len(yTrue) != len(scores) || len(yTrue) == 0 {
		return 0.5
	}

	var nPos, nNeg int
	for _, label := range yTrue {
		if label == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0.5
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})

	ranks := make([]float64, len(scores))
	for i := 0; i < len(order); {
		j := i
		for j < len(order) && scores[order[j]] == scores[order[i]] {
			j++
		}
		avg := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}

	var rankSumPos float64
	for i, label := range yTrue {
		if label == 1 {
			rankSumPos += ranks[i]
		}
	}

	u := rankSumPos - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg))
}
