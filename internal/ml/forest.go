package ml

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// ForestConfig controls forest training. Zero values fall back to the
// defaults used by the production models: 100 trees, depth 10, class-balanced
// weighting.
type ForestConfig struct {
	Trees           int   `json:"trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
	Seed            int64 `json:"seed"`
}

func (c ForestConfig) withDefaults() ForestConfig {
	if c.Trees <= 0 {
		c.Trees = 100
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 10
	}
	if c.MinSamplesSplit <= 0 {
		c.MinSamplesSplit = 5
	}
	if c.MinSamplesLeaf <= 0 {
		c.MinSamplesLeaf = 2
	}
	return c
}

// Node is one decision-tree node. Leaves carry the weighted positive-class
// probability of the training samples that reached them.
type Node struct {
	Leaf      bool    `json:"leaf"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Prob      float64 `json:"prob,omitempty"`
	Left      *Node   `json:"left,omitempty"`
	Right     *Node   `json:"right,omitempty"`
}

// Forest is a bagged ensemble of binary decision trees. It serializes to
// JSON so a fitted model round-trips through the artifact store.
type Forest struct {
	Trees       []*Node   `json:"trees"`
	Features    int       `json:"features"`
	Importances []float64 `json:"importances"`
}

type forestTrainer struct {
	cfg     ForestConfig
	x       [][]float64
	y       []int
	weights [2]float64 // balanced class weights
	rng     *rand.Rand
	imp     []float64
	rootW   float64
}

// TrainForest fits a random forest on x (rows of features) and binary labels
// y. Training is sequential and driven by a single seeded RNG, so identical
// inputs always produce an identical model.
func TrainForest(cfg ForestConfig, x [][]float64, y []int) (*Forest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, errors.Errorf("invalid training set: %d rows, %d labels", len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return nil, errors.New("training rows have no features")
	}

	var counts [2]int
	for i, label := range y {
		if label != 0 && label != 1 {
			return nil, errors.Errorf("label at row %d is %d, want 0 or 1", i, label)
		}
		if len(x[i]) != width {
			return nil, errors.Errorf("ragged feature matrix at row %d", i)
		}
		counts[label]++
	}

	cfg = cfg.withDefaults()
	t := &forestTrainer{
		cfg: cfg,
		x:   x,
		y:   y,
		rng: rand.New(rand.NewSource(cfg.Seed)),
		imp: make([]float64, width),
	}

	// Balanced weighting counters the label imbalance typical of
	// "is profitable" targets: w_c = n / (2 * n_c).
	n := float64(len(y))
	for c := 0; c < 2; c++ {
		if counts[c] > 0 {
			t.weights[c] = n / (2 * float64(counts[c]))
		}
	}

	forest := &Forest{
		Trees:    make([]*Node, 0, cfg.Trees),
		Features: width,
	}

	indices := make([]int, len(x))
	for i := 0; i < cfg.Trees; i++ {
		for j := range indices {
			indices[j] = t.rng.Intn(len(x))
		}
		t.rootW = t.totalWeight(indices)
		forest.Trees = append(forest.Trees, t.grow(indices, 0))
	}

	total := floats.Sum(t.imp)
	forest.Importances = make([]float64, width)
	if total > 0 {
		for j, v := range t.imp {
			forest.Importances[j] = v / total
		}
	}

	return forest, nil
}

func (t *forestTrainer) totalWeight(indices []int) float64 {
	var w float64
	for _, i := range indices {
		w += t.weights[t.y[i]]
	}
	return w
}

func (t *forestTrainer) classWeights(indices []int) (wNeg, wPos float64) {
	for _, i := range indices {
		if t.y[i] == 1 {
			wPos += t.weights[1]
		} else {
			wNeg += t.weights[0]
		}
	}
	return wNeg, wPos
}

func gini(wNeg, wPos float64) float64 {
	total := wNeg + wPos
	if total == 0 {
		return 0
	}
	pNeg := wNeg / total
	pPos := wPos / total
	return 1 - pNeg*pNeg - pPos*pPos
}

func (t *forestTrainer) grow(indices []int, depth int) *Node {
	wNeg, wPos := t.classWeights(indices)
	prob := 0.0
	if wNeg+wPos > 0 {
		prob = wPos / (wNeg + wPos)
	}

	if depth >= t.cfg.MaxDepth || len(indices) < t.cfg.MinSamplesSplit || wNeg == 0 || wPos == 0 {
		return &Node{Leaf: true, Prob: prob}
	}

	feature, threshold, gain, ok := t.bestSplit(indices, wNeg, wPos)
	if !ok {
		return &Node{Leaf: true, Prob: prob}
	}

	var left, right []int
	for _, i := range indices {
		if t.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	if t.rootW > 0 {
		t.imp[feature] += gain * (wNeg + wPos) / t.rootW
	}

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      t.grow(left, depth+1),
		Right:     t.grow(right, depth+1),
	}
}

// bestSplit scans a sqrt(d) random subset of features for the weighted-gini
// optimal threshold. Candidate thresholds sit between distinct consecutive
// values; ties keep the first candidate so the scan stays deterministic.
func (t *forestTrainer) bestSplit(indices []int, wNeg, wPos float64) (feature int, threshold, gain float64, ok bool) {
	width := len(t.x[0])
	mtry := int(math.Sqrt(float64(width)))
	if mtry < 1 {
		mtry = 1
	}

	candidates := make([]int, width)
	for j := range candidates {
		candidates[j] = j
	}
	t.rng.Shuffle(width, func(a, b int) {
		candidates[a], candidates[b] = candidates[b], candidates[a]
	})
	candidates = candidates[:mtry]
	sort.Ints(candidates)

	parentGini := gini(wNeg, wPos)
	totalW := wNeg + wPos
	sorted := make([]int, len(indices))

	bestGain := 0.0
	for _, f := range candidates {
		copy(sorted, indices)
		sort.SliceStable(sorted, func(a, b int) bool {
			return t.x[sorted[a]][f] < t.x[sorted[b]][f]
		})

		var leftNeg, leftPos float64
		for pos := 0; pos < len(sorted)-1; pos++ {
			i := sorted[pos]
			if t.y[i] == 1 {
				leftPos += t.weights[1]
			} else {
				leftNeg += t.weights[0]
			}

			cur, next := t.x[i][f], t.x[sorted[pos+1]][f]
			if cur == next {
				continue
			}
			if pos+1 < t.cfg.MinSamplesLeaf || len(sorted)-pos-1 < t.cfg.MinSamplesLeaf {
				continue
			}

			leftW := leftNeg + leftPos
			rightNeg := wNeg - leftNeg
			rightPos := wPos - leftPos
			rightW := rightNeg + rightPos
			g := parentGini - leftW/totalW*gini(leftNeg, leftPos) - rightW/totalW*gini(rightNeg, rightPos)
			if g > bestGain+1e-12 {
				bestGain = g
				feature = f
				threshold = (cur + next) / 2
				ok = true
			}
		}
	}

	return feature, threshold, bestGain, ok
}

// PredictProba returns the positive-class probability for one feature row,
// averaged across the ensemble.
func (f *Forest) PredictProba(row []float64) (float64, error) {
	if len(row) != f.Features {
		return 0, errors.Errorf("feature width mismatch: got %d, model trained on %d", len(row), f.Features)
	}
	if len(f.Trees) == 0 {
		return 0, errors.New("forest has no trees")
	}

	var sum float64
	for _, root := range f.Trees {
		node := root
		for !node.Leaf {
			if row[node.Feature] <= node.Threshold {
				node = node.Left
			} else {
				node = node.Right
			}
		}
		sum += node.Prob
	}
	return sum / float64(len(f.Trees)), nil
}

// Predict returns the hard label at the 0.5 cut.
func (f *Forest) Predict(row []float64) (int, error) {
	p, err := f.PredictProba(row)
	if err != nil {
		return 0, err
	}
	if p > 0.5 {
		return 1, nil
	}
	return 0, nil
}
