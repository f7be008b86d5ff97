package drone

// Gradient-Boosted Trees
//
// Binary classifier trained with the log-loss objective. Each round fits a
// depth-limited regression tree to the first and second derivatives of the
// loss at the current margin (Newton boosting): a split's gain is
//
//     G_L²/(H_L+λ) + G_R²/(H_R+λ) - G²/(H+λ)
//
// and a leaf's weight is -G/(H+λ), shrunk by the learning rate. The margin is
// initialised to the log-odds of the positive class. Training uses no row or
// column subsampling, so a fit is fully determined by its inputs.

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// BoostParams holds the boosting hyperparameters.
type BoostParams struct {
	NEstimators    int     `json:"nEstimators" yaml:"nEstimators"`
	MaxDepth       int     `json:"maxDepth" yaml:"maxDepth"`
	LearningRate   float64 `json:"learningRate" yaml:"learningRate"`
	Lambda         float64 `json:"lambda" yaml:"lambda"`
	MinChildWeight float64 `json:"minChildWeight" yaml:"minChildWeight"`
}

// DefaultBoostParams returns 200 estimators of depth 5 at learning rate 0.1.
func DefaultBoostParams() BoostParams {
	return BoostParams{
		NEstimators:    200,
		MaxDepth:       5,
		LearningRate:   0.1,
		Lambda:         1,
		MinChildWeight: 1,
	}
}

func (p BoostParams) validate() error {
	switch {
	case p.NEstimators <= 0:
		return fmt.Errorf("invalid estimator count: %d", p.NEstimators)
	case p.MaxDepth <= 0:
		return fmt.Errorf("invalid max depth: %d", p.MaxDepth)
	case p.LearningRate <= 0 || p.LearningRate > 1:
		return fmt.Errorf("invalid learning rate: %v", p.LearningRate)
	case p.Lambda < 0:
		return fmt.Errorf("invalid lambda: %v", p.Lambda)
	case p.MinChildWeight < 0:
		return fmt.Errorf("invalid min child weight: %v", p.MinChildWeight)
	}
	return nil
}

// TreeNode is either a split on Feature at Threshold (values below go Left)
// or a leaf carrying an already-shrunk margin contribution.
type TreeNode struct {
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
}

// Tree is a regression tree stored as a flat node list rooted at index 0.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		node := t.Nodes[i]
		if node.Leaf {
			return node.Value
		}
		if x[node.Feature] < node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

// BoostedClassifier is a fitted ensemble over a fixed-width feature space.
type BoostedClassifier struct {
	FeatureCount int         `json:"featureCount"`
	BaseScore    float64     `json:"baseScore"`
	Params       BoostParams `json:"params"`
	Trees        []Tree      `json:"trees"`
}

// FitBoostedClassifier trains an ensemble on rows X with binary targets y.
func FitBoostedClassifier(X [][]float64, y []int, params BoostParams) (*BoostedClassifier, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return nil, errors.New("no training rows")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("rows and labels differ in length: %d != %d", len(X), len(y))
	}

	width := len(X[0])
	positives := 0
	for i, row := range X {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), width)
		}
		switch y[i] {
		case 0:
		case 1:
			positives++
		default:
			return nil, fmt.Errorf("row %d has non-binary target %d", i, y[i])
		}
	}

	prior := float64(positives) / float64(len(y))
	prior = math.Min(math.Max(prior, 1e-6), 1-1e-6)
	base := math.Log(prior / (1 - prior))

	margin := make([]float64, len(X))
	for i := range margin {
		margin[i] = base
	}

	b := &treeBuilder{
		x:      X,
		grad:   make([]float64, len(X)),
		hess:   make([]float64, len(X)),
		params: params,
	}

	all := make([]int, len(X))
	for i := range all {
		all[i] = i
	}

	model := &BoostedClassifier{
		FeatureCount: width,
		BaseScore:    base,
		Params:       params,
		Trees:        make([]Tree, 0, params.NEstimators),
	}

	for round := 0; round < params.NEstimators; round++ {
		for i := range X {
			p := sigmoid(margin[i])
			b.grad[i] = p - float64(y[i])
			b.hess[i] = math.Max(p*(1-p), 1e-16)
		}

		tree := b.build(all)
		for i, row := range X {
			margin[i] += tree.predict(row)
		}
		model.Trees = append(model.Trees, tree)
	}

	return model, nil
}

// PredictProba returns the probability of class 1.
func (m *BoostedClassifier) PredictProba(x []float64) (float64, error) {
	if len(x) != m.FeatureCount {
		return 0, &SchemaMismatchError{Artifact: "classifier", Expected: m.FeatureCount, Got: len(x)}
	}
	score := m.BaseScore
	for i := range m.Trees {
		score += m.Trees[i].predict(x)
	}
	return sigmoid(score), nil
}

// Predict returns 1 when the class-1 probability exceeds one half.
func (m *BoostedClassifier) Predict(x []float64) (int, error) {
	p, err := m.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if p > 0.5 {
		return 1, nil
	}
	return 0, nil
}

func (m *BoostedClassifier) validate() error {
	if m.FeatureCount <= 0 {
		return fmt.Errorf("invalid feature count %d", m.FeatureCount)
	}
	if len(m.Trees) == 0 {
		return errors.New("classifier has no trees")
	}
	for t, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", t)
		}
		for i, node := range tree.Nodes {
			if node.Leaf {
				continue
			}
			if node.Feature < 0 || node.Feature >= m.FeatureCount {
				return fmt.Errorf("tree %d node %d splits on feature %d", t, i, node.Feature)
			}
			// children always follow their parent, which rules out cycles
			if node.Left <= i || node.Right <= i || node.Left >= len(tree.Nodes) || node.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid children", t, i)
			}
		}
	}
	return nil
}

type treeBuilder struct {
	x      [][]float64
	grad   []float64
	hess   []float64
	params BoostParams
	nodes  []TreeNode
	order  []int
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	left      []int
	right     []int
}

func (b *treeBuilder) build(rows []int) Tree {
	b.nodes = nil
	b.grow(rows, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(rows []int, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{})

	var g, h float64
	for _, r := range rows {
		g += b.grad[r]
		h += b.hess[r]
	}

	if depth < b.params.MaxDepth && len(rows) > 1 {
		if best, ok := b.bestSplit(rows, g, h); ok {
			left := b.grow(best.left, depth+1)
			right := b.grow(best.right, depth+1)
			b.nodes[idx] = TreeNode{
				Feature:   best.feature,
				Threshold: best.threshold,
				Left:      left,
				Right:     right,
			}
			return idx
		}
	}

	b.nodes[idx] = TreeNode{
		Leaf:  true,
		Value: -g / (h + b.params.Lambda) * b.params.LearningRate,
	}
	return idx
}

func (b *treeBuilder) bestSplit(rows []int, g, h float64) (split, bool) {
	lambda := b.params.Lambda
	parent := g * g / (h + lambda)

	var best split
	found := false

	if cap(b.order) < len(rows) {
		b.order = make([]int, len(rows))
	}
	order := b.order[:len(rows)]

	width := len(b.x[rows[0]])
	for f := 0; f < width; f++ {
		copy(order, rows)
		sort.SliceStable(order, func(i, j int) bool {
			return b.x[order[i]][f] < b.x[order[j]][f]
		})

		var gl, hl float64
		for pos := 0; pos < len(order)-1; pos++ {
			r := order[pos]
			gl += b.grad[r]
			hl += b.hess[r]

			cur, next := b.x[r][f], b.x[order[pos+1]][f]
			if cur == next {
				continue
			}
			gr, hr := g-gl, h-hl
			if hl < b.params.MinChildWeight || hr < b.params.MinChildWeight {
				continue
			}

			gain := gl*gl/(hl+lambda) + gr*gr/(hr+lambda) - parent
			if gain > 1e-12 && (!found || gain > best.gain) {
				found = true
				best.feature = f
				best.threshold = cur + (next-cur)/2
				best.gain = gain
			}
		}
	}

	if !found {
		return split{}, false
	}

	for _, r := range rows {
		if b.x[r][best.feature] < best.threshold {
			best.left = append(best.left, r)
		} else {
			best.right = append(best.right, r)
		}
	}
	return best, true
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
