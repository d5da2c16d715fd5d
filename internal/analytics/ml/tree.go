package ml

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// minImpurityDecrease is the smallest weighted gain treated as a real split.
const minImpurityDecrease = 1e-12

type criterion int

const (
	criterionMSE criterion = iota
	criterionGini
)

type treeParams struct {
	maxDepth       int
	minSamplesLeaf int
	// maxFeatures caps the non-constant features examined per node, 0 means all
	maxFeatures int
	criterion   criterion
}

type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	value     float64
}

func (n *node) isLeaf() bool { return n.left == nil }

// Tree is a fitted CART tree. Leaves hold the mean target of their samples,
// which is the positive-class fraction for 0/1 targets.
type Tree struct {
	root *node
	// importances are normalised to sum to 1, or all zero for a stump
	importances []float64
}

// Predict walks the tree for a single feature vector.
func (t *Tree) Predict(row []float64) float64 {
	n := t.root
	for !n.isLeaf() {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// Depth returns the depth of the deepest leaf.
func (t *Tree) Depth() int { return depth(t.root) }

func depth(n *node) int {
	if n.isLeaf() {
		return 0
	}
	return 1 + max(depth(n.left), depth(n.right))
}

type nodeStats struct {
	n, sum, sumSq float64
}

func (s *nodeStats) add(y float64) {
	s.n++
	s.sum += y
	s.sumSq += y * y
}

func (s nodeStats) minus(o nodeStats) nodeStats {
	return nodeStats{n: s.n - o.n, sum: s.sum - o.sum, sumSq: s.sumSq - o.sumSq}
}

func (s nodeStats) impurity(c criterion) float64 {
	if s.n == 0 {
		return 0
	}
	mean := s.sum / s.n
	if c == criterionGini {
		// binary gini: 1 - p^2 - (1-p)^2
		return 2 * mean * (1 - mean)
	}
	v := s.sumSq/s.n - mean*mean
	if v < 0 {
		return 0
	}
	return v
}

type split struct {
	feature   int
	pos       int
	threshold float64
	gain      float64
}

// grower builds one tree. Samples are addressed by slot, so bootstrap
// duplicates of the same row are independent samples.
type grower struct {
	x           [][]float64
	y           []float64
	rows        []int
	params      treeParams
	rng         *rand.Rand
	importances []float64
	goesLeft    []bool
}

func growTree(x [][]float64, y []float64, rows []int, params treeParams, rng *rand.Rand) *Tree {
	nFeatures := 0
	if len(x) > 0 {
		nFeatures = len(x[0])
	}
	g := &grower{
		x:           x,
		y:           y,
		rows:        rows,
		params:      params,
		rng:         rng,
		importances: make([]float64, nFeatures),
		goesLeft:    make([]bool, len(rows)),
	}

	slots := make([]int, len(rows))
	for i := range slots {
		slots[i] = i
	}
	order := make([][]int, nFeatures)
	for f := range order {
		sorted := append([]int(nil), slots...)
		sort.SliceStable(sorted, func(a, b int) bool {
			return g.value(sorted[a], f) < g.value(sorted[b], f)
		})
		order[f] = sorted
	}

	root := g.build(slots, order, 0)

	if total := floats.Sum(g.importances); total > 0 {
		floats.Scale(1/total, g.importances)
	}
	return &Tree{root: root, importances: g.importances}
}

func (g *grower) value(slot, feature int) float64 {
	return g.x[g.rows[slot]][feature]
}

func (g *grower) target(slot int) float64 {
	return g.y[g.rows[slot]]
}

func (g *grower) build(slots []int, order [][]int, depth int) *node {
	var stats nodeStats
	for _, s := range slots {
		stats.add(g.target(s))
	}
	nd := &node{value: stats.sum / stats.n}

	minLeaf := max(g.params.minSamplesLeaf, 1)
	if depth >= g.params.maxDepth || len(slots) < 2*minLeaf || stats.impurity(g.params.criterion) <= minImpurityDecrease {
		return nd
	}

	best, ok := g.bestSplit(order, stats, minLeaf)
	if !ok {
		return nd
	}
	g.importances[best.feature] += best.gain

	sorted := order[best.feature]
	for i, s := range sorted {
		g.goesLeft[s] = i <= best.pos
	}
	leftSlots := sorted[:best.pos+1]
	rightSlots := sorted[best.pos+1:]

	leftOrder := make([][]int, len(order))
	rightOrder := make([][]int, len(order))
	for f, list := range order {
		l := make([]int, 0, len(leftSlots))
		r := make([]int, 0, len(rightSlots))
		for _, s := range list {
			if g.goesLeft[s] {
				l = append(l, s)
			} else {
				r = append(r, s)
			}
		}
		leftOrder[f], rightOrder[f] = l, r
	}

	nd.feature = best.feature
	nd.threshold = best.threshold
	nd.left = g.build(append([]int(nil), leftSlots...), leftOrder, depth+1)
	nd.right = g.build(append([]int(nil), rightSlots...), rightOrder, depth+1)
	return nd
}

// bestSplit scans candidate features in sorted order. With maxFeatures set,
// features are drawn at random until that many non-constant ones were seen.
func (g *grower) bestSplit(order [][]int, parent nodeStats, minLeaf int) (split, bool) {
	nFeatures := len(order)
	candidates := make([]int, nFeatures)
	for i := range candidates {
		candidates[i] = i
	}
	limit := nFeatures
	if g.params.maxFeatures > 0 && g.params.maxFeatures < nFeatures {
		g.rng.Shuffle(nFeatures, func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		limit = g.params.maxFeatures
	}

	parentWeighted := parent.n * parent.impurity(g.params.criterion)
	best := split{gain: minImpurityDecrease}
	found := false
	visited := 0

	for _, f := range candidates {
		if visited >= limit {
			break
		}
		sorted := order[f]
		if g.value(sorted[0], f) == g.value(sorted[len(sorted)-1], f) {
			continue
		}
		visited++

		var left nodeStats
		for i := 0; i < len(sorted)-1; i++ {
			left.add(g.target(sorted[i]))
			v, next := g.value(sorted[i], f), g.value(sorted[i+1], f)
			if v == next {
				continue
			}
			right := parent.minus(left)
			if left.n < float64(minLeaf) || right.n < float64(minLeaf) {
				continue
			}
			gain := parentWeighted -
				left.n*left.impurity(g.params.criterion) -
				right.n*right.impurity(g.params.criterion)
			if gain > best.gain {
				threshold := v + (next-v)/2
				if threshold >= next {
					threshold = v
				}
				best = split{feature: f, pos: i, threshold: threshold, gain: gain}
				found = true
			}
		}
	}
	return best, found
}
