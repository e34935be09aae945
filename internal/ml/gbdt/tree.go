// Package gbdt implements gradient-boosted regression trees for the price
// model: leaf-wise tree growth under depth/leaf constraints, squared-error
// gradients, shrinkage, and MAE-based early stopping.
package gbdt

import (
	"container/heap"
	"sort"
)

// Node is a single tree node. Leaves carry the (already shrunk) output value.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
	Leaf      bool
}

// Tree is a regression tree over dense feature vectors
type Tree struct {
	Nodes []Node
}

// Predict routes a feature vector to a leaf and returns its value
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// TreeParams constrain the growth of a single tree
type TreeParams struct {
	MaxDepth       int
	NumLeaves      int
	MinSamplesLeaf int
}

// split is a candidate split of a leaf, scored by variance reduction
type split struct {
	nodeID    int
	depth     int
	indices   []int
	gain      float64
	feature   int
	threshold float64
	left      []int
	right     []int
	valid     bool
}

type splitHeap []*split

func (h splitHeap) Len() int            { return len(h) }
func (h splitHeap) Less(i, j int) bool  { return h[i].gain > h[j].gain }
func (h splitHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *splitHeap) Push(x interface{}) { *h = append(*h, x.(*split)) }
func (h *splitHeap) Pop() interface{} {
	old := *h
	n := len(old)
	s := old[n-1]
	*h = old[:n-1]
	return s
}

// buildTree fits a regression tree to the targets (boosting residuals),
// growing leaf-wise by best gain until the leaf budget is exhausted.
// Leaf values are shrunk by shrinkage before storage.
func buildTree(X [][]float64, target []float64, params TreeParams, shrinkage float64) *Tree {
	indices := make([]int, len(target))
	for i := range indices {
		indices[i] = i
	}

	t := &Tree{}
	rootValue := meanAt(target, indices)
	t.Nodes = append(t.Nodes, Node{Leaf: true, Value: rootValue * shrinkage, Left: -1, Right: -1})

	h := &splitHeap{}
	heap.Init(h)
	if s := findBestSplit(X, target, indices, params); s != nil {
		s.nodeID = 0
		s.depth = 0
		heap.Push(h, s)
	}

	leaves := 1
	for h.Len() > 0 && leaves < params.NumLeaves {
		s := heap.Pop(h).(*split)

		// Turn the leaf into an internal node
		left := Node{Leaf: true, Value: meanAt(target, s.left) * shrinkage, Left: -1, Right: -1}
		right := Node{Leaf: true, Value: meanAt(target, s.right) * shrinkage, Left: -1, Right: -1}

		leftID := len(t.Nodes)
		t.Nodes = append(t.Nodes, left)
		rightID := len(t.Nodes)
		t.Nodes = append(t.Nodes, right)

		n := &t.Nodes[s.nodeID]
		n.Leaf = false
		n.Feature = s.feature
		n.Threshold = s.threshold
		n.Left = leftID
		n.Right = rightID
		leaves++

		childDepth := s.depth + 1
		if childDepth < params.MaxDepth {
			if ls := findBestSplit(X, target, s.left, params); ls != nil {
				ls.nodeID = leftID
				ls.depth = childDepth
				heap.Push(h, ls)
			}
			if rs := findBestSplit(X, target, s.right, params); rs != nil {
				rs.nodeID = rightID
				rs.depth = childDepth
				heap.Push(h, rs)
			}
		}
	}

	return t
}

// findBestSplit scans all features for the variance-reduction-optimal split
// of the given rows. Returns nil when no split satisfies the constraints or
// improves on the parent.
func findBestSplit(X [][]float64, target []float64, indices []int, params TreeParams) *split {
	n := len(indices)
	if n < 2 || n < 2*params.MinSamplesLeaf {
		return nil
	}

	var total float64
	for _, i := range indices {
		total += target[i]
	}
	parentScore := total * total / float64(n)

	numFeatures := len(X[indices[0]])
	best := &split{gain: 0}

	order := make([]int, n)
	for f := 0; f < numFeatures; f++ {
		copy(order, indices)
		sort.Slice(order, func(a, b int) bool {
			return X[order[a]][f] < X[order[b]][f]
		})

		var leftSum float64
		for pos := 0; pos < n-1; pos++ {
			i := order[pos]
			leftSum += target[i]

			// Can only split between distinct feature values
			if X[i][f] == X[order[pos+1]][f] {
				continue
			}

			nl := pos + 1
			nr := n - nl
			if nl < params.MinSamplesLeaf || nr < params.MinSamplesLeaf {
				continue
			}

			rightSum := total - leftSum
			gain := leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(nr) - parentScore
			if gain > best.gain {
				best.gain = gain
				best.feature = f
				best.threshold = (X[i][f] + X[order[pos+1]][f]) / 2
				best.valid = true
				// record the split position to materialize later
				best.left = append(best.left[:0], order[:nl]...)
				best.right = append(best.right[:0], order[nl:]...)
			}
		}
	}

	if !best.valid {
		return nil
	}

	// Copy index slices so later reuse of the order buffer cannot alias them
	best.left = append([]int(nil), best.left...)
	best.right = append([]int(nil), best.right...)
	best.indices = indices
	return best
}

func meanAt(values []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	var sum float64
	for _, i := range indices {
		sum += values[i]
	}
	return sum / float64(len(indices))
}
