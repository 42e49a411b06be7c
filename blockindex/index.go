// Package blockindex maintains the forest of every known block header as an
// arena of stable integer ids (per DESIGN NOTES §9: no raw back-pointers
// among heap-allocated nodes), and picks the best candidate tip by
// cumulative chain work.
package blockindex

import (
	"math/big"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"

	"github.com/bsv-blockchain/chaincore/model"
)

// NodeID indexes into Index's arena. The zero value never refers to a real
// node; genesis is inserted at id 1.
type NodeID uint32

// Node is one entry in the block index: everything needed about a known
// header except the header bytes themselves, which the block store holds.
type Node struct {
	ID     NodeID
	Prev   NodeID // zero for genesis
	Hash   chainhash.Hash
	Header model.BlockHeader

	Height        int32
	ChainWork     *big.Int
	TxCount       int64
	ChainTxCount  int64

	FileID  int32
	DataPos int64
	UndoPos int64

	Status Status
}

// Index is the arena of known headers plus the side maps and candidate set
// needed to pick a best tip without following raw pointers.
type Index struct {
	nodes   map[NodeID]*Node
	byHash  map[chainhash.Hash]NodeID
	nextID  NodeID

	candidates map[NodeID]struct{}
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		nodes:      make(map[NodeID]*Node),
		byHash:     make(map[chainhash.Hash]NodeID),
		candidates: make(map[NodeID]struct{}),
	}
}

// Get returns the node for id, or nil.
func (idx *Index) Get(id NodeID) *Node {
	return idx.nodes[id]
}

// GetByHash returns the node for hash, or nil.
func (idx *Index) GetByHash(hash chainhash.Hash) *Node {
	id, ok := idx.byHash[hash]
	if !ok {
		return nil
	}

	return idx.nodes[id]
}

// Insert adds a new node for header, computing ChainWork from prev (nil for
// genesis) and the header's own work. It does not mark any status bit;
// callers set StatusValidHeader etc. as validation progresses.
func (idx *Index) Insert(header *model.BlockHeader, prev *Node) *Node {
	idx.nextID++

	work := workFromBits(header.Bits)

	chainWork := new(big.Int).Set(work)
	height := int32(0)
	prevID := NodeID(0)

	if prev != nil {
		chainWork.Add(chainWork, prev.ChainWork)
		height = prev.Height + 1
		prevID = prev.ID
	}

	n := &Node{
		ID:        idx.nextID,
		Prev:      prevID,
		Hash:      *header.Hash(),
		Header:    *header,
		Height:    height,
		ChainWork: chainWork,
	}

	idx.nodes[n.ID] = n
	idx.byHash[n.Hash] = n.ID

	return n
}

// SetStatus merges bits into n's status and maintains the candidate set and
// FAILED_CHILD downward propagation invariant.
func (idx *Index) SetStatus(n *Node, bits Status) {
	n.Status |= bits

	if bits&(StatusFailedValid|StatusFailedChild) != 0 {
		idx.propagateFailedChild(n)
	}

	idx.refreshCandidate(n)
}

// propagateFailedChild marks every currently-known descendant of n as
// FAILED_CHILD, a transitive, monotone-downward mark that survives restart
// because it is written into each node's own Status.
func (idx *Index) propagateFailedChild(failed *Node) {
	children := idx.childrenOf(failed.ID)

	for _, child := range children {
		if child.Status&StatusFailedChild != 0 {
			continue
		}

		child.Status |= StatusFailedChild
		idx.refreshCandidate(child)
		idx.propagateFailedChild(child)
	}
}

func (idx *Index) childrenOf(id NodeID) []*Node {
	var children []*Node

	for _, n := range idx.nodes {
		if n.Prev == id {
			children = append(children, n)
		}
	}

	return children
}

func (idx *Index) refreshCandidate(n *Node) {
	if n.Status.IsCandidate() {
		idx.candidates[n.ID] = struct{}{}
	} else {
		delete(idx.candidates, n.ID)
	}
}

// BestTip returns the candidate-set node with the highest chain work,
// breaking ties by lowest id (earliest arrival), or nil if the candidate
// set is empty.
func (idx *Index) BestTip() *Node {
	var best *Node

	for id := range idx.candidates {
		n := idx.nodes[id]

		switch {
		case best == nil:
			best = n
		case n.ChainWork.Cmp(best.ChainWork) > 0:
			best = n
		case n.ChainWork.Cmp(best.ChainWork) == 0 && n.ID < best.ID:
			best = n
		}
	}

	return best
}

// AncestorAt walks n.Prev back to the node at height, or nil if height is
// out of range for n's ancestry.
func (idx *Index) AncestorAt(n *Node, height int32) *Node {
	if n == nil || height < 0 || height > n.Height {
		return nil
	}

	for n.Height > height {
		n = idx.nodes[n.Prev]
		if n == nil {
			return nil
		}
	}

	return n
}

// ForkPoint walks a and b back until they meet, returning the deepest
// common ancestor.
func (idx *Index) ForkPoint(a, b *Node) *Node {
	for a.Height > b.Height {
		a = idx.nodes[a.Prev]
	}

	for b.Height > a.Height {
		b = idx.nodes[b.Prev]
	}

	for a.ID != b.ID {
		a = idx.nodes[a.Prev]
		b = idx.nodes[b.Prev]

		if a == nil || b == nil {
			return nil
		}
	}

	return a
}

// MedianTimePast returns the median timestamp of n and its 10 preceding
// ancestors (11 total, or fewer near genesis), used by the contextual
// accept rule in §4.3.
func (idx *Index) MedianTimePast(n *Node) uint32 {
	times := make([]uint32, 0, 11)

	for cur := n; cur != nil && len(times) < 11; cur = idx.nodes[cur.Prev] {
		times = append(times, cur.Header.Timestamp)
	}

	for i := 1; i < len(times); i++ {
		for j := i; j > 0 && times[j-1] > times[j]; j-- {
			times[j-1], times[j] = times[j], times[j-1]
		}
	}

	return times[len(times)/2]
}

// workFromBits converts a compact target into the work value
// 2^256 / (target+1), the chain-work contribution of one block at this
// difficulty.
func workFromBits(bits model.NBit) *big.Int {
	target := bits.CalculateTarget()
	if target.Sign() <= 0 {
		return big.NewInt(0)
	}

	numerator := new(big.Int).Lsh(big.NewInt(1), 256)
	denominator := new(big.Int).Add(target, big.NewInt(1))

	return new(big.Int).Div(numerator, denominator)
}
