// NNUE Network loading and evaluation.
// Ported from Stockfish src/nnue/network.h and network.cpp

package sfnnue

import (
	"fmt"
	"io"
	"os"
)

// Network represents a complete NNUE network (big or small).
// Ported from network.h:57-118
type Network struct {
	// Feature transformer
	FeatureTransformer *FeatureTransformer

	// Layer stacks (one per bucket)
	LayerStacks [LayerStacks]*NetworkArchitecture

	// Network type
	IsBig bool

	// File info
	CurrentFile    string
	NetDescription string

	// Initialization status
	Initialized bool

	// Expected hash
	Hash uint32
}

// newNetwork builds a big or small network, sized and hashed by variant.
func newNetwork(big bool) *Network {
	net := &Network{IsBig: big}

	if big {
		net.FeatureTransformer = NewBigFeatureTransformer()
	} else {
		net.FeatureTransformer = NewSmallFeatureTransformer()
	}

	for i := range net.LayerStacks {
		if big {
			net.LayerStacks[i] = NewBigNetworkArchitecture()
		} else {
			net.LayerStacks[i] = NewSmallNetworkArchitecture()
		}
	}

	net.Hash = net.calculateHash()
	return net
}

// NewBigNetwork creates a new big network.
func NewBigNetwork() *Network { return newNetwork(true) }

// NewSmallNetwork creates a new small network.
func NewSmallNetwork() *Network { return newNetwork(false) }

// calculateHash calculates the expected hash for this network.
// Ported from network.h:114
func (n *Network) calculateHash() uint32 {
	return n.FeatureTransformer.GetHashValue() ^ n.LayerStacks[0].GetHashValue()
}

// Load loads network parameters from a file.
// Ported from network.cpp:111-137
func (n *Network) Load(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return n.LoadFromReader(f)
}

// LoadFromReader loads network parameters from a reader.
func (n *Network) LoadFromReader(r io.Reader) error {
	n.Initialized = true

	hashValue, description, err := n.readHeader(r)
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	if hashValue != n.Hash {
		return fmt.Errorf("hash mismatch: expected %08x, got %08x", n.Hash, hashValue)
	}
	n.NetDescription = description

	if err := n.readParameters(r); err != nil {
		return fmt.Errorf("failed to read parameters: %w", err)
	}

	return nil
}

// readHeader reads and validates the network file header.
// Ported from network.cpp:344-358
func (n *Network) readHeader(r io.Reader) (uint32, string, error) {
	version, err := ReadLittleEndian[uint32](r)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read version: %w", err)
	}
	if version != Version {
		return 0, "", fmt.Errorf("version mismatch: expected %08x, got %08x", Version, version)
	}

	hashValue, err := ReadLittleEndian[uint32](r)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read hash: %w", err)
	}

	descSize, err := ReadLittleEndian[uint32](r)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read description size: %w", err)
	}

	descBytes := make([]byte, descSize)
	if _, err := io.ReadFull(r, descBytes); err != nil {
		return 0, "", fmt.Errorf("failed to read description: %w", err)
	}

	return hashValue, string(descBytes), nil
}

// readAndVerifyHash reads a little-endian uint32 hash and checks it against
// the value computed in-memory for the component about to be loaded,
// catching a stale or mismatched network file before any parameters are
// parsed out of it.
func readAndVerifyHash(r io.Reader, expected uint32, label string) error {
	got, err := ReadLittleEndian[uint32](r)
	if err != nil {
		return fmt.Errorf("failed to read %s hash: %w", label, err)
	}
	if got != expected {
		return fmt.Errorf("%s hash mismatch: expected %08x, got %08x", label, expected, got)
	}
	return nil
}

// readParameters reads all network parameters.
// Ported from network.cpp:374-390
func (n *Network) readParameters(r io.Reader) error {
	if err := readAndVerifyHash(r, n.FeatureTransformer.GetHashValue(), "transformer"); err != nil {
		return err
	}
	if err := n.FeatureTransformer.ReadParameters(r); err != nil {
		return fmt.Errorf("failed to read transformer parameters: %w", err)
	}

	for i := 0; i < LayerStacks; i++ {
		label := fmt.Sprintf("layer stack %d", i)
		if err := readAndVerifyHash(r, n.LayerStacks[i].GetHashValue(), label); err != nil {
			return err
		}
		if err := n.LayerStacks[i].ReadParameters(r); err != nil {
			return fmt.Errorf("failed to read %s: %w", label, err)
		}
	}

	return nil
}

// Evaluate evaluates a position using the network.
// Ported from network.cpp:172-189
func (n *Network) Evaluate(
	accumulation [2][]int16,
	psqtAccumulation [2][]int32,
	sideToMove int,
	pieceCount int,
) (psqt int32, positional int32) {
	bucket := clampBucket((pieceCount-1)/4, LayerStacks)
	perspectives := [2]int{sideToMove, 1 - sideToMove}

	halfDims := n.FeatureTransformer.HalfDimensions
	transformedFeatures := make([]uint8, halfDims)

	psqt = n.FeatureTransformer.Transform(
		accumulation,
		psqtAccumulation,
		perspectives,
		bucket,
		transformedFeatures,
	)

	positional = n.LayerStacks[bucket].Propagate(transformedFeatures)

	return psqt / int32(OutputScale), positional / int32(OutputScale)
}

// clampBucket keeps a piece-count-derived bucket index inside [0, count).
func clampBucket(bucket, count int) int {
	if bucket < 0 {
		return 0
	}
	if bucket >= count {
		return count - 1
	}
	return bucket
}

// Networks holds both big and small networks.
// Ported from network.h:132-139
type Networks struct {
	Big   *Network
	Small *Network
}

// NewNetworks creates both networks.
func NewNetworks() *Networks {
	return &Networks{
		Big:   NewBigNetwork(),
		Small: NewSmallNetwork(),
	}
}

// LoadNetworks loads both networks from files.
func LoadNetworks(bigFile, smallFile string) (*Networks, error) {
	nets := NewNetworks()

	for _, pair := range [...]struct {
		net  *Network
		file string
		name string
	}{
		{nets.Big, bigFile, "big"},
		{nets.Small, smallFile, "small"},
	} {
		if err := pair.net.Load(pair.file); err != nil {
			return nil, fmt.Errorf("failed to load %s network: %w", pair.name, err)
		}
	}

	return nets, nil
}

// Evaluator provides a high-level interface for NNUE evaluation.
type Evaluator struct {
	Networks   *Networks
	AccStack   *AccumulatorStack
	BigCache   *AccumulatorCache
	SmallCache *AccumulatorCache
}

// NewEvaluator creates a new evaluator from network files.
func NewEvaluator(bigFile, smallFile string) (*Evaluator, error) {
	networks, err := LoadNetworks(bigFile, smallFile)
	if err != nil {
		return nil, err
	}

	return &Evaluator{
		Networks:   networks,
		AccStack:   NewAccumulatorStack(),
		BigCache:   NewAccumulatorCache(TransformedFeatureDimensionsBig, networks.Big.FeatureTransformer.Biases),
		SmallCache: NewAccumulatorCache(TransformedFeatureDimensionsSmall, networks.Small.FeatureTransformer.Biases),
	}, nil
}

// Push saves accumulator state before a move.
func (e *Evaluator) Push() {
	e.AccStack.Push()
}

// Pop restores accumulator state after unmaking a move.
func (e *Evaluator) Pop() {
	e.AccStack.Pop()
}

// Reset resets the accumulator stack.
func (e *Evaluator) Reset() {
	e.AccStack.Reset()
}

// Refresh forces a full recomputation of accumulators.
func (e *Evaluator) Refresh() {
	e.AccStack.CurrentBig().Reset()
	e.AccStack.CurrentSmall().Reset()
}
