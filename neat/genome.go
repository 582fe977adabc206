package neat

import (
	"fmt"
	"math/rand"
	"sort"
)

// Genome is an individual: a set of NodeGenes plus a sequence of
// ConnectionGenes kept sorted by innovation id ascending. Insertion order is
// never semantically relevant; only innovation order matters, because gene
// alignment in crossover and distance is a sorted merge over two sequences.
//
// Fitness is assigned externally by an evaluator. A nil Fitness means "not
// yet evaluated" and must never be read as zero.
type Genome struct {
	ID          int
	Nodes       map[int]NodeGene
	Connections []ConnectionGene
	Fitness     *float64
}

// NewGenome creates an empty genome with the given id.
func NewGenome(id int) *Genome {
	return &Genome{
		ID:    id,
		Nodes: make(map[int]NodeGene),
	}
}

// NewSeedGenome builds a minimal starting topology: input nodes with ids
// 0..NumInputs-1, output nodes directly after, no hidden nodes, and each
// input->output edge present with probability cfg.SeedConnectionDensity.
// Seed connections take their innovation ids from the tracker like any other
// structural event, so every seed genome in a population shares the same id
// for the same edge.
func NewSeedGenome(id int, cfg *GenomeConfig, tracker *InnovationTracker, rng *rand.Rand) (*Genome, error) {
	g := NewGenome(id)

	for i := 0; i < cfg.NumInputs; i++ {
		g.Nodes[i] = NodeGene{ID: i, Role: RoleInput, Activation: cfg.ActivationDefault}
	}
	for i := 0; i < cfg.NumOutputs; i++ {
		oid := cfg.NumInputs + i
		g.Nodes[oid] = NodeGene{ID: oid, Role: RoleOutput, Activation: cfg.ActivationDefault}
	}

	for i := 0; i < cfg.NumInputs; i++ {
		for j := 0; j < cfg.NumOutputs; j++ {
			if cfg.SeedConnectionDensity < 1.0 && rng.Float64() >= cfg.SeedConnectionDensity {
				continue
			}
			to := cfg.NumInputs + j
			innov, err := tracker.AssignConnection(i, to)
			if err != nil {
				return nil, err
			}
			g.insertConnection(ConnectionGene{
				Innovation: innov,
				From:       i,
				To:         to,
				Weight:     cfg.randomWeight(rng),
				Enabled:    true,
			})
		}
	}
	return g, nil
}

// SetFitness records an externally computed fitness score.
func (g *Genome) SetFitness(f float64) {
	g.Fitness = &f
}

// Evaluated reports whether an evaluator has assigned a fitness.
func (g *Genome) Evaluated() bool {
	return g.Fitness != nil
}

// insertConnection places a gene at its innovation-sorted position.
func (g *Genome) insertConnection(cg ConnectionGene) {
	i := sort.Search(len(g.Connections), func(i int) bool {
		return g.Connections[i].Innovation >= cg.Innovation
	})
	g.Connections = append(g.Connections, ConnectionGene{})
	copy(g.Connections[i+1:], g.Connections[i:])
	g.Connections[i] = cg
}

// connectionIndex returns the index of the gene with the given innovation id,
// or -1 if the genome does not carry it.
func (g *Genome) connectionIndex(innovation int64) int {
	i := sort.Search(len(g.Connections), func(i int) bool {
		return g.Connections[i].Innovation >= innovation
	})
	if i < len(g.Connections) && g.Connections[i].Innovation == innovation {
		return i
	}
	return -1
}

// HasInnovation reports whether the genome carries a gene with the given
// innovation id, enabled or not.
func (g *Genome) HasInnovation(innovation int64) bool {
	return g.connectionIndex(innovation) >= 0
}

// pairIndex returns the index of a gene joining from->to (enabled or not), or
// -1 if none exists.
func (g *Genome) pairIndex(from, to int) int {
	for i, cg := range g.Connections {
		if cg.From == from && cg.To == to {
			return i
		}
	}
	return -1
}

// hasEnabledPair reports whether an enabled gene joining from->to exists.
func (g *Genome) hasEnabledPair(from, to int) bool {
	for _, cg := range g.Connections {
		if cg.Enabled && cg.From == from && cg.To == to {
			return true
		}
	}
	return false
}

// createsCycle reports whether adding an enabled edge from->to would make the
// enabled-connection subgraph cyclic, i.e. whether to already reaches from
// through enabled connections.
func (g *Genome) createsCycle(from, to int) bool {
	if from == to {
		return true
	}

	visited := make(map[int]bool)
	queue := []int{to}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == from {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		for _, cg := range g.Connections {
			if cg.Enabled && cg.From == current {
				queue = append(queue, cg.To)
			}
		}
	}
	return false
}

// Validate checks the structural invariants: every connection endpoint exists
// in the node set, no two enabled genes share an endpoint pair, the gene
// sequence is innovation-sorted, and the enabled subgraph is acyclic.
func (g *Genome) Validate() error {
	enabledPairs := make(map[connShape]int64)
	var prev int64 = -1
	for _, cg := range g.Connections {
		if _, ok := g.Nodes[cg.From]; !ok {
			return fmt.Errorf("%w: connection %d references missing node %d", ErrInvariantViolation, cg.Innovation, cg.From)
		}
		if _, ok := g.Nodes[cg.To]; !ok {
			return fmt.Errorf("%w: connection %d references missing node %d", ErrInvariantViolation, cg.Innovation, cg.To)
		}
		if cg.Innovation <= prev {
			return fmt.Errorf("%w: connections not in ascending innovation order at %d", ErrInvariantViolation, cg.Innovation)
		}
		prev = cg.Innovation
		if cg.Enabled {
			shape := connShape{From: cg.From, To: cg.To}
			if first, dup := enabledPairs[shape]; dup {
				return fmt.Errorf("%w: enabled connections %d and %d share pair %d->%d",
					ErrInvariantViolation, first, cg.Innovation, cg.From, cg.To)
			}
			enabledPairs[shape] = cg.Innovation
		}
	}

	if err := checkAcyclic(g); err != nil {
		return fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}
	return nil
}

// Clone returns a deep copy sharing no state with the receiver.
func (g *Genome) Clone() *Genome {
	c := &Genome{
		ID:          g.ID,
		Nodes:       make(map[int]NodeGene, len(g.Nodes)),
		Connections: make([]ConnectionGene, len(g.Connections)),
	}
	for id, ng := range g.Nodes {
		c.Nodes[id] = ng
	}
	copy(c.Connections, g.Connections)
	if g.Fitness != nil {
		f := *g.Fitness
		c.Fitness = &f
	}
	return c
}

// NodeIDs returns the node ids in ascending order.
func (g *Genome) NodeIDs() []int {
	ids := make([]int, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// nodeIDsByRole returns ids of nodes matching pred, ascending.
func (g *Genome) nodeIDsByRole(pred func(NodeRole) bool) []int {
	var ids []int
	for id, ng := range g.Nodes {
		if pred(ng.Role) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// InputIDs returns the input node ids in ascending order.
func (g *Genome) InputIDs() []int {
	return g.nodeIDsByRole(func(r NodeRole) bool { return r == RoleInput })
}

// OutputIDs returns the output node ids in ascending order.
func (g *Genome) OutputIDs() []int {
	return g.nodeIDsByRole(func(r NodeRole) bool { return r == RoleOutput })
}

// Distance computes the compatibility distance to another genome: the
// disjoint/excess gene count normalized by the larger gene count, plus the
// mean weight difference over matching genes, each scaled by its coefficient.
// Disjoint and excess genes are counted together under one coefficient.
func (g *Genome) Distance(other *Genome, cfg *GenomeConfig) float64 {
	var (
		mismatched    int
		matching      int
		weightDiffSum float64
	)

	i, j := 0, 0
	for i < len(g.Connections) && j < len(other.Connections) {
		a, b := g.Connections[i], other.Connections[j]
		switch {
		case a.Innovation == b.Innovation:
			weightDiffSum += absFloat(a.Weight - b.Weight)
			matching++
			i++
			j++
		case a.Innovation < b.Innovation:
			mismatched++
			i++
		default:
			mismatched++
			j++
		}
	}
	mismatched += len(g.Connections) - i
	mismatched += len(other.Connections) - j

	n := float64(maxInt(len(g.Connections), len(other.Connections)))
	if n < 1.0 {
		n = 1.0
	}

	d := cfg.CompatibilityDisjointCoefficient * float64(mismatched) / n
	if matching > 0 {
		d += cfg.CompatibilityWeightCoefficient * weightDiffSum / float64(matching)
	}
	return d
}

// MaxNodeID returns the highest node id in the genome, or -1 if empty.
func (g *Genome) MaxNodeID() int {
	maxID := -1
	for id := range g.Nodes {
		if id > maxID {
			maxID = id
		}
	}
	return maxID
}
