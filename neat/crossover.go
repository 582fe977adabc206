package neat

import (
	"fmt"
	"math/rand"
)

// CrossoverEngine aligns two parent genomes by innovation id and produces an
// offspring genome. Because both parents keep their genes sorted by
// innovation, alignment is a single sorted merge over the two sequences.
type CrossoverEngine struct {
	cfg *GenomeConfig
	rng *rand.Rand
}

// NewCrossoverEngine creates a crossover engine.
func NewCrossoverEngine(cfg *GenomeConfig, rng *rand.Rand) *CrossoverEngine {
	return &CrossoverEngine{cfg: cfg, rng: rng}
}

// Crossover produces an offspring with the given id from two evaluated
// parents.
//
// Matching genes (same innovation in both parents) are inherited from a
// uniformly random parent; if the gene is disabled in either parent it is
// forced disabled with probability GeneDisableInheritProb, otherwise the
// chosen parent's flag is kept. Disjoint and excess genes come only from the
// fitter parent (ties broken by a uniform random choice), so genes unique to
// the weaker parent are excluded.
//
// Both parents being acyclic, the offspring should be too; this is checked
// defensively anyway. If a cycle is found, the genes closing it are rejected
// from the offspring and the call reports the invariant violation instead of
// silently returning an invalid genome.
func (c *CrossoverEngine) Crossover(childID int, parentA, parentB *Genome) (*Genome, error) {
	if !parentA.Evaluated() || !parentB.Evaluated() {
		return nil, fmt.Errorf("crossover of genomes %d and %d: %w", parentA.ID, parentB.ID, ErrNotEvaluated)
	}

	fit, weak := parentA, parentB
	switch {
	case *parentA.Fitness > *parentB.Fitness:
	case *parentA.Fitness < *parentB.Fitness:
		fit, weak = parentB, parentA
	default:
		if c.rng.Float64() < 0.5 {
			fit, weak = parentB, parentA
		}
	}

	child := NewGenome(childID)

	i, j := 0, 0
	for i < len(fit.Connections) {
		fg := fit.Connections[i]
		for j < len(weak.Connections) && weak.Connections[j].Innovation < fg.Innovation {
			j++ // gene unique to the weaker parent: excluded
		}

		var inherited ConnectionGene
		if j < len(weak.Connections) && weak.Connections[j].Innovation == fg.Innovation {
			inherited = c.inheritMatching(fg, weak.Connections[j])
			j++
		} else {
			inherited = fg // disjoint or excess, fitter parent only
		}
		child.Connections = append(child.Connections, inherited)
		i++
	}

	c.inheritNodes(child, fit, weak)

	if err := c.repairCycles(child); err != nil {
		return child, err
	}
	return child, nil
}

// inheritMatching combines two aligned copies of the same gene.
func (c *CrossoverEngine) inheritMatching(a, b ConnectionGene) ConnectionGene {
	gene := a
	if c.rng.Float64() < 0.5 {
		gene = b
	}
	if !a.Enabled || !b.Enabled {
		if c.rng.Float64() < c.cfg.GeneDisableInheritProb {
			gene.Enabled = false
		}
	}
	return gene
}

// inheritNodes fills the child's node set: every node referenced by an
// inherited gene, defined by the fitter parent where both know it, plus the
// fitter parent's input and output nodes so the interface of the network
// survives even when some of its edges did not.
func (c *CrossoverEngine) inheritNodes(child, fit, weak *Genome) {
	need := make(map[int]bool)
	for _, cg := range child.Connections {
		need[cg.From] = true
		need[cg.To] = true
	}
	for id, ng := range fit.Nodes {
		if ng.Role != RoleHidden {
			need[id] = true
		}
	}
	for id := range need {
		if ng, ok := fit.Nodes[id]; ok {
			child.Nodes[id] = ng
		} else if ng, ok := weak.Nodes[id]; ok {
			child.Nodes[id] = ng
		}
	}
}

// repairCycles admits the child's enabled genes one at a time in innovation
// order, rejecting any gene that would close a cycle. Rejected genes are
// removed outright; the first rejection is reported as an invariant
// violation because valid parents can never produce one.
func (c *CrossoverEngine) repairCycles(child *Genome) error {
	if checkAcyclic(child) == nil {
		return nil
	}

	probe := NewGenome(child.ID)
	probe.Nodes = child.Nodes

	kept := child.Connections[:0]
	var firstRejected ConnectionGene
	rejected := 0
	for _, cg := range child.Connections {
		if cg.Enabled && probe.createsCycle(cg.From, cg.To) {
			if rejected == 0 {
				firstRejected = cg
			}
			rejected++
			continue
		}
		probe.Connections = append(probe.Connections, cg)
		kept = append(kept, cg)
	}
	child.Connections = kept

	return fmt.Errorf("%w: crossover produced a cyclic offspring, rejected %d gene(s) starting at %s: %w",
		ErrInvariantViolation, rejected, firstRejected.String(), ErrCycleDetected)
}
