package neat

import (
	"fmt"
	"sort"
)

// PhenotypeInput is one weighted incoming edge of an evaluation step.
type PhenotypeInput struct {
	Source int
	Weight float64
}

// PhenotypeStep describes how to compute one non-input node: the weighted
// values to gather and the symbolic activation to apply. Steps appear in the
// plan only after every node they depend on.
type PhenotypeStep struct {
	Node       int
	Activation string
	Inputs     []PhenotypeInput
}

// Phenotype is the compiled, cycle-free evaluation plan derived from a
// genome. It covers enabled connections only and carries no behavior of its
// own; an external evaluator (such as the nn package) interprets it.
type Phenotype struct {
	GenomeID  int
	InputIDs  []int
	OutputIDs []int
	Steps     []PhenotypeStep
}

// BuildPhenotype validates that the enabled-connection subgraph is a DAG and
// produces the topologically ordered evaluation plan. It either succeeds
// completely or fails with ErrCycleDetected; there is no partial result.
// The check is mandatory here even though mutation and crossover preserve
// acyclicity: phenotype construction is the last boundary before the network
// reaches an external evaluator.
func BuildPhenotype(g *Genome) (*Phenotype, error) {
	order, err := topoOrder(g)
	if err != nil {
		return nil, err
	}

	// Incoming enabled edges per node, in innovation order since the gene
	// slice itself is innovation-sorted.
	incoming := make(map[int][]PhenotypeInput)
	for _, cg := range g.Connections {
		if !cg.Enabled {
			continue
		}
		incoming[cg.To] = append(incoming[cg.To], PhenotypeInput{Source: cg.From, Weight: cg.Weight})
	}

	p := &Phenotype{
		GenomeID:  g.ID,
		InputIDs:  g.InputIDs(),
		OutputIDs: g.OutputIDs(),
	}
	for _, id := range order {
		ng := g.Nodes[id]
		if ng.Role == RoleInput {
			continue
		}
		p.Steps = append(p.Steps, PhenotypeStep{
			Node:       id,
			Activation: ng.Activation,
			Inputs:     incoming[id],
		})
	}
	return p, nil
}

// checkAcyclic reports ErrCycleDetected if the enabled-connection subgraph of
// g is not a DAG.
func checkAcyclic(g *Genome) error {
	_, err := topoOrder(g)
	return err
}

// topoOrder runs Kahn's algorithm over the enabled-connection subgraph,
// covering every node in the genome. Ties are broken by ascending node id so
// the order, and therefore the plan, is deterministic for a given genome.
func topoOrder(g *Genome) ([]int, error) {
	inDegree := make(map[int]int, len(g.Nodes))
	adjacency := make(map[int][]int)
	for id := range g.Nodes {
		inDegree[id] = 0
	}
	for _, cg := range g.Connections {
		if !cg.Enabled {
			continue
		}
		adjacency[cg.From] = append(adjacency[cg.From], cg.To)
		inDegree[cg.To]++
	}

	var queue []int
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Ints(queue)

	order := make([]int, 0, len(g.Nodes))
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		order = append(order, u)

		next := adjacency[u]
		sort.Ints(next)
		for _, v := range next {
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
		sort.Ints(queue)
	}

	if len(order) != len(g.Nodes) {
		return nil, fmt.Errorf("genome %d: placed %d of %d nodes: %w",
			g.ID, len(order), len(g.Nodes), ErrCycleDetected)
	}
	return order, nil
}
