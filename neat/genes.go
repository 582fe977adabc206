package neat

import "fmt"

// NodeRole classifies a node within a genome. Roles are a tagged enum rather
// than distinct types; behavior differences (who may be a connection source or
// target, who appears in the evaluation plan) are decided by switching on the
// role.
type NodeRole int

const (
	RoleInput NodeRole = iota
	RoleHidden
	RoleOutput
)

// String returns the lowercase role name used in serialized genomes.
func (r NodeRole) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleHidden:
		return "hidden"
	case RoleOutput:
		return "output"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseNodeRole converts a serialized role name back to a NodeRole.
func ParseNodeRole(s string) (NodeRole, error) {
	switch s {
	case "input":
		return RoleInput, nil
	case "hidden":
		return RoleHidden, nil
	case "output":
		return RoleOutput, nil
	default:
		return 0, fmt.Errorf("unknown node role %q", s)
	}
}

// NodeGene identifies a node and its role within a genome. The Activation
// field is a symbolic reference resolved by an external registry (see the nn
// package); the core never calls activation functions itself.
//
// NodeGenes are immutable once created: mutation only ever adds nodes.
type NodeGene struct {
	ID         int
	Role       NodeRole
	Activation string
}

// String returns a string representation of the NodeGene.
func (ng NodeGene) String() string {
	return fmt.Sprintf("NodeGene(ID: %d, Role: %s, Activation: %s)", ng.ID, ng.Role, ng.Activation)
}

// ConnectionGene is a weighted directed edge between two nodes. The Innovation
// field is the global lineage identifier assigned by the InnovationTracker;
// two genes in different genomes carrying the same innovation id describe the
// same structural event and are aligned during crossover.
//
// A disabled gene is retained in the genome purely for lineage purposes. Its
// weight keeps evolving so the connection stays useful if re-enabled later.
type ConnectionGene struct {
	Innovation int64
	From       int
	To         int
	Weight     float64
	Enabled    bool
}

// String returns a string representation of the ConnectionGene.
func (cg ConnectionGene) String() string {
	return fmt.Sprintf("ConnGene(Innov: %d, %d->%d, Weight: %.3f, Enabled: %t)",
		cg.Innovation, cg.From, cg.To, cg.Weight, cg.Enabled)
}
