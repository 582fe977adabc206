package neat

import (
	"fmt"
	"sort"
)

// NodeRecord is the persisted form of a NodeGene.
type NodeRecord struct {
	ID         int    `json:"id"`
	Role       string `json:"role"`
	Activation string `json:"activation"`
}

// ConnectionRecord is the persisted form of a ConnectionGene.
type ConnectionRecord struct {
	Innovation int64   `json:"innovation"`
	From       int     `json:"from"`
	To         int     `json:"to"`
	Weight     float64 `json:"weight"`
	Enabled    bool    `json:"enabled"`
}

// GenomeRecord is the minimal persisted form of a genome: an ordered list of
// connection tuples plus a node list. It is everything a storage layer needs
// to resume evolution or replay a phenotype, and the contract any external
// persistence must honor. Connections are ordered by innovation ascending.
type GenomeRecord struct {
	ID          int                `json:"id"`
	Nodes       []NodeRecord       `json:"nodes"`
	Connections []ConnectionRecord `json:"connections"`
	Fitness     *float64           `json:"fitness,omitempty"`
}

// ToRecord converts the genome to its persisted form. Nodes are emitted in
// ascending id order; connections are already in innovation order.
func (g *Genome) ToRecord() GenomeRecord {
	rec := GenomeRecord{
		ID:          g.ID,
		Nodes:       make([]NodeRecord, 0, len(g.Nodes)),
		Connections: make([]ConnectionRecord, 0, len(g.Connections)),
	}
	for _, id := range g.NodeIDs() {
		ng := g.Nodes[id]
		rec.Nodes = append(rec.Nodes, NodeRecord{ID: ng.ID, Role: ng.Role.String(), Activation: ng.Activation})
	}
	for _, cg := range g.Connections {
		rec.Connections = append(rec.Connections, ConnectionRecord{
			Innovation: cg.Innovation,
			From:       cg.From,
			To:         cg.To,
			Weight:     cg.Weight,
			Enabled:    cg.Enabled,
		})
	}
	if g.Fitness != nil {
		f := *g.Fitness
		rec.Fitness = &f
	}
	return rec
}

// GenomeFromRecord reconstructs a genome from its persisted form. The
// connection list is re-sorted by innovation (stored order is not trusted)
// and the result is validated before being returned.
func GenomeFromRecord(rec GenomeRecord) (*Genome, error) {
	g := NewGenome(rec.ID)
	for _, nr := range rec.Nodes {
		role, err := ParseNodeRole(nr.Role)
		if err != nil {
			return nil, fmt.Errorf("genome %d node %d: %w", rec.ID, nr.ID, err)
		}
		if _, dup := g.Nodes[nr.ID]; dup {
			return nil, fmt.Errorf("genome %d: duplicate node id %d", rec.ID, nr.ID)
		}
		g.Nodes[nr.ID] = NodeGene{ID: nr.ID, Role: role, Activation: nr.Activation}
	}

	g.Connections = make([]ConnectionGene, 0, len(rec.Connections))
	for _, cr := range rec.Connections {
		g.Connections = append(g.Connections, ConnectionGene{
			Innovation: cr.Innovation,
			From:       cr.From,
			To:         cr.To,
			Weight:     cr.Weight,
			Enabled:    cr.Enabled,
		})
	}
	sort.Slice(g.Connections, func(i, j int) bool {
		return g.Connections[i].Innovation < g.Connections[j].Innovation
	})

	if rec.Fitness != nil {
		f := *rec.Fitness
		g.Fitness = &f
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
