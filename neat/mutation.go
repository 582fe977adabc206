package neat

import "math/rand"

// MutationEngine applies the structural and weight mutation operators to
// genomes, consulting the shared InnovationTracker for every structural
// change. Operators are applied independently, so one genome may receive
// several kinds of mutation in a single generation.
//
// The order of application is fixed: add-node, then add-connection, then
// toggle, then weight perturbation. Structural changes come first so that
// genes created this generation are immediately subject to perturbation.
type MutationEngine struct {
	cfg     *GenomeConfig
	tracker *InnovationTracker
	rng     *rand.Rand
}

// NewMutationEngine creates an engine bound to one run's tracker. The rng is
// owned by the engine; callers running mutation concurrently must give each
// engine its own source or serialize calls.
func NewMutationEngine(cfg *GenomeConfig, tracker *InnovationTracker, rng *rand.Rand) *MutationEngine {
	return &MutationEngine{cfg: cfg, tracker: tracker, rng: rng}
}

// Mutate applies the configured operators to g in place. The only error
// conditions are tracker failures, which are fatal for the generation;
// finding no valid mutation target is a silent no-op.
func (m *MutationEngine) Mutate(g *Genome) error {
	if m.rng.Float64() < m.cfg.NodeAddProb {
		if err := m.addNode(g); err != nil {
			return err
		}
	}
	if m.rng.Float64() < m.cfg.ConnAddProb {
		if err := m.addConnection(g); err != nil {
			return err
		}
	}
	if m.rng.Float64() < m.cfg.ToggleRate {
		m.toggleEnable(g)
	}
	m.perturbWeights(g)
	return nil
}

// addNode splits a uniformly chosen enabled connection A->B: the original
// gene is disabled and replaced by A->N (weight 1.0) and N->B (the original
// weight), with N a new hidden node. The node id and both innovation ids come
// from the tracker's split table, so independent discoveries of the same
// split converge on identical identifiers. Splitting an edge can never
// introduce a cycle.
func (m *MutationEngine) addNode(g *Genome) error {
	var enabled []int
	for i, cg := range g.Connections {
		if cg.Enabled {
			enabled = append(enabled, i)
		}
	}
	if len(enabled) == 0 {
		return nil
	}

	idx := enabled[m.rng.Intn(len(enabled))]
	split := g.Connections[idx]

	nodeID, inInnov, outInnov, err := m.tracker.AssignNodeSplit(split.Innovation)
	if err != nil {
		return err
	}

	g.Connections[idx].Enabled = false

	// The same gene can be split again after a re-enable toggle. The tracker
	// then returns the identifiers of the structure this genome already
	// carries, so only the disable takes effect.
	if g.HasInnovation(inInnov) {
		return nil
	}

	g.Nodes[nodeID] = NodeGene{ID: nodeID, Role: RoleHidden, Activation: m.cfg.ActivationDefault}
	g.insertConnection(ConnectionGene{
		Innovation: inInnov,
		From:       split.From,
		To:         nodeID,
		Weight:     1.0,
		Enabled:    true,
	})
	g.insertConnection(ConnectionGene{
		Innovation: outInnov,
		From:       nodeID,
		To:         split.To,
		Weight:     split.Weight,
		Enabled:    true,
	})
	return nil
}

// addConnection tries up to ConnAddAttempts times to find a legal new edge:
// source not an output, target not an input, distinct endpoints, no enabled
// gene already on the pair, and no cycle through enabled connections. Running
// out of attempts is not an error; the mutation is simply skipped for this
// genome this generation.
func (m *MutationEngine) addConnection(g *Genome) error {
	sources := g.nodeIDsByRole(func(r NodeRole) bool { return r != RoleOutput })
	targets := g.nodeIDsByRole(func(r NodeRole) bool { return r != RoleInput })
	if len(sources) == 0 || len(targets) == 0 {
		return nil
	}

	for attempt := 0; attempt < m.cfg.ConnAddAttempts; attempt++ {
		from := sources[m.rng.Intn(len(sources))]
		to := targets[m.rng.Intn(len(targets))]

		if from == to || g.hasEnabledPair(from, to) || g.createsCycle(from, to) {
			continue
		}

		// A disabled gene on this pair already owns the pair's innovation id;
		// revive it with a fresh weight instead of minting a duplicate.
		if i := g.pairIndex(from, to); i >= 0 {
			g.Connections[i].Enabled = true
			g.Connections[i].Weight = m.cfg.randomWeight(m.rng)
			return nil
		}

		innov, err := m.tracker.AssignConnection(from, to)
		if err != nil {
			return err
		}
		g.insertConnection(ConnectionGene{
			Innovation: innov,
			From:       from,
			To:         to,
			Weight:     m.cfg.randomWeight(m.rng),
			Enabled:    true,
		})
		return nil
	}
	return nil
}

// toggleEnable flips the enabled flag on one uniformly chosen gene. The gene
// is never removed. Enabling is refused when it would create a cycle or a
// second enabled gene on the same endpoint pair; the toggle is then a no-op.
func (m *MutationEngine) toggleEnable(g *Genome) {
	if len(g.Connections) == 0 {
		return
	}
	i := m.rng.Intn(len(g.Connections))
	cg := g.Connections[i]

	if cg.Enabled {
		g.Connections[i].Enabled = false
		return
	}
	if g.hasEnabledPair(cg.From, cg.To) || g.createsCycle(cg.From, cg.To) {
		return
	}
	g.Connections[i].Enabled = true
}

// perturbWeights walks every gene, enabled or not: with WeightPerturbRate the
// weight receives gaussian noise scaled by WeightPerturbPower, else with
// WeightResetRate it is replaced outright by a fresh random value. Disabled
// genes participate because they may be re-enabled later.
func (m *MutationEngine) perturbWeights(g *Genome) {
	for i := range g.Connections {
		r := m.rng.Float64()
		switch {
		case r < m.cfg.WeightPerturbRate:
			w := g.Connections[i].Weight + m.rng.NormFloat64()*m.cfg.WeightPerturbPower
			g.Connections[i].Weight = clamp(w, m.cfg.WeightMinValue, m.cfg.WeightMaxValue)
		case r < m.cfg.WeightPerturbRate+m.cfg.WeightResetRate:
			g.Connections[i].Weight = m.cfg.randomWeight(m.rng)
		}
	}
}
