package neat

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrossoverRequiresEvaluatedParents(t *testing.T) {
	cfg := testGenomeConfig()
	tracker := NewInnovationTracker(cfg.SeedNodeCount())
	rng := rand.New(rand.NewSource(1))
	a := newTestSeed(t, cfg, tracker, rng, 1)
	b := newTestSeed(t, cfg, tracker, rng, 2)
	a.SetFitness(1.0)

	c := NewCrossoverEngine(cfg, rng)
	_, err := c.Crossover(3, a, b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotEvaluated))
}

func TestCrossoverExcessFromFitterParent(t *testing.T) {
	cfg := testGenomeConfig()
	tracker := NewInnovationTracker(cfg.SeedNodeCount())
	rng := rand.New(rand.NewSource(1))

	a := newTestSeed(t, cfg, tracker, rng, 1)
	b := newTestSeed(t, cfg, tracker, rng, 2)

	// Parent A carries an extra gene with innovation 2, parent B one with
	// innovation 3, each through its own private hidden node.
	a.Nodes[3] = NodeGene{ID: 3, Role: RoleHidden, Activation: "sigmoid"}
	a.insertConnection(ConnectionGene{Innovation: 2, From: 0, To: 3, Weight: 0.25, Enabled: true})
	require.NoError(t, a.Validate())

	b.Nodes[4] = NodeGene{ID: 4, Role: RoleHidden, Activation: "sigmoid"}
	b.insertConnection(ConnectionGene{Innovation: 3, From: 1, To: 4, Weight: -0.25, Enabled: true})
	require.NoError(t, b.Validate())

	a.SetFitness(1.0)
	b.SetFitness(0.5)

	c := NewCrossoverEngine(cfg, rng)
	child, err := c.Crossover(3, a, b)
	require.NoError(t, err)
	require.NoError(t, child.Validate())

	// The offspring carries exactly the fitter parent's gene set: the shared
	// genes plus A's excess, never B's.
	innovations := make([]int64, len(child.Connections))
	for i, cg := range child.Connections {
		innovations[i] = cg.Innovation
	}
	assert.Equal(t, []int64{0, 1, 2}, innovations)

	_, hasA := child.Nodes[3]
	assert.True(t, hasA)
	_, hasB := child.Nodes[4]
	assert.False(t, hasB)

	// Matching gene weights come from one parent or the other, never blended.
	for _, cg := range child.Connections[:2] {
		fromA := a.Connections[a.connectionIndex(cg.Innovation)].Weight
		fromB := b.Connections[b.connectionIndex(cg.Innovation)].Weight
		assert.Contains(t, []float64{fromA, fromB}, cg.Weight)
	}
}

func TestCrossoverWithSelfIsIdentity(t *testing.T) {
	cfg := testGenomeConfig()
	tracker := NewInnovationTracker(cfg.SeedNodeCount())
	rng := rand.New(rand.NewSource(1))
	a := newTestSeed(t, cfg, tracker, rng, 1)
	a.Connections[1].Enabled = false
	a.SetFitness(2.0)

	b := a.Clone()
	b.ID = 2

	c := NewCrossoverEngine(cfg, rng)
	child, err := c.Crossover(3, a, b)
	require.NoError(t, err)

	assert.Equal(t, 3, child.ID)
	assert.Equal(t, a.Connections, child.Connections)
	assert.Equal(t, a.Nodes, child.Nodes)
	assert.False(t, child.Evaluated(), "fitness is never inherited")
}

func TestCrossoverDisableInheritance(t *testing.T) {
	cfg := testGenomeConfig()
	cfg.GeneDisableInheritProb = 1.0

	tracker := NewInnovationTracker(cfg.SeedNodeCount())
	rng := rand.New(rand.NewSource(1))
	a := newTestSeed(t, cfg, tracker, rng, 1)
	b := a.Clone()
	b.ID = 2
	b.Connections[0].Enabled = false

	a.SetFitness(1.0)
	b.SetFitness(1.0)

	c := NewCrossoverEngine(cfg, rng)
	for i := 0; i < 20; i++ {
		child, err := c.Crossover(10+i, a, b)
		require.NoError(t, err)
		// Disabled in one parent, inherit probability 1: always disabled.
		assert.False(t, child.Connections[child.connectionIndex(0)].Enabled)
		assert.True(t, child.Connections[child.connectionIndex(1)].Enabled)
	}
}

func TestCrossoverOffspringStayValid(t *testing.T) {
	cfg := testGenomeConfig()
	cfg.NodeAddProb = 0.5
	cfg.ConnAddProb = 0.5
	cfg.ToggleRate = 0.3

	tracker := NewInnovationTracker(cfg.SeedNodeCount())
	rng := rand.New(rand.NewSource(99))
	a := newTestSeed(t, cfg, tracker, rng, 1)
	b := newTestSeed(t, cfg, tracker, rng, 2)

	m := NewMutationEngine(cfg, tracker, rng)
	c := NewCrossoverEngine(cfg, rng)

	for i := 0; i < 100; i++ {
		require.NoError(t, m.Mutate(a))
		require.NoError(t, m.Mutate(b))
		a.SetFitness(rng.Float64())
		b.SetFitness(rng.Float64())

		child, err := c.Crossover(100+i, a, b)
		require.NoError(t, err, "round %d", i)
		require.NoError(t, child.Validate(), "round %d produced an invalid child", i)

		// Every child gene must exist in at least one parent.
		for _, cg := range child.Connections {
			assert.True(t, a.HasInnovation(cg.Innovation) || b.HasInnovation(cg.Innovation))
		}
	}
}
