package neat

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testGenomeConfig returns a fully-connected 2-input/1-output configuration.
func testGenomeConfig() *GenomeConfig {
	cfg := DefaultConfig().Genome
	cfg.NumInputs = 2
	cfg.NumOutputs = 1
	cfg.SeedConnectionDensity = 1.0
	return &cfg
}

// newTestSeed builds a seed genome against the given tracker.
func newTestSeed(t *testing.T, cfg *GenomeConfig, tracker *InnovationTracker, rng *rand.Rand, id int) *Genome {
	t.Helper()
	g, err := NewSeedGenome(id, cfg, tracker, rng)
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	return g
}

func TestNewSeedGenome(t *testing.T) {
	cfg := testGenomeConfig()
	tracker := NewInnovationTracker(cfg.SeedNodeCount())
	rng := rand.New(rand.NewSource(1))

	g := newTestSeed(t, cfg, tracker, rng, 1)

	assert.Equal(t, []int{0, 1}, g.InputIDs())
	assert.Equal(t, []int{2}, g.OutputIDs())
	assert.Equal(t, []int{0, 1, 2}, g.NodeIDs())

	require.Len(t, g.Connections, 2)
	assert.Equal(t, int64(0), g.Connections[0].Innovation)
	assert.Equal(t, 0, g.Connections[0].From)
	assert.Equal(t, 2, g.Connections[0].To)
	assert.Equal(t, int64(1), g.Connections[1].Innovation)
	assert.Equal(t, 1, g.Connections[1].From)
	assert.Equal(t, 2, g.Connections[1].To)
	for _, cg := range g.Connections {
		assert.True(t, cg.Enabled)
	}

	assert.Equal(t, int64(2), tracker.NextInnovation())
	assert.Equal(t, 3, tracker.NextNodeID())
}

func TestSeedGenomesShareInnovations(t *testing.T) {
	cfg := testGenomeConfig()
	tracker := NewInnovationTracker(cfg.SeedNodeCount())
	rng := rand.New(rand.NewSource(1))

	a := newTestSeed(t, cfg, tracker, rng, 1)
	b := newTestSeed(t, cfg, tracker, rng, 2)

	require.Equal(t, len(a.Connections), len(b.Connections))
	for i := range a.Connections {
		assert.Equal(t, a.Connections[i].Innovation, b.Connections[i].Innovation)
		assert.Equal(t, a.Connections[i].From, b.Connections[i].From)
		assert.Equal(t, a.Connections[i].To, b.Connections[i].To)
	}
}

func TestGenomeEvaluated(t *testing.T) {
	g := NewGenome(1)
	assert.False(t, g.Evaluated())
	g.SetFitness(0.0)
	assert.True(t, g.Evaluated(), "a zero fitness still counts as evaluated")
}

func TestValidateMissingNode(t *testing.T) {
	g := NewGenome(1)
	g.Nodes[0] = NodeGene{ID: 0, Role: RoleInput, Activation: "sigmoid"}
	g.insertConnection(ConnectionGene{Innovation: 0, From: 0, To: 7, Weight: 1, Enabled: true})

	err := g.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariantViolation))
}

func TestValidateUnsortedConnections(t *testing.T) {
	g := NewGenome(1)
	g.Nodes[0] = NodeGene{ID: 0, Role: RoleInput, Activation: "sigmoid"}
	g.Nodes[1] = NodeGene{ID: 1, Role: RoleOutput, Activation: "sigmoid"}
	g.Connections = []ConnectionGene{
		{Innovation: 5, From: 0, To: 1, Weight: 1, Enabled: true},
		{Innovation: 2, From: 0, To: 1, Weight: 1, Enabled: false},
	}

	err := g.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariantViolation))
}

func TestValidateDuplicateEnabledPair(t *testing.T) {
	g := NewGenome(1)
	g.Nodes[0] = NodeGene{ID: 0, Role: RoleInput, Activation: "sigmoid"}
	g.Nodes[1] = NodeGene{ID: 1, Role: RoleOutput, Activation: "sigmoid"}
	g.Connections = []ConnectionGene{
		{Innovation: 0, From: 0, To: 1, Weight: 1, Enabled: true},
		{Innovation: 3, From: 0, To: 1, Weight: -1, Enabled: true},
	}

	err := g.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariantViolation))

	// Disabling one of the pair makes the genome legal again.
	g.Connections[1].Enabled = false
	assert.NoError(t, g.Validate())
}

func TestValidateCycle(t *testing.T) {
	g := NewGenome(1)
	g.Nodes[0] = NodeGene{ID: 0, Role: RoleInput, Activation: "sigmoid"}
	g.Nodes[1] = NodeGene{ID: 1, Role: RoleOutput, Activation: "sigmoid"}
	g.Nodes[3] = NodeGene{ID: 3, Role: RoleHidden, Activation: "sigmoid"}
	g.Nodes[4] = NodeGene{ID: 4, Role: RoleHidden, Activation: "sigmoid"}
	g.Connections = []ConnectionGene{
		{Innovation: 0, From: 0, To: 3, Weight: 1, Enabled: true},
		{Innovation: 1, From: 3, To: 4, Weight: 1, Enabled: true},
		{Innovation: 2, From: 4, To: 3, Weight: 1, Enabled: true},
		{Innovation: 3, From: 4, To: 1, Weight: 1, Enabled: true},
	}

	err := g.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariantViolation))
	assert.True(t, errors.Is(err, ErrCycleDetected))

	// The cycle only counts over enabled genes.
	g.Connections[2].Enabled = false
	assert.NoError(t, g.Validate())
}

func TestCloneIndependence(t *testing.T) {
	cfg := testGenomeConfig()
	tracker := NewInnovationTracker(cfg.SeedNodeCount())
	rng := rand.New(rand.NewSource(1))
	g := newTestSeed(t, cfg, tracker, rng, 1)
	g.SetFitness(3.5)

	c := g.Clone()
	require.Equal(t, g.Connections, c.Connections)
	require.Equal(t, g.Nodes, c.Nodes)
	require.NotNil(t, c.Fitness)
	assert.Equal(t, 3.5, *c.Fitness)

	c.Connections[0].Weight = 99
	c.Nodes[9] = NodeGene{ID: 9, Role: RoleHidden, Activation: "sigmoid"}
	*c.Fitness = -1

	assert.NotEqual(t, 99.0, g.Connections[0].Weight)
	_, leaked := g.Nodes[9]
	assert.False(t, leaked)
	assert.Equal(t, 3.5, *g.Fitness)
}

func TestDistanceIdentical(t *testing.T) {
	cfg := testGenomeConfig()
	tracker := NewInnovationTracker(cfg.SeedNodeCount())
	rng := rand.New(rand.NewSource(1))
	g := newTestSeed(t, cfg, tracker, rng, 1)

	assert.Equal(t, 0.0, g.Distance(g.Clone(), cfg))
}

func TestDistanceMismatchedGenes(t *testing.T) {
	cfg := testGenomeConfig()
	cfg.CompatibilityDisjointCoefficient = 1.0
	cfg.CompatibilityWeightCoefficient = 0.0

	tracker := NewInnovationTracker(cfg.SeedNodeCount())
	rng := rand.New(rand.NewSource(1))
	a := newTestSeed(t, cfg, tracker, rng, 1)
	b := a.Clone()

	// One gene unique to b: one mismatch over max(2, 3) genes.
	b.Nodes[3] = NodeGene{ID: 3, Role: RoleHidden, Activation: "sigmoid"}
	b.insertConnection(ConnectionGene{Innovation: 2, From: 0, To: 3, Weight: 1, Enabled: true})

	assert.InDelta(t, 1.0/3.0, a.Distance(b, cfg), 1e-9)
	assert.InDelta(t, a.Distance(b, cfg), b.Distance(a, cfg), 1e-9, "distance is symmetric")
}

func TestDistanceWeightTerm(t *testing.T) {
	cfg := testGenomeConfig()
	cfg.CompatibilityDisjointCoefficient = 0.0
	cfg.CompatibilityWeightCoefficient = 0.5

	tracker := NewInnovationTracker(cfg.SeedNodeCount())
	rng := rand.New(rand.NewSource(1))
	a := newTestSeed(t, cfg, tracker, rng, 1)
	b := a.Clone()
	b.Connections[0].Weight = a.Connections[0].Weight + 2.0
	b.Connections[1].Weight = a.Connections[1].Weight + 4.0

	// Mean weight difference is 3, scaled by the coefficient.
	assert.InDelta(t, 1.5, a.Distance(b, cfg), 1e-9)
}

func TestMaxNodeID(t *testing.T) {
	g := NewGenome(1)
	assert.Equal(t, -1, g.MaxNodeID())
	g.Nodes[0] = NodeGene{ID: 0, Role: RoleInput, Activation: "sigmoid"}
	g.Nodes[7] = NodeGene{ID: 7, Role: RoleHidden, Activation: "sigmoid"}
	assert.Equal(t, 7, g.MaxNodeID())
}
