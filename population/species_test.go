package population

import (
	"math/rand"
	"testing"

	"github.com/baldhumanity/neatcore/neat"
)

// makeClusteredGenomes builds two structurally distinct groups: plain seeds
// and seeds extended with several private genes, far apart in compatibility
// distance.
func makeClusteredGenomes(t *testing.T, cfg *neat.Config) map[int]*neat.Genome {
	t.Helper()
	tracker := neat.NewInnovationTracker(cfg.Genome.SeedNodeCount())
	rng := rand.New(rand.NewSource(1))

	genomes := make(map[int]*neat.Genome)
	for id := 1; id <= 6; id++ {
		g, err := neat.NewSeedGenome(id, &cfg.Genome, tracker, rng)
		if err != nil {
			t.Fatalf("seed genome %d: %v", id, err)
		}
		if id > 3 {
			// Extend the second cluster with a private hidden chain.
			nodeID, inInnov, outInnov, err := tracker.AssignNodeSplit(0)
			if err != nil {
				t.Fatalf("split: %v", err)
			}
			g.Connections[0].Enabled = false
			g.Nodes[nodeID] = neat.NodeGene{ID: nodeID, Role: neat.RoleHidden, Activation: "sigmoid"}
			g.Connections = append(g.Connections,
				neat.ConnectionGene{Innovation: inInnov, From: 0, To: nodeID, Weight: 1, Enabled: true},
				neat.ConnectionGene{Innovation: outInnov, From: nodeID, To: 2, Weight: 1, Enabled: true},
			)
			if err := g.Validate(); err != nil {
				t.Fatalf("extended genome %d invalid: %v", id, err)
			}
		}
		g.SetFitness(float64(id))
		genomes[id] = g
	}
	return genomes
}

func TestSpeciesSetDisabledAtZeroThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.SpeciesSet.CompatibilityThreshold = 0
	ss := NewSpeciesSet(&cfg.SpeciesSet)
	if ss.Enabled() {
		t.Fatal("zero threshold must disable speciation")
	}
}

func TestSpeciateSplitsDistinctTopologies(t *testing.T) {
	cfg := testConfig()
	cfg.SpeciesSet.CompatibilityThreshold = 0.4
	cfg.Genome.CompatibilityDisjointCoefficient = 1.0
	cfg.Genome.CompatibilityWeightCoefficient = 0.0

	genomes := makeClusteredGenomes(t, cfg)
	ss := NewSpeciesSet(&cfg.SpeciesSet)
	ss.Speciate(&cfg.Genome, genomes, 1)

	if len(ss.Species) != 2 {
		t.Fatalf("expected 2 species, got %d", len(ss.Species))
	}

	assigned := 0
	for _, sp := range ss.Species {
		if len(sp.Members) != 3 {
			t.Errorf("species %d has %d members, want 3", sp.ID, len(sp.Members))
		}
		if sp.Representative == nil {
			t.Errorf("species %d lacks a representative", sp.ID)
		}
		assigned += len(sp.Members)
	}
	if assigned != len(genomes) {
		t.Fatalf("assigned %d genomes, want %d", assigned, len(genomes))
	}
}

func TestSpeciateReassignsRepresentatives(t *testing.T) {
	cfg := testConfig()
	cfg.SpeciesSet.CompatibilityThreshold = 0.4
	cfg.Genome.CompatibilityWeightCoefficient = 0.0

	genomes := makeClusteredGenomes(t, cfg)
	ss := NewSpeciesSet(&cfg.SpeciesSet)
	ss.Speciate(&cfg.Genome, genomes, 1)
	before := len(ss.Species)

	// Re-speciating the same population keeps the same partition and does not
	// found spurious new species.
	ss.Speciate(&cfg.Genome, genomes, 2)
	if len(ss.Species) != before {
		t.Fatalf("species count changed from %d to %d on identical population", before, len(ss.Species))
	}
}

func TestStagnationMarksStaleSpecies(t *testing.T) {
	cfg := testConfig()
	cfg.Stagnation.MaxStagnation = 2
	cfg.Stagnation.SpeciesElitism = 0

	stag, err := NewStagnation(&cfg.Stagnation)
	if err != nil {
		t.Fatalf("NewStagnation: %v", err)
	}

	cfg.SpeciesSet.CompatibilityThreshold = 0.4
	genomes := makeClusteredGenomes(t, cfg)
	ss := NewSpeciesSet(&cfg.SpeciesSet)
	ss.Speciate(&cfg.Genome, genomes, 1)

	// Fitness never improves across updates, so every species stalls.
	for gen := 1; gen <= 3; gen++ {
		infos := stag.Update(ss, gen)
		for _, info := range infos {
			if gen-info.Species.LastImproved < cfg.Stagnation.MaxStagnation && info.IsStagnant {
				t.Errorf("generation %d: species %d marked stagnant too early", gen, info.Species.ID)
			}
		}
	}

	infos := stag.Update(ss, 4)
	for _, info := range infos {
		if !info.IsStagnant {
			t.Errorf("species %d should be stagnant after 3 flat generations", info.Species.ID)
		}
	}
}

func TestStagnationSparesEliteSpecies(t *testing.T) {
	cfg := testConfig()
	cfg.Stagnation.MaxStagnation = 1
	cfg.Stagnation.SpeciesElitism = 1

	stag, err := NewStagnation(&cfg.Stagnation)
	if err != nil {
		t.Fatalf("NewStagnation: %v", err)
	}

	cfg.SpeciesSet.CompatibilityThreshold = 0.4
	genomes := makeClusteredGenomes(t, cfg)
	ss := NewSpeciesSet(&cfg.SpeciesSet)
	ss.Speciate(&cfg.Genome, genomes, 1)

	stag.Update(ss, 1)
	infos := stag.Update(ss, 5)

	survivors := 0
	for _, info := range infos {
		if !info.IsStagnant {
			survivors++
		}
	}
	if survivors != 1 {
		t.Fatalf("expected exactly the one elite species to survive, got %d", survivors)
	}
	// The survivor is the fittest species: infos are sorted least fit first.
	if infos[len(infos)-1].IsStagnant {
		t.Fatal("the fittest species must be the spared one")
	}
}

func TestComputeSpawnAmountsTotal(t *testing.T) {
	cfg := testConfig()
	cfg.SpeciesSet.CompatibilityThreshold = 0.4
	cfg.Genome.CompatibilityWeightCoefficient = 0.0
	genomes := makeClusteredGenomes(t, cfg)
	ss := NewSpeciesSet(&cfg.SpeciesSet)
	ss.Speciate(&cfg.Genome, genomes, 1)

	var species []*Species
	for _, sp := range ss.Species {
		sp.Fitness = neat.Mean(sp.memberFitnesses())
		species = append(species, sp)
	}

	for _, popSize := range []int{2, 7, 50, 151} {
		amounts := computeSpawnAmounts(species, popSize)
		total := 0
		for i, n := range amounts {
			if n < 1 {
				t.Errorf("popSize %d: species %d got %d slots, minimum is 1", popSize, i, n)
			}
			total += n
		}
		if total != popSize {
			t.Errorf("popSize %d: spawn amounts total %d", popSize, total)
		}
	}
}
