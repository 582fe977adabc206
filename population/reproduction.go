package population

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/baldhumanity/neatcore/neat"
)

// reproduce builds the next generation. With speciation enabled (nonzero
// compatibility threshold) offspring slots are divided among species in
// proportion to adjusted fitness, after stagnant species are removed.
// Without it the whole population forms a single breeding group.
//
// This phase runs single-threaded: it is the only place structural mutation
// happens, which keeps the innovation tracker under the required
// single-writer discipline.
func (p *Population) reproduce() (map[int]*neat.Genome, error) {
	popSize := p.Config.Neat.PopSize

	if p.speciesSet.Enabled() {
		return p.reproduceSpeciated(popSize)
	}

	members := p.rankedGenomes()
	if len(members) == 0 {
		return nil, errors.New("no evaluated genomes to reproduce from")
	}

	next := make(map[int]*neat.Genome, popSize)
	if err := p.spawnGroup(next, members, popSize, p.Config.Reproduction.Elitism); err != nil {
		return nil, err
	}
	if len(next) != popSize {
		fmt.Printf("Warning: new population size (%d) differs from target (%d)\n", len(next), popSize)
	}
	return next, nil
}

func (p *Population) reproduceSpeciated(popSize int) (map[int]*neat.Genome, error) {
	p.speciesSet.Speciate(&p.Config.Genome, p.Genomes, p.Generation)

	infos := p.stagnation.Update(p.speciesSet, p.Generation)
	var survivors []*Species
	for _, info := range infos {
		if info.IsStagnant {
			fmt.Printf("Species %d removed after %d stagnant generations\n",
				info.Species.ID, p.Generation-info.Species.LastImproved)
			p.speciesSet.Remove(info.Species.ID)
			continue
		}
		if len(info.Species.Members) > 0 {
			survivors = append(survivors, info.Species)
		}
	}
	if len(survivors) == 0 {
		return nil, errors.New("all species extinct")
	}

	spawnAmounts := computeSpawnAmounts(survivors, popSize)

	next := make(map[int]*neat.Genome, popSize)
	for i, sp := range survivors {
		members := make([]*neat.Genome, len(sp.Members))
		copy(members, sp.Members)
		sort.Slice(members, func(a, b int) bool {
			return *members[a].Fitness > *members[b].Fitness
		})
		if err := p.spawnGroup(next, members, spawnAmounts[i], p.Config.Reproduction.Elitism); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// spawnGroup fills `spawn` slots in next from one breeding group: elites are
// carried over unchanged, the rest are offspring of parents drawn from the
// top survival-threshold fraction, crossed over and then mutated. members
// must be sorted by fitness descending.
func (p *Population) spawnGroup(next map[int]*neat.Genome, members []*neat.Genome, spawn, elitism int) error {
	for i := 0; i < elitism && i < len(members) && spawn > 0; i++ {
		next[members[i].ID] = members[i]
		spawn--
	}
	if spawn <= 0 {
		return nil
	}

	cutoff := int(math.Ceil(p.Config.Reproduction.SurvivalThreshold * float64(len(members))))
	if cutoff < 2 {
		cutoff = 2
	}
	if cutoff > len(members) {
		cutoff = len(members)
	}
	parents := members[:cutoff]

	for produced := 0; produced < spawn; produced++ {
		parentA := parents[p.rng.Intn(len(parents))]
		parentB := parents[p.rng.Intn(len(parents))]

		child, err := p.crossover.Crossover(p.nextID(), parentA, parentB)
		if err != nil {
			if errors.Is(err, neat.ErrInvariantViolation) {
				// The repaired child is discarded; this signals corrupted
				// innovation history and is worth surfacing loudly.
				fmt.Printf("Warning: discarding offspring of %d x %d: %v\n", parentA.ID, parentB.ID, err)
				continue
			}
			return err
		}
		if err := p.mutation.Mutate(child); err != nil {
			return err
		}
		next[child.ID] = child
	}
	return nil
}

// rankedGenomes returns all evaluated genomes sorted by fitness descending.
func (p *Population) rankedGenomes() []*neat.Genome {
	members := make([]*neat.Genome, 0, len(p.Genomes))
	for _, g := range p.Genomes {
		if g.Evaluated() {
			members = append(members, g)
		}
	}
	sort.Slice(members, func(a, b int) bool {
		if *members[a].Fitness == *members[b].Fitness {
			return members[a].ID < members[b].ID
		}
		return *members[a].Fitness > *members[b].Fitness
	})
	return members
}

// computeSpawnAmounts divides popSize offspring slots among species in
// proportion to adjusted (shared) fitness, guaranteeing every surviving
// species at least one slot and correcting rounding drift so the total
// matches popSize exactly.
func computeSpawnAmounts(species []*Species, popSize int) []int {
	allFitnesses := make([]float64, 0, popSize)
	for _, sp := range species {
		for _, g := range sp.Members {
			allFitnesses = append(allFitnesses, *g.Fitness)
		}
	}
	minFitness := neat.MinFloat(allFitnesses)
	fitnessRange := math.Max(1.0, neat.MaxFloat(allFitnesses)-minFitness)

	adjustedSum := 0.0
	for _, sp := range species {
		sp.AdjustedFitness = (sp.Fitness - minFitness) / fitnessRange
		adjustedSum += sp.AdjustedFitness
	}

	amounts := make([]int, len(species))
	total := 0
	for i, sp := range species {
		var share float64
		if adjustedSum > 0 {
			share = sp.AdjustedFitness / adjustedSum * float64(popSize)
		} else {
			share = float64(popSize) / float64(len(species))
		}
		amounts[i] = maxIntn(1, int(math.Round(share)))
		total += amounts[i]
	}

	// Round-off correction, largest species adjusted first.
	order := make([]int, len(amounts))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return amounts[order[a]] > amounts[order[b]] })

	for diff := popSize - total; diff != 0; {
		adjusted := false
		for _, idx := range order {
			if diff > 0 {
				amounts[idx]++
				diff--
				adjusted = true
			} else if diff < 0 && amounts[idx] > 1 {
				amounts[idx]--
				diff++
				adjusted = true
			}
			if diff == 0 {
				break
			}
		}
		if !adjusted {
			break // every species already at its minimum
		}
	}
	return amounts
}

func maxIntn(a, b int) int {
	if a > b {
		return a
	}
	return b
}
