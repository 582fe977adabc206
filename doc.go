// Package neatcore implements the genome core of NeuroEvolution of
// Augmenting Topologies (NEAT): evolving network controllers whose topology,
// not just weights, changes across generations.
//
// The neat package holds the core: genomes of node and connection genes, the
// run-wide innovation tracker that gives structural mutations stable lineage
// identifiers, the mutation and crossover engines built on innovation-id
// alignment, and the phenotype builder that compiles a genome into a
// cycle-free evaluation plan. The nn package resolves symbolic activation
// references and evaluates those plans as feed-forward networks. The
// population package drives generations, and storage archives runs.
//
// Basic usage:
//
//	config, err := neat.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	pop, err := population.New(config, time.Now().UnixNano())
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//
//	for i := 0; i < 100; i++ {
//		winner, err := pop.RunGeneration(ctx, evaluator)
//		if err != nil {
//			log.Fatalf("Error running generation: %v", err)
//		}
//		if winner != nil {
//			fmt.Println("Solution found!")
//			break
//		}
//	}
package neatcore
