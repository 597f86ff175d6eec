// meta/meta.go
package meta

// BOARD_WIDTH and BOARD_HEIGHT are the standard playfield dimensions.
const BOARD_WIDTH = 10
const BOARD_HEIGHT = 20

// POPULATION_SIZE is the number of genomes per generation.
const POPULATION_SIZE = 50

// GENERATIONS caps the number of generations per run.
const GENERATIONS = 30

// STAGNATION stops a run after this many generations without a better best fitness. 0 disables it.
const STAGNATION = 0

// MIN_IMPROVEMENT stops a run once the mean fitness changes by less than this fraction.
const MIN_IMPROVEMENT = 0.0

// PLAYOUTS is the number of games averaged into one fitness value.
const PLAYOUTS = 3

// MAX_STEPS caps the pieces drawn per playout.
const MAX_STEPS = 500

const ELITISM = 1

const CROSSOVER_RATE = 0.9

const MUTATION_RATE = 0.1
const MUTATION_SIGMA = 0.2

// INIT_MIN and INIT_MAX bound the weights of the random first generation.
const INIT_MIN = -1.0
const INIT_MAX = 1.0

const SEED = 1

// WORKERS is the size of the fitness evaluation pool, capped at the number of CPUs.
const WORKERS = 8
