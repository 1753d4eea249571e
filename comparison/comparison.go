// Package comparison drives the full analysis: for every ordered pair of
// hierarchy ranks (bacteria side x phage side) and every sample cohort, it
// joins the two sides' abundance matrices and runs the correlation engine,
// collecting one result per (rank pair, cohort) unit.
package comparison

import (
	"errors"
	"sync"

	"phagecorr/abundance"
	"phagecorr/cohort"
	"phagecorr/correlation"
)

// ErrNoComparisons is returned when every unit of the batch failed.
var ErrNoComparisons = errors.New("comparison: no unit succeeded")

// LevelPair identifies one comparison: the bacteria-side rank against the
// phage-side rank.
type LevelPair struct {
	BacteriaRank string
	PhageRank    string
}

func (lp LevelPair) String() string {
	return lp.BacteriaRank + "-" + lp.PhageRank
}

// Comparison is the outcome of one (rank pair, cohort) unit. Err is non-nil
// when the unit failed, in which case Result carries OutcomeFailed.
type Comparison struct {
	Result correlation.Result
	Err    error
}

// ResultSet holds every unit's outcome, keyed by rank pair and then cohort.
type ResultSet map[LevelPair]map[string]Comparison

// Config carries the batch parameters. Values are copied into each unit of
// work; nothing is read from shared state while the pool runs.
type Config struct {
	// Ranks is the fixed hierarchy-rank list, applied independently to the
	// bacteria and phage sides, so the batch covers len(Ranks)^2 pairs.
	Ranks []string
	// Alpha is the FDR significance threshold per correlation call.
	Alpha float64
	// Cutoff is the relative-abundance reporting threshold.
	Cutoff float64
	// Workers bounds the number of concurrent units; values below 1 mean 1.
	Workers int
}

// Run executes the batch. bacteriaCounts and phageCounts map each rank to its
// long-format aggregated counts (see abundance.AggregateToRank); membership
// assigns samples to cohorts. Units are independent: any per-unit failure
// (insufficient samples in a cohort, a failed projection) is recorded as a
// failed Comparison for that key and the rest of the batch continues. Run
// itself errors only when no unit at all succeeds.
func Run(cfg Config, bacteriaCounts, phageCounts map[string][]abundance.Count, membership cohort.Membership) (ResultSet, error) {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	bacteria, bacteriaErrs := projectRanks(cfg.Ranks, bacteriaCounts, cfg.Cutoff)
	phage, phageErrs := projectRanks(cfg.Ranks, phageCounts, cfg.Cutoff)

	type task struct {
		pair   LevelPair
		cohort string
		matrix abundance.Matrix
		setA   []string
		setB   []string
		err    error
	}

	var tasks []task
	for _, bRank := range cfg.Ranks {
		for _, pRank := range cfg.Ranks {
			pair := LevelPair{BacteriaRank: bRank, PhageRank: pRank}

			if err := firstError(bacteriaErrs[bRank], phageErrs[pRank]); err != nil {
				for label := range membership {
					tasks = append(tasks, task{pair: pair, cohort: label, err: err})
				}
				continue
			}

			// Samples present on only one side drop out of this pair only.
			merged, fromBacteria, fromPhage := abundance.Join(bacteria[bRank], phage[pRank])

			for label, part := range cohort.Split(merged, membership) {
				tasks = append(tasks, task{
					pair:   pair,
					cohort: label,
					matrix: part,
					setA:   fromBacteria,
					setB:   fromPhage,
				})
			}
		}
	}

	type keyed struct {
		pair   LevelPair
		cohort string
		c      Comparison
	}

	results := make(chan keyed)
	concurrencyLimit := make(chan struct{}, workers)

	var pool sync.WaitGroup
	pool.Add(len(tasks))
	for _, tk := range tasks {
		go func(tk task) {
			defer pool.Done()

			concurrencyLimit <- struct{}{}
			defer func() { <-concurrencyLimit }()

			c := Comparison{Err: tk.err}
			if tk.err == nil {
				c.Result, c.Err = correlation.Compute(tk.matrix, tk.setA, tk.setB, cfg.Alpha)
			}
			if c.Err != nil {
				c.Result = correlation.Result{Outcome: correlation.OutcomeFailed}
			}

			results <- keyed{pair: tk.pair, cohort: tk.cohort, c: c}
		}(tk)
	}

	go func() {
		pool.Wait()
		close(results)
	}()

	out := make(ResultSet)
	succeeded := false
	for r := range results {
		byCohort := out[r.pair]
		if byCohort == nil {
			byCohort = make(map[string]Comparison)
			out[r.pair] = byCohort
		}
		byCohort[r.cohort] = r.c

		if r.c.Err == nil {
			succeeded = true
		}
	}

	if len(tasks) > 0 && !succeeded {
		return out, ErrNoComparisons
	}

	return out, nil
}

// projectRanks builds one wide matrix per rank, keeping per-rank errors so a
// bad rank fails only the pairs that touch it.
func projectRanks(ranks []string, counts map[string][]abundance.Count, cutoff float64) (map[string]abundance.Matrix, map[string]error) {
	matrices := make(map[string]abundance.Matrix, len(ranks))
	errs := make(map[string]error)

	for _, rank := range ranks {
		m, err := abundance.Project(counts[rank], cutoff)
		if err != nil {
			errs[rank] = err
			continue
		}
		matrices[rank] = m
	}

	return matrices, errs
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
