// phagecorr computes significance-filtered Spearman correlations between
// bacterial and phage relative abundances, across every pair of taxonomic
// ranks and every sample cohort, writing one correlation matrix and one
// corrected p-value matrix per comparison plus optional heatmaps.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/aybabtme/uniplot/histogram"

	"phagecorr/abundance"
	"phagecorr/cohort"
	"phagecorr/comparison"
	"phagecorr/correlation"
	"phagecorr/taxonomy"
)

func main() {
	var bacteriaTaxonomy, phageTaxonomy string
	var bacteriaCounts, phageCounts string
	var annotationsA, annotationsB string
	var cohortList, rankList string
	var outputDir string
	var alpha, cutoff float64
	var workers int
	var drawHeatmaps bool

	flag.StringVar(&bacteriaTaxonomy, "bacteria_taxonomy", "", "Tab-delimited bacterial classification table (unit ID, then one column per rank)")
	flag.StringVar(&phageTaxonomy, "phage_taxonomy", "", "Tab-delimited phage classification table (unit ID, then one column per rank)")
	flag.StringVar(&bacteriaCounts, "bacteria_counts", "", "Tab-delimited bacterial counts (sample_id, unit_id, count)")
	flag.StringVar(&phageCounts, "phage_counts", "", "Tab-delimited phage counts (sample_id, unit_id, count)")
	flag.StringVar(&annotationsA, "annotations_a", "", "First sample-annotation table (sample_id, covariate)")
	flag.StringVar(&annotationsB, "annotations_b", "", "Second sample-annotation table (sample_id, covariate)")
	flag.StringVar(&cohortList, "cohorts", "", "Comma-delimited cohort labels to compare, matched against the covariate column")
	flag.StringVar(&rankList, "ranks", "Kingdom,Phylum,Class,Order,Family,Genus", "Comma-delimited rank columns, broadest first")
	flag.StringVar(&outputDir, "output", ".", "Directory for output matrices and heatmaps")
	flag.Float64Var(&alpha, "alpha", 0.05, "FDR significance threshold")
	flag.Float64Var(&cutoff, "cutoff", abundance.DefaultCutoff, "Relative-abundance reporting cutoff")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "Concurrent comparison units")
	flag.BoolVar(&drawHeatmaps, "heatmaps", true, "Render a PNG heatmap per plottable comparison")
	flag.Parse()

	if bacteriaTaxonomy == "" || phageTaxonomy == "" || bacteriaCounts == "" || phageCounts == "" ||
		annotationsA == "" || annotationsB == "" || cohortList == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := comparison.Config{
		Ranks:   strings.Split(rankList, ","),
		Alpha:   alpha,
		Cutoff:  cutoff,
		Workers: workers,
	}

	if err := run(cfg, bacteriaTaxonomy, phageTaxonomy, bacteriaCounts, phageCounts,
		annotationsA, annotationsB, strings.Split(cohortList, ","), outputDir, drawHeatmaps); err != nil {
		log.Fatalln(err)
	}
}

func run(cfg comparison.Config, bacteriaTaxonomy, phageTaxonomy, bacteriaCountsPath, phageCountsPath,
	annotationsA, annotationsB string, cohortLabels []string, outputDir string, drawHeatmaps bool) error {

	bacteriaSide, err := loadSide(bacteriaTaxonomy, bacteriaCountsPath, cfg.Ranks)
	if err != nil {
		return err
	}
	log.Println("Loaded and filled the bacterial taxonomy")

	phageSide, err := loadSide(phageTaxonomy, phageCountsPath, cfg.Ranks)
	if err != nil {
		return err
	}
	log.Println("Loaded and filled the phage taxonomy")

	annotA, err := loadAnnotations(annotationsA)
	if err != nil {
		return err
	}
	annotB, err := loadAnnotations(annotationsB)
	if err != nil {
		return err
	}

	membership := cohort.BuildMembership(annotA, annotB, cohortLabels)
	for _, label := range cohortLabels {
		log.Println("Cohort", label, "has", len(membership[label]), "samples")
	}

	results, err := comparison.Run(cfg, bacteriaSide, phageSide, membership)
	if err != nil {
		return err
	}

	var correctedP []float64
	written := 0
	for pair, byCohort := range results {
		for label, c := range byCohort {
			prefix := fmt.Sprintf("%s_%s", pair, label)

			switch {
			case c.Err != nil:
				log.Println(prefix, "failed:", c.Err)
				continue
			case c.Result.Outcome == correlation.OutcomeEmpty:
				log.Println(prefix, "had no significant pairs")
			}

			if c.Result.Cross.Empty() {
				continue
			}

			matrixName := fmt.Sprintf("%s-%s_%s_Correlation_Matrix", pair.BacteriaRank, pair.PhageRank, label)
			pName := fmt.Sprintf("%s-%s_%s_Correlation_P-Values", pair.BacteriaRank, pair.PhageRank, label)

			if err := writeGrid(outputDir, matrixName, c.Result.Cross); err != nil {
				return err
			}
			if err := writeGrid(outputDir, pName, c.Result.PValues); err != nil {
				return err
			}
			written++

			for _, row := range c.Result.PValues.Cells {
				for _, p := range row {
					if !math.IsNaN(p) {
						correctedP = append(correctedP, p)
					}
				}
			}

			if !drawHeatmaps {
				continue
			}
			if c.Result.Significant.NonMissing() < 2 {
				log.Println(prefix, "is too small to plot; skipping its heatmap")
				continue
			}
			if err := renderHeatmap(filepath.Join(outputDir, matrixName+".png"), c.Result.Significant); err != nil {
				return err
			}
		}
	}

	log.Println("Wrote", written, "comparisons to", outputDir)

	if len(correctedP) > 0 {
		fmt.Println("Corrected p-value distribution across all reported pairs:")
		hist := histogram.Hist(20, correctedP)
		if err := histogram.Fprint(os.Stdout, hist, histogram.Linear(40)); err != nil {
			return err
		}
	}

	return nil
}

// loadSide reads one side's taxonomy and raw counts, fills the taxonomy, and
// aggregates the counts to every requested rank.
func loadSide(taxonomyPath, countsPath string, ranks []string) (map[string][]abundance.Count, error) {
	table, err := loadTaxonomy(taxonomyPath)
	if err != nil {
		return nil, err
	}
	filled := taxonomy.FillTable(table)

	raw, err := loadUnitCounts(countsPath)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]abundance.Count, len(ranks))
	for _, rank := range ranks {
		labels, err := filled.LabelsAt(rank)
		if err != nil {
			if errors.Is(err, taxonomy.ErrSchemaMismatch) {
				return nil, fmt.Errorf("rank %q is not a column of %s: %w", rank, taxonomyPath, err)
			}
			return nil, err
		}

		counts, err := abundance.AggregateToRank(raw, labels)
		if err != nil {
			return nil, err
		}
		out[rank] = counts
	}

	return out, nil
}
