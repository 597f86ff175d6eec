package trainer

import (
	"time"

	"tetris/agent"
)

// GenerationRecord summarises one evaluated generation.
type GenerationRecord struct {
	Generation int
	Best       float64
	Mean       float64
	Worst      float64
	BestGenome agent.Genome
	Evaluated  int
	Failures   int
	Playouts   int
	Pieces     int
	Lines      int
	Duration   time.Duration
}

// Reporter receives a record after every generation. Report is called from
// the goroutine running Train.
type Reporter interface {
	Report(GenerationRecord)
}

type ReporterFunc func(GenerationRecord)

func (f ReporterFunc) Report(r GenerationRecord) {
	f(r)
}

type reporters []Reporter

// MultiReporter fans each record out to every reporter in order.
func MultiReporter(rs ...Reporter) Reporter {
	return reporters(rs)
}

func (rs reporters) Report(r GenerationRecord) {
	for _, rep := range rs {
		rep.Report(r)
	}
}

type nopReporter struct{}

func (nopReporter) Report(GenerationRecord) {}

func newRecord(pop *Population, m EvaluationMetrics) GenerationRecord {
	rec := GenerationRecord{
		Generation: pop.Generation,
		Mean:       pop.Mean(),
		Worst:      pop.Worst(),
		Playouts:   m.Playouts,
		Pieces:     m.Pieces,
		Lines:      m.Lines,
		Duration:   m.Duration,
	}
	if best, ok := pop.Best(); ok {
		rec.Best = best.Fitness
		rec.BestGenome = best.Genome.Clone()
	}
	for _, ind := range pop.Individuals {
		if ind.Evaluated {
			rec.Evaluated++
		}
		if ind.Failed {
			rec.Failures++
		}
	}
	return rec
}
