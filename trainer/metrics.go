package trainer

import (
	"fmt"
	"sync/atomic"
	"time"

	"tetris/engine"
)

// Metric turns a playout result into a fitness contribution.
type Metric string

const (
	MetricLines    Metric = "lines"
	MetricPieces   Metric = "pieces"
	MetricCombined Metric = "combined"
)

// pieceWeight keeps piece survival as a tie-break below one cleared line.
const pieceWeight = 0.01

func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricLines, MetricPieces, MetricCombined:
		return m, nil
	case "":
		return MetricCombined, nil
	default:
		return "", fmt.Errorf("unknown fitness metric %q", s)
	}
}

func (m Metric) Score(r engine.Result) float64 {
	switch m {
	case MetricLines:
		return float64(r.Lines)
	case MetricPieces:
		return float64(r.Pieces)
	default:
		return float64(r.Lines) + pieceWeight*float64(r.Pieces)
	}
}

// EvaluationMetrics summarises the work done evaluating one generation.
type EvaluationMetrics struct {
	Workers   int
	StartTime time.Time
	Duration  time.Duration
	Evaluated int
	Failures  int
	Playouts  int
	Pieces    int
	Lines     int
}

type Collector interface {
	Start(workers int)
	AddPlayout(r engine.Result)
	AddEvaluated()
	AddFailure()
	Complete() EvaluationMetrics
}

type collector struct {
	workers   int
	startTime time.Time
	evaluated atomic.Int64
	failures  atomic.Int64
	playouts  atomic.Int64
	pieces    atomic.Int64
	lines     atomic.Int64
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(workers int) {
	m.workers = workers
	m.startTime = time.Now()
	m.evaluated.Store(0)
	m.failures.Store(0)
	m.playouts.Store(0)
	m.pieces.Store(0)
	m.lines.Store(0)
}

func (m *collector) AddPlayout(r engine.Result) {
	m.playouts.Add(1)
	m.pieces.Add(int64(r.Pieces))
	m.lines.Add(int64(r.Lines))
}

func (m *collector) AddEvaluated() {
	m.evaluated.Add(1)
}

func (m *collector) AddFailure() {
	m.failures.Add(1)
}

func (m *collector) Complete() EvaluationMetrics {
	return EvaluationMetrics{
		Workers:   m.workers,
		StartTime: m.startTime,
		Duration:  time.Since(m.startTime),
		Evaluated: int(m.evaluated.Load()),
		Failures:  int(m.failures.Load()),
		Playouts:  int(m.playouts.Load()),
		Pieces:    int(m.pieces.Load()),
		Lines:     int(m.lines.Load()),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(workers int)           {}
func (m *dummyCollector) AddPlayout(r engine.Result)  {}
func (m *dummyCollector) AddEvaluated()               {}
func (m *dummyCollector) AddFailure()                 {}
func (m *dummyCollector) Complete() EvaluationMetrics { return EvaluationMetrics{} }
