package metrics

import (
	"sync"

	"tetris/trainer"
)

// Recorder is a trainer.Reporter that keeps every generation record in memory.
type Recorder struct {
	mu      sync.Mutex
	records []trainer.GenerationRecord
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Report(rec trainer.GenerationRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.BestGenome = rec.BestGenome.Clone()
	r.records = append(r.records, rec)
}

// Records returns a copy of everything reported so far.
func (r *Recorder) Records() []trainer.GenerationRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]trainer.GenerationRecord, len(r.records))
	copy(out, r.records)
	return out
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
