package store

import (
	"time"

	"github.com/HershyOrg/dtrader/scope"
	"github.com/HershyOrg/dtrader/value"
	"github.com/google/uuid"
)

// Run is the persisted outcome of evaluating one script.
type Run struct {
	ID         uuid.UUID      `json:"id"`
	Script     string         `json:"script"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Err        string         `json:"error,omitempty"`
	Symbols    []SymbolRecord `json:"symbols,omitempty"`
	Charts     []ChartRecord  `json:"charts,omitempty"`
}

type SymbolRecord struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

type ChartRecord struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Args []string  `json:"args"`
}

func NewRun(script string) *Run {
	return &Run{
		ID:        uuid.New(),
		Script:    script,
		StartedAt: time.Now().UTC(),
	}
}

// Finish stamps the run and captures the root scope's symbols and charts.
func (r *Run) Finish(s *scope.Scope, err error) {
	r.FinishedAt = time.Now().UTC()
	if err != nil {
		r.Err = err.Error()
	}
	r.Symbols, r.Charts = Snapshot(s)
}

// Snapshot converts the symbols and charts held directly by s.
func Snapshot(s *scope.Scope) ([]SymbolRecord, []ChartRecord) {
	names := s.SymbolNames()
	symbols := make([]SymbolRecord, 0, len(names))
	for _, name := range names {
		sym, _ := s.Symbol(name)
		rec := SymbolRecord{Name: name, Value: value.Inspect(sym.Value)}
		if sym.Value != nil {
			rec.Type = sym.Value.Type().String()
		}
		symbols = append(symbols, rec)
	}
	charts := make([]ChartRecord, 0, len(s.Charts()))
	for _, c := range s.Charts() {
		args := make([]string, 0, len(c.Args))
		for _, a := range c.Args {
			args = append(args, value.Inspect(a))
		}
		charts = append(charts, ChartRecord{ID: c.ID, Name: c.Name, Args: args})
	}
	return symbols, charts
}
