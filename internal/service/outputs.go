package service

import (
	"sql-orchestrator/internal/dataset"
	"sql-orchestrator/internal/db"
)

// slot addresses one parameter of one command.
type slot struct {
	command   string
	parameter string
}

type outputBinding struct {
	source   slot
	target   slot
	value    any
	resolved bool
}

// outputStore holds the forwarding edges of one request. Bindings live in an
// arena and are addressed by index, so lookups by source and by target never
// alias each other.
type outputStore struct {
	bindings []outputBinding
	bySource map[slot]int
	byTarget map[slot][]int
}

func newOutputStore() *outputStore {
	return &outputStore{
		bySource: make(map[slot]int),
		byTarget: make(map[slot][]int),
	}
}

// register adds the edge source -> target. Registering the same source again
// replaces its target.
func (s *outputStore) register(source, target slot) {
	if i, ok := s.bySource[source]; ok {
		s.unlinkTarget(s.bindings[i].target, i)
		s.bindings[i].target = target
		s.byTarget[target] = append(s.byTarget[target], i)
		return
	}
	s.bindings = append(s.bindings, outputBinding{source: source, target: target})
	i := len(s.bindings) - 1
	s.bySource[source] = i
	s.byTarget[target] = append(s.byTarget[target], i)
}

func (s *outputStore) unlinkTarget(target slot, idx int) {
	list := s.byTarget[target]
	for j, v := range list {
		if v == idx {
			s.byTarget[target] = append(list[:j], list[j+1:]...)
			return
		}
	}
}

// resolve records the captured value of a source slot. It reports whether
// the slot is a forwarding source.
func (s *outputStore) resolve(source slot, value any) bool {
	i, ok := s.bySource[source]
	if !ok {
		return false
	}
	s.bindings[i].value = value
	s.bindings[i].resolved = true
	return true
}

// valueFor returns the forwarded value for a target slot. When several
// sources feed the same slot, the last declared resolved one wins.
func (s *outputStore) valueFor(target slot) (any, bool) {
	idx := s.byTarget[target]
	for j := len(idx) - 1; j >= 0; j-- {
		b := s.bindings[idx[j]]
		if b.resolved {
			return b.value, true
		}
	}
	return nil, false
}

func (s *outputStore) len() int {
	return len(s.bindings)
}

// auditTable renders every binding, in declaration order.
func (s *outputStore) auditTable(name string) *dataset.Table {
	t := dataset.NewTable(name)
	t.AddColumn("SourceTableName", dataset.TypeString)
	t.AddColumn("SourceParameterName", dataset.TypeString)
	t.AddColumn("TargetTableName", dataset.TypeString)
	t.AddColumn("TargetParameterName", dataset.TypeString)
	t.AddColumn("Value", dataset.TypeString)

	for _, b := range s.bindings {
		_ = t.AddRow(
			b.source.command,
			b.source.parameter,
			b.target.command,
			b.target.parameter,
			db.Stringify(b.value),
		)
	}
	return t
}
