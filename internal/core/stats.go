package core

import "fmt"

// StatsOptions controls which fields to return.
type StatsOptions struct {
	Fields []string // nil/empty = all
}

// StatsResult contains aggregate figures for an indexed crate.
type StatsResult struct {
	ModulesTotal    int
	FnsTotal        int
	UsesTotal       int
	RefsTotal       int
	UnresolvedTotal int
}

var validStatsFields = map[string]bool{
	"modules_total":    true,
	"fns_total":        true,
	"uses_total":       true,
	"refs_total":       true,
	"unresolved_total": true,
}

func validateStatsFields(fields []string) error {
	for _, f := range fields {
		if !validStatsFields[f] {
			return fmt.Errorf("unknown stats field: %s", f)
		}
	}
	return nil
}

func isFieldActive(name string, fields []string) bool {
	if len(fields) == 0 {
		return true
	}
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

// Stats returns aggregate statistics for the indexed crate.
func (ix *Index) Stats(opts StatsOptions) (*StatsResult, error) {
	if err := validateStatsFields(opts.Fields); err != nil {
		return nil, err
	}

	result := &StatsResult{}

	if isFieldActive("modules_total", opts.Fields) {
		if err := ix.db.QueryRow(`SELECT COUNT(*) FROM defs WHERE kind='module'`).Scan(&result.ModulesTotal); err != nil {
			return nil, err
		}
	}
	if isFieldActive("fns_total", opts.Fields) {
		if err := ix.db.QueryRow(`SELECT COUNT(*) FROM defs WHERE kind='fn'`).Scan(&result.FnsTotal); err != nil {
			return nil, err
		}
	}
	if isFieldActive("uses_total", opts.Fields) {
		if err := ix.db.QueryRow(`SELECT COUNT(*) FROM refs WHERE kind='use'`).Scan(&result.UsesTotal); err != nil {
			return nil, err
		}
	}
	if isFieldActive("refs_total", opts.Fields) {
		if err := ix.db.QueryRow(`SELECT COUNT(*) FROM refs`).Scan(&result.RefsTotal); err != nil {
			return nil, err
		}
	}
	if isFieldActive("unresolved_total", opts.Fields) {
		n := 0
		for _, d := range ix.Diags {
			if d.Kind == DiagUnresolved {
				n++
			}
		}
		result.UnresolvedTotal = n
	}
	return result, nil
}
