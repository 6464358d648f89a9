// Package risk reconciles file identifications against the NARA risk
// registry using a ranked cascade of matching strategies.
package risk

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/format-analysis/internal/model"
)

// Match type labels, in cascade order.
const (
	MatchPronomVersion = "PRONOM and Version"
	MatchPronomName    = "PRONOM and Name"
	MatchPronom        = "PRONOM"
	MatchNameVersion   = "Format Name and Version"
	MatchName          = "Format Name"
	MatchExtVersion    = "File Extension and Version"
	MatchExt           = "File Extension"
)

// index holds lookups over a subset of the registry.
type index struct {
	byPronom map[string][]model.RiskEntry
	byName   map[string][]model.RiskEntry // lowercased format name
	byExt    map[string][]model.RiskEntry // lowercased extension
}

func newIndex(entries []model.RiskEntry) *index {
	idx := &index{
		byPronom: make(map[string][]model.RiskEntry),
		byName:   make(map[string][]model.RiskEntry),
		byExt:    make(map[string][]model.RiskEntry),
	}
	for _, e := range entries {
		if e.PronomURL != "" {
			idx.byPronom[e.PronomURL] = append(idx.byPronom[e.PronomURL], e)
		}
		name := strings.ToLower(e.FormatName)
		idx.byName[name] = append(idx.byName[name], e)

		seen := make(map[string]bool)
		for _, ext := range e.Extensions() {
			if seen[ext] {
				continue
			}
			seen[ext] = true
			idx.byExt[ext] = append(idx.byExt[ext], e)
		}
	}
	return idx
}

// strategy is one step of the cascade: a lookup that returns the registry
// entries matching a row.
type strategy struct {
	matchType string
	lookup    func(r model.Row) []model.RiskEntry
}

// Matcher assigns NARA risk information to identification rows.
type Matcher struct {
	withPUID    []strategy
	withoutPUID []strategy
}

// NewMatcher indexes the registry and builds both cascades. Rows with a PUID
// try the PRONOM strategies first, then name and extension strategies
// against registry entries that have no PRONOM URL. Rows without a PUID try
// the name and extension strategies against the whole registry.
func NewMatcher(registry []model.RiskEntry) *Matcher {
	var noPronom []model.RiskEntry
	for _, e := range registry {
		if e.PronomURL == "" {
			noPronom = append(noPronom, e)
		}
	}
	all := newIndex(registry)
	unlinked := newIndex(noPronom)

	return &Matcher{
		withPUID:    append(pronomStrategies(all), fallbackStrategies(unlinked)...),
		withoutPUID: fallbackStrategies(all),
	}
}

func pronomStrategies(idx *index) []strategy {
	return []strategy{
		{MatchPronomVersion, func(r model.Row) []model.RiskEntry {
			if r.FormatVersion == "" {
				return nil
			}
			return filter(idx.byPronom[r.PUID], func(e model.RiskEntry) bool {
				return e.VersionToken() == r.FormatVersion
			})
		}},
		{MatchPronomName, func(r model.Row) []model.RiskEntry {
			return filter(idx.byPronom[r.PUID], func(e model.RiskEntry) bool {
				return e.FormatName == r.FormatName
			})
		}},
		{MatchPronom, func(r model.Row) []model.RiskEntry {
			return idx.byPronom[r.PUID]
		}},
	}
}

func fallbackStrategies(idx *index) []strategy {
	return []strategy{
		{MatchNameVersion, func(r model.Row) []model.RiskEntry {
			if r.FormatVersion == "" {
				return nil
			}
			return idx.byName[strings.ToLower(r.FormatName+" "+r.FormatVersion)]
		}},
		{MatchName, func(r model.Row) []model.RiskEntry {
			return idx.byName[strings.ToLower(r.FormatName)]
		}},
		{MatchExtVersion, func(r model.Row) []model.RiskEntry {
			if r.FormatVersion == "" {
				return nil
			}
			return filter(extLookup(idx, r), func(e model.RiskEntry) bool {
				return e.VersionToken() == r.FormatVersion
			})
		}},
		{MatchExt, func(r model.Row) []model.RiskEntry {
			return extLookup(idx, r)
		}},
	}
}

func extLookup(idx *index, r model.Row) []model.RiskEntry {
	ext := strings.ToLower(r.Extension())
	if ext == "" {
		return nil
	}
	return idx.byExt[ext]
}

func filter(entries []model.RiskEntry, keep func(model.RiskEntry) bool) []model.RiskEntry {
	var out []model.RiskEntry
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// MatchRow returns one row per registry entry matched by the highest-ranked
// strategy that matches at all, or a single No Match row.
func (m *Matcher) MatchRow(r model.Row) []model.Row {
	cascade := m.withoutPUID
	if r.PUID != "" {
		cascade = m.withPUID
	}

	for _, s := range cascade {
		entries := s.lookup(r)
		if len(entries) == 0 {
			continue
		}
		out := make([]model.Row, 0, len(entries))
		for _, e := range entries {
			matched := r
			matched.NARAFormatName = e.FormatName
			matched.NARARiskLevel = e.RiskLevel
			matched.NARAProposedPlan = e.ProposedPlan
			matched.NARAMatchType = s.matchType
			out = append(out, matched)
		}
		return out
	}

	unmatched := r
	unmatched.NARAFormatName = ""
	unmatched.NARARiskLevel = model.NoMatchRisk
	unmatched.NARAProposedPlan = ""
	unmatched.NARAMatchType = model.NoMatchType
	return []model.Row{unmatched}
}

// Match enriches every row. Each input row is replaced in place by its
// matches so output order follows input order, then spurious cross-version
// matches are removed.
func (m *Matcher) Match(rows []model.Row) []model.Row {
	out := make([]model.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, m.MatchRow(r)...)
	}
	out = DropVersionConflicts(out)

	counts := make(map[string]int)
	for _, r := range out {
		counts[r.NARAMatchType]++
	}
	fields := []zap.Field{zap.Int("input_rows", len(rows)), zap.Int("output_rows", len(out))}
	for k, v := range counts {
		fields = append(fields, zap.Int(k, v))
	}
	zap.L().Info("risk: matching complete", fields...)
	return out
}

// DropVersionConflicts removes, for files that matched an "unspecified
// version" registry entry, the rows without a format version that matched a
// specific version of the same format family.
func DropVersionConflicts(rows []model.Row) []model.Row {
	families := make(map[string]map[string]bool)
	for _, r := range rows {
		if !model.IsUnspecifiedVersion(r.NARAFormatName) {
			continue
		}
		if families[r.FilePath] == nil {
			families[r.FilePath] = make(map[string]bool)
		}
		families[r.FilePath][model.FormatFamily(r.NARAFormatName)] = true
	}
	if len(families) == 0 {
		return rows
	}

	out := rows[:0:0]
	dropped := 0
	for _, r := range rows {
		if conflicts(r, families[r.FilePath]) {
			dropped++
			continue
		}
		out = append(out, r)
	}
	if dropped > 0 {
		zap.L().Debug("risk: dropped version conflicts", zap.Int("rows", dropped))
	}
	return out
}

func conflicts(r model.Row, families map[string]bool) bool {
	if families == nil || r.FormatVersion != "" || r.NARAFormatName == "" {
		return false
	}
	if model.IsUnspecifiedVersion(r.NARAFormatName) {
		return false
	}
	return families[model.FormatFamily(r.NARAFormatName)]
}
