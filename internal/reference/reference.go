// Package reference loads the risk registry, the technical appraisal format
// list, and the other-risk format list.
package reference

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/format-analysis/internal/fetcher"
	"github.com/sells-group/format-analysis/internal/model"
)

// Incoming column names of the NARA risk registry.
const (
	RegistryFormatName   = "Format Name"
	RegistryExtensions   = "File Extension(s)"
	RegistryPronomURL    = "PRONOM URL"
	RegistryRiskLevel    = "NARA Risk Level"
	RegistryProposedPlan = "NARA Proposed Preservation Plan"
)

// Column names of the technical appraisal and other-risk tables.
const (
	FITSFormat   = "FITS_FORMAT"
	Notes        = "NOTES"
	RiskCriteria = "RISK_CRITERIA"
)

// Set bundles the three reference tables.
type Set struct {
	Registry      []model.RiskEntry
	TechAppraisal model.TechAppraisalFormats
	OtherRisk     model.OtherRiskFormats
}

// Paths locates the reference sources.
type Paths struct {
	Registry      string
	TechAppraisal string
	OtherRisk     string
}

// Load reads all three reference tables.
func Load(ctx context.Context, p Paths) (*Set, error) {
	registry, err := LoadRegistry(ctx, p.Registry)
	if err != nil {
		return nil, err
	}
	ta, err := LoadTechAppraisal(ctx, p.TechAppraisal)
	if err != nil {
		return nil, err
	}
	other, err := LoadOtherRisk(ctx, p.OtherRisk)
	if err != nil {
		return nil, err
	}
	return &Set{Registry: registry, TechAppraisal: ta, OtherRisk: other}, nil
}

// LoadRegistry reads the NARA risk registry and renames its columns into
// model.RiskEntry fields.
func LoadRegistry(ctx context.Context, path string) ([]model.RiskEntry, error) {
	tbl, err := readTable(ctx, path, RegistryFormatName, RegistryRiskLevel)
	if err != nil {
		return nil, err
	}

	entries := make([]model.RiskEntry, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		e := model.RiskEntry{
			FormatName:     strings.TrimSpace(tbl.Value(row, RegistryFormatName)),
			FileExtensions: strings.TrimSpace(tbl.Value(row, RegistryExtensions)),
			PronomURL:      strings.TrimSpace(tbl.Value(row, RegistryPronomURL)),
			RiskLevel:      strings.TrimSpace(tbl.Value(row, RegistryRiskLevel)),
			ProposedPlan:   strings.TrimSpace(tbl.Value(row, RegistryProposedPlan)),
		}
		if e.FormatName == "" {
			continue
		}
		entries = append(entries, e)
	}

	zap.L().Info("reference: risk registry loaded", zap.String("path", path), zap.Int("entries", len(entries)))
	return entries, nil
}

// LoadTechAppraisal reads the technical appraisal format list.
func LoadTechAppraisal(ctx context.Context, path string) (model.TechAppraisalFormats, error) {
	tbl, err := readTable(ctx, path, FITSFormat)
	if err != nil {
		return nil, err
	}

	formats := make(model.TechAppraisalFormats, len(tbl.Rows))
	for _, row := range tbl.Rows {
		if name := tbl.Value(row, FITSFormat); name != "" {
			formats[name] = struct{}{}
		}
	}
	zap.L().Info("reference: technical appraisal list loaded", zap.String("path", path), zap.Int("formats", len(formats)))
	return formats, nil
}

// LoadOtherRisk reads the other-risk format list. When a format is listed
// more than once the first criterion wins.
func LoadOtherRisk(ctx context.Context, path string) (model.OtherRiskFormats, error) {
	tbl, err := readTable(ctx, path, FITSFormat, RiskCriteria)
	if err != nil {
		return nil, err
	}

	formats := make(model.OtherRiskFormats, len(tbl.Rows))
	for _, row := range tbl.Rows {
		name := tbl.Value(row, FITSFormat)
		if name == "" {
			continue
		}
		if existing, ok := formats[name]; ok {
			zap.L().Warn("reference: duplicate other risk format",
				zap.String("format", name),
				zap.String("kept", existing),
				zap.String("ignored", tbl.Value(row, RiskCriteria)),
			)
			continue
		}
		criterion := strings.TrimSpace(tbl.Value(row, RiskCriteria))
		if criterion == "" {
			zap.L().Warn("reference: other risk format has no criterion", zap.String("format", name))
			continue
		}
		formats[name] = criterion
	}
	zap.L().Info("reference: other risk list loaded", zap.String("path", path), zap.Int("formats", len(formats)))
	return formats, nil
}

func readTable(ctx context.Context, path string, required ...string) (*fetcher.Table, error) {
	tbl, err := fetcher.ReadTable(ctx, path)
	if err != nil {
		return nil, eris.Wrapf(err, "reference: read %s", path)
	}
	if tbl.Lossy {
		zap.L().Warn("reference: file contains characters that could not be decoded and were replaced",
			zap.String("path", path),
		)
	}
	var missing []string
	for _, col := range required {
		if tbl.Index(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("reference: %s is missing column(s) %s", path, strings.Join(missing, ", "))
	}
	return tbl, nil
}
