package pipeline

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Artifacts names every file the pipeline reads or writes for one
// accession. All of them live in the accession's parent directory.
type Artifacts struct {
	Accession    string // absolute accession directory
	Name         string // accession folder name
	CacheDir     string // <acc>_FITS
	Lock         string // <acc>_FITS.lock
	FITSTable    string // <acc>_fits.csv
	RiskTable    string // <acc>_full_risk_data.csv
	EncodeErrors string // <acc>_encode_errors.txt
	Workbook     string // <acc>_format-analysis.xlsx
}

// ArtifactsFor resolves the artifact paths for accessionDir, which must be
// an existing directory.
func ArtifactsFor(accessionDir string) (Artifacts, error) {
	abs, err := filepath.Abs(accessionDir)
	if err != nil {
		return Artifacts{}, eris.Wrapf(err, "pipeline: resolve %s", accessionDir)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Artifacts{}, eris.Wrapf(err, "pipeline: stat %s", abs)
	}
	if !info.IsDir() {
		return Artifacts{}, eris.Errorf("pipeline: %s is not a directory", abs)
	}

	parent, name := filepath.Split(abs)
	prefix := func(suffix string) string { return filepath.Join(parent, name+suffix) }
	return Artifacts{
		Accession:    abs,
		Name:         name,
		CacheDir:     prefix("_FITS"),
		Lock:         prefix("_FITS.lock"),
		FITSTable:    prefix("_fits.csv"),
		RiskTable:    prefix("_full_risk_data.csv"),
		EncodeErrors: prefix("_encode_errors.txt"),
		Workbook:     prefix("_format-analysis.xlsx"),
	}, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, eris.Wrapf(err, "pipeline: stat %s", path)
}
