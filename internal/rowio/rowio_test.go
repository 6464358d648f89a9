package rowio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/format-analysis/internal/model"
)

func sampleRows() []model.Row {
	return []model.Row{
		{
			FilePath:         "/acc/disk1/report.pdf",
			FormatName:       "Portable Document Format",
			FormatVersion:    "1.4",
			PUID:             "https://www.nationalarchives.gov.uk/pronom/fmt/18",
			IdentifyingTools: "Droid version 6.4",
			SizeKB:           12.5,
			NARARiskLevel:    model.LowRisk,
			NARAMatchType:    "PRONOM and Version",
		},
		{
			FilePath:    "/acc/disk1/café.txt",
			FormatName:  "Plain text",
			MultipleIDs: true,
			SizeKB:      0.1,
		},
	}
}

func TestLookupEncoding(t *testing.T) {
	enc, err := LookupEncoding("")
	require.NoError(t, err)
	assert.Equal(t, "utf-8", enc.Name())

	enc, err = LookupEncoding("cp1252")
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", enc.Name())

	_, err = LookupEncoding("not-an-encoding")
	assert.Error(t, err)
}

func TestWriteRows_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acc_full_risk_data.csv")
	enc, err := LookupEncoding("utf-8")
	require.NoError(t, err)

	suppressed, err := WriteRows(path, model.RiskColumns, sampleRows(), enc)
	require.NoError(t, err)
	assert.Empty(t, suppressed)

	got, err := ReadRows(context.Background(), path, enc)
	require.NoError(t, err)
	assert.Equal(t, sampleRows(), got)
}

func TestWriteRows_SuppressesInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acc_fits.csv")
	rows := append(sampleRows(), model.Row{FilePath: "/acc/bad\xffname.doc", FormatName: "x"})

	suppressed, err := WriteRows(path, model.FITSColumns, rows, Encoding{})
	require.NoError(t, err)
	assert.Equal(t, []string{"/acc/bad\xffname.doc"}, suppressed)

	got, err := ReadRows(context.Background(), path, Encoding{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestWriteRows_LegacyEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acc_fits.csv")
	enc, err := LookupEncoding("windows-1252")
	require.NoError(t, err)

	rows := append(sampleRows(), model.Row{FilePath: "/acc/日本.txt", FormatName: "Plain text"})
	suppressed, err := WriteRows(path, model.FITSColumns, rows, enc)
	require.NoError(t, err)
	assert.Equal(t, []string{"/acc/日本.txt"}, suppressed)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "caf\xe9.txt")

	got, err := ReadRows(context.Background(), path, enc)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "/acc/disk1/café.txt", got[1].FilePath)
}

func TestReadRows_HandEdited(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acc_full_risk_data.csv")
	content := "\ufeffNotes,NARA_Risk_Level,File_Path,Size_KB\n" +
		"checked,High Risk,/acc/a.mov,\n" +
		",Low Risk,/acc/b.txt,3.25\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := ReadRows(context.Background(), path, Encoding{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.Row{FilePath: "/acc/a.mov", NARARiskLevel: model.HighRisk}, got[0])
	assert.Equal(t, 3.25, got[1].SizeKB)
}

func TestReadRows_MissingPathColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("Format_Name\nPDF\n"), 0o644))

	_, err := ReadRows(context.Background(), path, Encoding{})
	assert.Error(t, err)
}

func TestReadRows_BadNumber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("File_Path,Size_KB\n/acc/a,lots\n"), 0o644))

	_, err := ReadRows(context.Background(), path, Encoding{})
	assert.ErrorContains(t, err, "line 2")
}

func TestAppendSideLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "acc_encode_errors.txt")

	require.NoError(t, AppendSideLog(logPath, nil))
	_, err := os.Stat(logPath)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, AppendSideLog(logPath, []string{"/acc/z.txt", "/acc/a.txt"}))
	require.NoError(t, AppendSideLog(logPath, []string{"/acc/a.txt", "/acc/m.txt"}))

	raw, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "/acc/a.txt\n/acc/m.txt\n/acc/z.txt\n", string(raw))
}

func TestWriteRows_SuppressesWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acc_fits.csv")
	enc, err := LookupEncoding("windows-1252")
	require.NoError(t, err)

	rows := []model.Row{
		{FilePath: "/acc/a.doc", FormatName: "Microsoft Word"},
		{FilePath: "/acc/a.doc", FormatName: "Ω format"},
		{FilePath: "/acc/b.txt", FormatName: "Plain text"},
	}
	suppressed, err := WriteRows(path, model.FITSColumns, rows, enc)
	require.NoError(t, err)
	assert.Equal(t, []string{"/acc/a.doc"}, suppressed)

	got, err := ReadRows(context.Background(), path, enc)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "/acc/b.txt", got[0].FilePath)
}
