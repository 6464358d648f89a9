package fits

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrToolLoad is returned when FITS starts but cannot locate its main
// program, which usually means the install directory was moved.
var ErrToolLoad = errors.New("fits: could not find or load main class; check that the FITS path points at a complete FITS installation")

// loadFailure is the JVM message printed when the FITS jar is not found.
const loadFailure = "Could not find or load main class"

// Characterizer produces FITS documents for an accession.
type Characterizer interface {
	// CharacterizeTree characterizes every file under accessionDir into cacheDir.
	CharacterizeTree(ctx context.Context, accessionDir, cacheDir string) error
	// CharacterizeFile characterizes a single file into outPath.
	CharacterizeFile(ctx context.Context, path, outPath string) error
}

// Tool runs the FITS command line program.
type Tool struct {
	binPath string
}

// NewTool creates a Tool for the FITS launcher at binPath.
func NewTool(binPath string) *Tool {
	return &Tool{binPath: binPath}
}

// CharacterizeTree runs FITS recursively: <fits> -r -i <acc> -o <cache>.
func (t *Tool) CharacterizeTree(ctx context.Context, accessionDir, cacheDir string) error {
	return t.run(ctx, "-r", "-i", accessionDir, "-o", cacheDir)
}

// CharacterizeFile runs FITS for one file: <fits> -i <file> -o <out>.
func (t *Tool) CharacterizeFile(ctx context.Context, path, outPath string) error {
	return t.run(ctx, "-i", path, "-o", outPath)
}

func (t *Tool) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, t.binPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if strings.Contains(stderr.String(), loadFailure) || strings.Contains(stdout.String(), loadFailure) {
		return ErrToolLoad
	}
	if err != nil {
		return eris.Wrapf(err, "fits: %s %s failed: %s", t.binPath, strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}
	return nil
}
