package fits

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const fitsNS = "http://hul.harvard.edu/ois/xml/ns/fits/fits_output"

// fitsXML builds a FITS document for path with the given identity elements.
func fitsXML(path, identities string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<fits xmlns="%s" version="1.5.0">
  <identification>%s</identification>
  <fileinfo>
    <size toolname="Jhove" toolversion="1.20.1">12345</size>
    <md5checksum toolname="FITS" toolversion="1.5.0">d41d8cd98f00b204e9800998ecf8427e</md5checksum>
    <fslastmodified toolname="OIS File Information" toolversion="1.0">1581615654000</fslastmodified>
    <filepath toolname="OIS File Information" toolversion="1.0">%s</filepath>
  </fileinfo>
  <filestatus/>
</fits>`, fitsNS, identities, path)
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}
