// Package fits drives the FITS characterization tool and flattens its
// per-file XML output into identification rows.
package fits

import (
	"encoding/xml"
	"strings"
)

// document mirrors the parts of a FITS output file the pipeline reads. Tags
// carry no namespace so they match the fits_output namespace FITS emits.
type document struct {
	XMLName    xml.Name   `xml:"fits"`
	Identities []identity `xml:"identification>identity"`
	FileInfo   fileInfo   `xml:"fileinfo"`
	FileStatus fileStatus `xml:"filestatus"`
}

type identity struct {
	Format      string       `xml:"format,attr"`
	Versions    []string     `xml:"version"`
	ExternalIDs []externalID `xml:"externalIdentifier"`
	Tools       []tool       `xml:"tool"`
}

type externalID struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type tool struct {
	Name    string `xml:"toolname,attr"`
	Version string `xml:"toolversion,attr"`
}

type fileInfo struct {
	FilePath            []string `xml:"filepath"`
	LastModified        []string `xml:"fslastmodified"`
	Size                []string `xml:"size"`
	MD5                 []string `xml:"md5checksum"`
	CreatingApplication []string `xml:"creatingApplicationName"`
}

type fileStatus struct {
	Valid      []string `xml:"valid"`
	WellFormed []string `xml:"well-formed"`
	Message    []string `xml:"message"`
}

// joinLeaves joins repeated leaf values with "; ". Blank values are dropped
// so an absent leaf yields "".
func joinLeaves(values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, "; ")
}

func (id identity) version() string {
	return joinLeaves(id.Versions)
}

// puid returns the PRONOM identifiers rewritten as full registry URLs.
func (id identity) puid() string {
	var urls []string
	for _, ext := range id.ExternalIDs {
		if ext.Type != "puid" {
			continue
		}
		if v := strings.TrimSpace(ext.Value); v != "" {
			urls = append(urls, pronomURL(v))
		}
	}
	return strings.Join(urls, "; ")
}

func (id identity) tools() string {
	out := make([]string, 0, len(id.Tools))
	for _, t := range id.Tools {
		out = append(out, t.Name+" version "+t.Version)
	}
	return strings.Join(out, "; ")
}
