package fetcher

import (
	"context"
	"encoding/xml"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// StreamXML decodes every element found at path, given as local names from
// the document root (e.g. "fits", "fileinfo"), and sends it on the returned
// channel. Same-named elements elsewhere in the document are skipped. The
// whole document is read, so truncation is reported on the error channel.
func StreamXML[T any](ctx context.Context, r io.Reader, path ...string) (<-chan T, <-chan error) {
	outCh := make(chan T, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		if len(path) == 0 {
			errCh <- eris.New("xml: empty element path")
			return
		}

		decoder := newXMLDecoder(r)
		depth := 0 // open elements along path

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "xml: context cancelled")
				return
			}

			tok, err := decoder.Token()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "xml: read token")
				return
			}

			switch t := tok.(type) {
			case xml.EndElement:
				depth--
			case xml.StartElement:
				if t.Name.Local != path[depth] {
					if err := decoder.Skip(); err != nil {
						errCh <- eris.Wrap(err, "xml: skip element")
						return
					}
					continue
				}
				if depth < len(path)-1 {
					depth++
					continue
				}

				var item T
				if err := decoder.DecodeElement(&item, &t); err != nil {
					errCh <- eris.Wrap(err, "xml: decode element")
					return
				}
				select {
				case outCh <- item:
				case <-ctx.Done():
					errCh <- eris.Wrap(ctx.Err(), "xml: context cancelled")
					return
				}
			}
		}
	}()

	return outCh, errCh
}

// DecodeXML decodes a whole document whose root element is T.
func DecodeXML[T any](r io.Reader) (T, error) {
	var doc T
	if err := newXMLDecoder(r).Decode(&doc); err != nil {
		return doc, eris.Wrap(err, "xml: decode document")
	}
	return doc, nil
}

func newXMLDecoder(r io.Reader) *xml.Decoder {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "xml: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}
	return decoder
}
