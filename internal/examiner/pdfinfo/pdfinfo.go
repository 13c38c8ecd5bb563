// Package pdfinfo inspects uploaded documents before OCR.
package pdfinfo

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/ledongthuc/pdf"
	"golang.org/x/crypto/blake2b"
)

// Info describes a document's bytes
type Info struct {
	// Pages is 0 when the data is not a readable PDF.
	Pages  int
	Digest string
	Size   int
}

// Inspect counts PDF pages and fingerprints the data. It never fails: a
// document the PDF reader rejects is still sent to OCR, so only the page
// count is lost.
func Inspect(data []byte) Info {
	pages, _ := PageCount(data)
	return Info{
		Pages:  pages,
		Digest: Digest(data),
		Size:   len(data),
	}
}

// Digest returns the hex blake2b-256 sum of data.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// PageCount reads the page tree of a PDF.
func PageCount(data []byte) (n int, err error) {
	// the reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}
