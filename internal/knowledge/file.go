// Package knowledge handles the files users hand to an agent as background
// material, typically a resume.
package knowledge

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrEmpty is returned by Decode when the file carries no data.
var ErrEmpty = errors.New("knowledge file is empty")

// File is a base64 encoded document with its display name. It lives only for
// the duration of one request.
type File struct {
	Data string
	Name string
}

// Present reports whether both the content and the name were supplied.
func (f File) Present() bool {
	return f.Data != "" && f.Name != ""
}

// Decode returns the raw bytes of f. A data URL prefix
// ("data:application/pdf;base64,") is accepted and stripped.
func (f File) Decode() ([]byte, error) {
	data := strings.TrimSpace(f.Data)
	if i := strings.Index(data, ";base64,"); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+len(";base64,"):]
	}
	if data == "" {
		return nil, ErrEmpty
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return nil, fmt.Errorf("decoding %q: %w", f.Name, err)
		}
	}
	return raw, nil
}

// Digest summarizes a decoded file for logs and the interview history.
type Digest struct {
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	Pages       int    `json:"pages,omitempty"`
	TextLength  int    `json:"text_length,omitempty"`
}

// Inspect sniffs the content type of raw and, for PDFs, counts pages and the
// length of the extractable text. Unreadable PDFs still yield a digest with
// the size and content type; the error is returned alongside.
func Inspect(name string, raw []byte) (d Digest, err error) {
	d = Digest{
		ContentType: http.DetectContentType(raw),
		Size:        len(raw),
	}
	if !isPDF(name, d.ContentType) {
		return d, nil
	}
	d.ContentType = "application/pdf"

	// The pdf reader panics on some truncated inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing pdf %q: %v", name, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return d, fmt.Errorf("opening pdf %q: %w", name, err)
	}
	d.Pages = r.NumPage()

	text, err := r.GetPlainText()
	if err != nil {
		return d, fmt.Errorf("extracting text from %q: %w", name, err)
	}
	n, err := io.Copy(io.Discard, text)
	if err != nil {
		return d, fmt.Errorf("reading text from %q: %w", name, err)
	}
	d.TextLength = int(n)
	return d, nil
}

func isPDF(name, contentType string) bool {
	return contentType == "application/pdf" || strings.EqualFold(filepath.Ext(name), ".pdf")
}
