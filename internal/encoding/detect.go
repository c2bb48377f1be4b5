// Package encoding turns tabular source files of unknown encoding into
// UTF-8 streams. Planning and record spreadsheets come out of Excel as
// latin-1/windows-1252 at least as often as UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// NewUTF8Reader wraps r in a reader that yields UTF-8.
//
// Detection order: BOM, valid-UTF-8 passthrough, chardet heuristics,
// windows-1252 fallback. The fallback is deliberate: an undetected
// Brazilian export is almost always windows-1252.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peeking input: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	case bytes.HasPrefix(head, bomUTF16LE):
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), nil
	case bytes.HasPrefix(head, bomUTF16BE):
		return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()), nil
	}

	if utf8.Valid(head) {
		return br, nil
	}

	if result, detectErr := chardet.NewTextDetector().DetectBest(head); detectErr == nil {
		switch result.Charset {
		case "UTF-8":
			return br, nil
		case "ISO-8859-1":
			return transform.NewReader(br, charmap.ISO8859_1.NewDecoder()), nil
		case "windows-1252":
			return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
}

// DetectDelimiter peeks at the header line and picks ';' when it outnumbers
// ',' there. Brazilian spreadsheet exports use ';'. The reader is not
// advanced.
func DetectDelimiter(br *bufio.Reader) rune {
	buf, _ := br.Peek(4096)

	semicolons, commas := 0, 0

	for _, b := range buf {
		if b == '\n' {
			break
		}

		switch b {
		case ';':
			semicolons++
		case ',':
			commas++
		}
	}

	if semicolons >= commas && semicolons > 0 {
		return ';'
	}

	return ','
}
