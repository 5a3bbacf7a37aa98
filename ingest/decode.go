// Package ingest turns uploaded file bytes into the text the parser reads.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

var utf8BOM = []byte("\xef\xbb\xbf")

// Decode returns the text content of an uploaded file. Spreadsheets (.xlsx)
// are flattened to comma-joined lines from the first sheet; everything else
// is treated as text in UTF-8 (BOM optional), UTF-16 with BOM, or GB18030.
// A maxBytes <= 0 disables the size check.
func Decode(filename string, data []byte, maxBytes int) (string, error) {
	if maxBytes > 0 && len(data) > maxBytes {
		return "", fmt.Errorf("ingest: %d bytes: %w", len(data), ErrTooLarge)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return decodeSpreadsheet(data)
	default:
		return decodeText(data)
	}
}

func decodeText(data []byte) (string, error) {
	if bytes.HasPrefix(data, []byte{0xff, 0xfe}) || bytes.HasPrefix(data, []byte{0xfe, 0xff}) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return "", fmt.Errorf("ingest: decode utf-16: %w", err)
		}
		return string(out), nil
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}

	// Excel on Chinese Windows saves CSV as GBK.
	out, _, err := transform.Bytes(simplifiedchinese.GB18030.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("ingest: decode gb18030: %w", err)
	}
	return string(out), nil
}

func decodeSpreadsheet(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("ingest: open spreadsheet: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("ingest: read sheet %q: %w", sheets[0], err)
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(row, ","))
	}
	return b.String(), nil
}
