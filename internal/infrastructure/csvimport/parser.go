// Package csvimport reads catalog import files. Files must be UTF-8; a
// leading byte order mark is accepted.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/retail/backoffice/internal/domain/shared"
)

// Parse errors. All are validation errors so the HTTP boundary answers 400.
var (
	ErrEmptyFile       = shared.NewValidationError("IMPORT_EMPTY_FILE", "Import file is empty")
	ErrInvalidEncoding = shared.NewValidationError("IMPORT_INVALID_ENCODING", "Import file must be UTF-8 encoded")
	ErrMissingHeader   = shared.NewValidationError("IMPORT_MISSING_HEADER", "Import file has no header row")
)

// encodingCheckSize bounds how much of the file is checked for valid UTF-8 up front
const encodingCheckSize = 4096

// Parser reads a header row and then data rows keyed by header name
type Parser struct {
	delimiter  rune
	headerMap  map[string]int
	headers    []string
	currentRow int
	reader     *csv.Reader
}

// ParserOption is a functional option for Parser configuration
type ParserOption func(*Parser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) {
		p.delimiter = d
	}
}

// NewParser creates a parser from a reader
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	p := &Parser{delimiter: ',', headerMap: make(map[string]int)}
	for _, opt := range opts {
		opt(p)
	}

	br := bufio.NewReaderSize(r, encodingCheckSize)
	head, err := br.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	content, err := br.Peek(encodingCheckSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return nil, ErrEmptyFile
	}
	if !validPrefix(content) {
		return nil, ErrInvalidEncoding
	}

	p.reader = csv.NewReader(br)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1
	return p, nil
}

// validPrefix checks a peeked buffer for valid UTF-8. A full buffer may end
// inside a multi-byte rune, so up to UTFMax-1 trailing bytes are forgiven.
func validPrefix(b []byte) bool {
	if utf8.Valid(b) {
		return true
	}
	if len(b) < encodingCheckSize {
		return false
	}
	for i := 1; i < utf8.UTFMax; i++ {
		if utf8.Valid(b[:len(b)-i]) {
			return true
		}
	}
	return false
}

// ParseHeader reads the header row. Header names are matched case-insensitively.
func (p *Parser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return shared.NewValidationError("IMPORT_MALFORMED_HEADER", fmt.Sprintf("Header row is malformed: %v", err))
	}

	p.headers = make([]string, len(record))
	for i, h := range record {
		name := strings.ToLower(strings.TrimSpace(h))
		p.headers[i] = name
		p.headerMap[name] = i
	}
	p.currentRow = 1
	return nil
}

// Headers returns the parsed header names
func (p *Parser) Headers() []string {
	return p.headers
}

// MissingHeaders lists the required headers the file lacks
func (p *Parser) MissingHeaders(required ...string) []string {
	var missing []string
	for _, h := range required {
		if _, ok := p.headerMap[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is one data row with the 1-based file line it starts on
type Row struct {
	Line int
	Data map[string]string
}

// Get returns the trimmed value of a column, empty when absent
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// IsEmpty reports whether every field is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next row; io.EOF at the end of the file
func (p *Parser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	p.currentRow++
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
	}

	line, _ := p.reader.FieldPos(0)
	row := &Row{Line: line, Data: make(map[string]string, len(p.headers))}
	for i, header := range p.headers {
		if i < len(record) {
			row.Data[header] = strings.TrimSpace(record[i])
		} else {
			row.Data[header] = ""
		}
	}
	return row, nil
}
