package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DefaultMaxFileSize bounds how much CSV text a parser will read
const DefaultMaxFileSize int64 = 10 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVParser handles parsing of CSV files with delimiter and encoding detection
type CSVParser struct {
	delimiter   rune
	lazyQuotes  bool
	trimSpace   bool
	maxFileSize int64
	decoded     bool
	headerMap   map[string]int
	headers     []string
	currentRow  int
	totalRows   int
	reader      *csv.Reader
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter sets the field delimiter. Zero means detect from the header line.
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// WithLazyQuotes enables lazy quote handling
func WithLazyQuotes(lazy bool) ParserOption {
	return func(p *CSVParser) {
		p.lazyQuotes = lazy
	}
}

// WithTrimSpace enables trimming of leading/trailing spaces from fields
func WithTrimSpace(trim bool) ParserOption {
	return func(p *CSVParser) {
		p.trimSpace = trim
	}
}

// WithMaxFileSize sets the maximum accepted input size in bytes
func WithMaxFileSize(size int64) ParserOption {
	return func(p *CSVParser) {
		p.maxFileSize = size
	}
}

// NewCSVParser creates a new CSV parser from a reader.
//
// The whole input is read up front: a UTF-8 BOM is stripped, input that is
// not valid UTF-8 is decoded as Windows-1252 (spreadsheet exports), and the
// delimiter is detected from the header line unless one was given.
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	parser := &CSVParser{
		lazyQuotes:  true,
		trimSpace:   true,
		maxFileSize: DefaultMaxFileSize,
		headerMap:   make(map[string]int),
	}

	for _, opt := range opts {
		opt(parser)
	}

	content, err := io.ReadAll(io.LimitReader(r, parser.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(content)) > parser.maxFileSize {
		return nil, ErrFileTooLarge
	}

	content = bytes.TrimPrefix(content, utf8BOM)
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, ErrEmptyFile
	}

	if !utf8.Valid(content) {
		decodedContent, err := charmap.Windows1252.NewDecoder().Bytes(content)
		if err != nil {
			return nil, ErrInvalidEncoding
		}
		content = decodedContent
		parser.decoded = true
	}

	if parser.delimiter == 0 {
		parser.delimiter = DetectDelimiter(content)
	}
	if !IsSupportedDelimiter(parser.delimiter) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDelimiter, parser.delimiter)
	}

	parser.reader = csv.NewReader(bytes.NewReader(content))
	parser.reader.Comma = parser.delimiter
	parser.reader.LazyQuotes = parser.lazyQuotes
	parser.reader.TrimLeadingSpace = parser.trimSpace
	parser.reader.FieldsPerRecord = -1 // Allow variable number of fields

	return parser, nil
}

// IsSupportedDelimiter reports whether d can separate marketplace CSV fields
func IsSupportedDelimiter(d rune) bool {
	return d == ',' || d == ';'
}

// DetectDelimiter chooses between ',' and ';' by counting them in the first
// non-empty line outside quotes. Comma wins ties.
func DetectDelimiter(content []byte) rune {
	var commas, semicolons int
	inQuotes := false
	seenContent := false

	for _, b := range content {
		switch b {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				commas++
			}
		case ';':
			if !inQuotes {
				semicolons++
			}
		case '\n':
			if !inQuotes && seenContent {
				return pickDelimiter(commas, semicolons)
			}
			continue
		case '\r', ' ', '\t':
			continue
		}
		seenContent = true
	}
	return pickDelimiter(commas, semicolons)
}

func pickDelimiter(commas, semicolons int) rune {
	if semicolons > commas {
		return ';'
	}
	return ','
}

// ParseDelimiter converts a user supplied delimiter override.
// Empty means auto-detect and returns 0.
func ParseDelimiter(value string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedDelimiter, value)
}

// ParseHeader reads and parses the header row.
// Header names are trimmed and lower-cased so lookups are case-insensitive.
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, len(record))
	for i, h := range record {
		header := normalizeHeader(h)
		p.headers[i] = header
		if _, exists := p.headerMap[header]; !exists && header != "" {
			p.headerMap[header] = i
		}
	}

	if len(p.headerMap) == 0 {
		return ErrMissingHeader
	}

	line, _ := p.reader.FieldPos(0)
	p.currentRow = line

	return nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(trimSpaces(h))
}

// Headers returns the parsed header names
func (p *CSVParser) Headers() []string {
	return p.headers
}

// HasHeader checks if a header exists
func (p *CSVParser) HasHeader(name string) bool {
	_, ok := p.headerMap[normalizeHeader(name)]
	return ok
}

// Delimiter returns the delimiter in use
func (p *CSVParser) Delimiter() rune {
	return p.delimiter
}

// Decoded reports whether the input was converted from Windows-1252
func (p *CSVParser) Decoded() bool {
	return p.decoded
}

// Row represents a parsed CSV row with its data and line number
type Row struct {
	LineNumber int
	Data       map[string]string
	RawFields  []string
}

// Get returns the value for a column by header name
func (r *Row) Get(header string) string {
	return r.Data[normalizeHeader(header)]
}

// GetOrDefault returns the value for a column, or default if not present
func (r *Row) GetOrDefault(header, defaultVal string) string {
	if val, ok := r.Data[normalizeHeader(header)]; ok && val != "" {
		return val
	}
	return defaultVal
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next row from the CSV.
// LineNumber is the physical line the record starts on (the header is line 1
// when the file starts with it). Malformed records are returned as RowError.
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		var parseErr *csv.ParseError
		line := p.currentRow + 1
		if errors.As(err, &parseErr) {
			line = parseErr.StartLine
		}
		p.currentRow = line
		return nil, NewRowError(line, "", ErrCodeImportMalformedRow, fmt.Sprintf("malformed CSV row: %v", unwrapParseError(err)))
	}

	line, _ := p.reader.FieldPos(0)
	p.currentRow = line
	p.totalRows++

	row := &Row{
		LineNumber: line,
		Data:       make(map[string]string, len(p.headers)),
		RawFields:  record,
	}

	// Map fields to headers
	for i, header := range p.headers {
		if header == "" {
			continue
		}
		if _, seen := row.Data[header]; seen {
			continue
		}
		if i < len(record) {
			value := record[i]
			if p.trimSpace {
				value = trimSpaces(value)
			}
			row.Data[header] = value
		} else {
			row.Data[header] = ""
		}
	}

	return row, nil
}

func unwrapParseError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) && parseErr.Err != nil {
		return parseErr.Err
	}
	return err
}

// ReadAllRows reads all remaining rows from the CSV.
// Completely empty rows are skipped; malformed rows are returned as errors
// and reading continues with the next record.
func (p *CSVParser) ReadAllRows() ([]*Row, []RowError) {
	var rows []*Row
	var rowErrors []RowError

	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			var rowErr RowError
			if errors.As(err, &rowErr) {
				p.totalRows++
				rowErrors = append(rowErrors, rowErr)
				continue
			}
			rowErrors = append(rowErrors, NewRowError(p.currentRow, "", ErrCodeImportCSVParsing, err.Error()))
			break
		}

		// Skip completely empty rows
		if row.IsEmpty() {
			p.totalRows--
			continue
		}

		rows = append(rows, row)
	}

	return rows, rowErrors
}

// CurrentRow returns the current line number (1-indexed)
func (p *CSVParser) CurrentRow() int {
	return p.currentRow
}

// TotalRows returns the number of non-empty data rows read, malformed ones included
func (p *CSVParser) TotalRows() int {
	return p.totalRows
}

// ParseFromString creates a parser from CSV text
func ParseFromString(text string, opts ...ParserOption) (*CSVParser, error) {
	return NewCSVParser(strings.NewReader(text), opts...)
}

// trimSpaces trims whitespace from a string
func trimSpaces(s string) string {
	return strings.TrimFunc(s, isWhitespace)
}

// isWhitespace checks if a rune is whitespace
func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', '\u00a0':
		return true
	}
	return false
}

// ValidateHeaders checks if required headers are present and returns the missing ones
func (p *CSVParser) ValidateHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}
