package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliar/pkg/models"
)

var (
	// ErrUnknownFormat is returned for files that are neither CSV nor OFX.
	ErrUnknownFormat = errors.New("unknown file type")
	// ErrNoValidRows is returned when a non-empty file yields no rows.
	ErrNoValidRows = errors.New("file is empty or has no valid rows")
)

// CandidateRow is one normalized statement line. It is never mutated after
// the parser emits it.
type CandidateRow struct {
	RowIndex       int
	Description    string
	Amount         decimal.Decimal // absolute value
	Type           models.TransactionType
	OccurrenceDate *models.Date
	CategoryHint   string
	RawPayload     map[string]any
}

type Parser struct {
	logger  *log.Logger
	columns Columns
}

// Option customizes a Parser.
type Option func(*Parser)

// WithColumns replaces the header keywords used to locate CSV columns.
func WithColumns(c Columns) Option {
	return func(p *Parser) { p.columns = c }
}

func New(logger *log.Logger, opts ...Option) *Parser {
	p := &Parser{
		logger:  logger,
		columns: DefaultColumns(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DetectFormat classifies a file by its extension.
func DetectFormat(filename string) (models.SourceFormat, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return models.FormatCSV, true
	case ".ofx":
		return models.FormatOFX, true
	}
	return "", false
}

// ProcessBytes detects the format from filename and parses data accordingly.
func (p *Parser) ProcessBytes(data []byte, filename string) (models.SourceFormat, []CandidateRow, error) {
	format, ok := DetectFormat(filename)
	if !ok {
		p.logger.Debug("unknown file type", "filename", filename)
		return "", nil, fmt.Errorf("%s: %w", filename, ErrUnknownFormat)
	}
	p.logger.Debug("detected file type", "type", format, "filename", filename)

	rows, err := p.Parse(format, string(data))
	if err != nil {
		return format, nil, err
	}
	if len(rows) == 0 {
		return format, nil, ErrNoValidRows
	}
	return format, rows, nil
}

// Parse dispatches raw text to the parser for format.
func (p *Parser) Parse(format models.SourceFormat, text string) ([]CandidateRow, error) {
	switch format {
	case models.FormatCSV:
		return p.ParseDelimited(text), nil
	case models.FormatOFX:
		return p.ParseOFX(text), nil
	default:
		return nil, fmt.Errorf("format %q: %w", format, ErrUnknownFormat)
	}
}
