package parser

import (
	"strings"

	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/textnorm"
)

// Columns holds the header keywords that identify each CSV column. A header
// cell matches when its normalized text contains any keyword.
type Columns struct {
	Date        []string `mapstructure:"date" yaml:"date"`
	Description []string `mapstructure:"description" yaml:"description"`
	Amount      []string `mapstructure:"amount" yaml:"amount"`
	Category    []string `mapstructure:"category" yaml:"category"`
}

func DefaultColumns() Columns {
	return Columns{
		Date:        []string{"data"},
		Description: []string{"descricao", "historico", "memo"},
		Amount:      []string{"valor", "amount", "montante"},
		Category:    []string{"categoria", "category", "cat"},
	}
}

// ParseDelimited parses ";" or "," separated text with an optional header.
// Lines without a description or with an unreadable amount are dropped.
func (p *Parser) ParseDelimited(text string) []CandidateRow {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	delim := detectDelimiter(lines[0])
	header := splitLine(lines[0], delim)
	for i, h := range header {
		header[i] = textnorm.Description(h)
	}
	idxDate := findColumn(header, p.columns.Date)
	idxDesc := findColumn(header, p.columns.Description)
	idxAmount := findColumn(header, p.columns.Amount)
	idxCategory := findColumn(header, p.columns.Category)

	start := 1
	if idxDesc < 0 || idxAmount < 0 {
		// Headerless: date, description, amount by position.
		start = 0
	}
	p.logger.Debug("parsing delimited file", "lines", len(lines), "delimiter", string(delim), "has_header", start == 1)

	rows := make([]CandidateRow, 0, len(lines)-start)
	for i := start; i < len(lines); i++ {
		cols := splitLine(lines[i], delim)

		description := column(cols, idxDesc, 1, 0)
		amountRaw := column(cols, idxAmount, 2, 1)
		dateRaw := column(cols, idxDate, 0, 0)
		var hint string
		if idxCategory >= 0 {
			hint = strings.TrimSpace(at(cols, idxCategory))
		}

		amount, ok := ParseAmount(amountRaw)
		if strings.TrimSpace(description) == "" || !ok {
			p.logger.Debug("skipping line", "line", i+1, "description", description, "amount", amountRaw)
			continue
		}

		rows = append(rows, CandidateRow{
			RowIndex:       i + 1,
			Description:    strings.TrimSpace(description),
			Amount:         amount.Abs(),
			Type:           models.TypeFromSign(amount),
			OccurrenceDate: ParseDate(dateRaw),
			CategoryHint:   hint,
			RawPayload:     map[string]any{"columns": cols},
		})
	}
	return rows
}

func detectDelimiter(line string) rune {
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}

// splitLine tokenizes one line. Quotes group a field; "" inside quotes is a
// literal quote. Fields are trimmed.
func splitLine(line string, delim rune) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case r == delim && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(fields, strings.TrimSpace(current.String()))
}

func findColumn(header []string, keywords []string) int {
	for i, h := range header {
		for _, k := range keywords {
			if strings.Contains(h, k) {
				return i
			}
		}
	}
	return -1
}

// column reads cols[idx] when the header located it, else the first present
// of the positional fallbacks.
func column(cols []string, idx int, fallbacks ...int) string {
	if idx >= 0 {
		return at(cols, idx)
	}
	for _, f := range fallbacks {
		if f < len(cols) {
			return cols[f]
		}
	}
	return ""
}

func at(cols []string, i int) string {
	if i < len(cols) {
		return cols[i]
	}
	return ""
}
