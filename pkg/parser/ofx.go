package parser

import (
	"fmt"
	"strings"

	"github.com/yurifrl/conciliar/pkg/models"
)

const ofxTransactionTag = "STMTTRN"

// ParseOFX reads every <STMTTRN> block of an OFX/SGML statement. Blocks with
// an unreadable amount are dropped.
func (p *Parser) ParseOFX(text string) []CandidateRow {
	blocks := splitBlocks(text, ofxTransactionTag)
	p.logger.Debug("parsing ofx file", "blocks", len(blocks))

	rows := make([]CandidateRow, 0, len(blocks))
	for i, block := range blocks {
		fields := scanTags(block)

		trnType := strings.ToUpper(fields["TRNTYPE"])
		amountRaw := fields["TRNAMT"]
		amount, ok := ParseAmount(amountRaw)
		if !ok {
			p.logger.Debug("skipping ofx block", "block", i+1, "amount", amountRaw)
			continue
		}

		switch trnType {
		case "CREDIT", "DEP":
			amount = amount.Abs()
		case "DEBIT", "PAYMENT":
			amount = amount.Abs().Neg()
		}

		description := fields["MEMO"]
		if description == "" {
			description = fields["NAME"]
		}
		if description == "" {
			description = fmt.Sprintf("OFX transaction %d", i+1)
		}

		dateRaw := fields["DTPOSTED"]
		rows = append(rows, CandidateRow{
			RowIndex:       i + 1,
			Description:    description,
			Amount:         amount.Abs(),
			Type:           models.TypeFromSign(amount),
			OccurrenceDate: ParseDate(dateRaw),
			RawPayload: map[string]any{
				"trnType":   trnType,
				"fitid":     fields["FITID"],
				"dateRaw":   dateRaw,
				"amountRaw": amountRaw,
				"memo":      fields["MEMO"],
				"name":      fields["NAME"],
			},
		})
	}
	return rows
}

// splitBlocks returns the text following each case-insensitive <tag>,
// discarding whatever precedes the first one.
func splitBlocks(text, tag string) []string {
	open := "<" + tag + ">"
	var blocks []string
	pos := indexFold(text, open, 0)
	for pos >= 0 {
		start := pos + len(open)
		next := indexFold(text, open, start)
		if next < 0 {
			blocks = append(blocks, text[start:])
			break
		}
		blocks = append(blocks, text[start:next])
		pos = next
	}
	return blocks
}

// indexFold finds the ASCII needle in s at or after from, ignoring case.
func indexFold(s, needle string, from int) int {
	for i := from; i+len(needle) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

// scanTags tokenizes a block into its scalar <TAG>value pairs. Tag names are
// upper-cased; a value runs until the next tag and may span lines, which are
// joined by single spaces. Aggregate tags without a value and closing tags
// are skipped. The first occurrence of a tag wins.
func scanTags(block string) map[string]string {
	fields := make(map[string]string)
	rest := block
	for {
		lt := strings.IndexByte(rest, '<')
		if lt < 0 {
			return fields
		}
		gt := strings.IndexByte(rest[lt:], '>')
		if gt < 0 {
			return fields
		}
		name := strings.ToUpper(strings.TrimSpace(rest[lt+1 : lt+gt]))
		rest = rest[lt+gt+1:]

		end := strings.IndexByte(rest, '<')
		if end < 0 {
			end = len(rest)
		}
		value := strings.Join(strings.Fields(rest[:end]), " ")
		rest = rest[end:]

		if name == "" || strings.HasPrefix(name, "/") || value == "" {
			continue
		}
		if _, seen := fields[name]; !seen {
			fields[name] = value
		}
	}
}
