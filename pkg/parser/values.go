package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliar/pkg/models"
)

var (
	brDateRe      = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
	isoDateRe     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	compactDateRe = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})`)
)

// ParseAmount reads a statement amount. A comma marks Brazilian notation:
// dots are thousands separators and the comma is the decimal point.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case 'R', '$', ' ', '\t', '\r', '\n', '\u00a0':
			return -1
		}
		return r
	}, raw)
	if s == "" {
		return decimal.Decimal{}, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseDate accepts DD/MM/YYYY, YYYY-MM-DD with any suffix, or a value
// starting with YYYYMMDD. The first matching form wins; impossible
// calendar dates yield nil.
func ParseDate(raw string) *models.Date {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	var y, m, d string
	if g := brDateRe.FindStringSubmatch(s); g != nil {
		d, m, y = g[1], g[2], g[3]
	} else if g := isoDateRe.FindStringSubmatch(s); g != nil {
		y, m, d = g[1], g[2], g[3]
	} else if g := compactDateRe.FindStringSubmatch(s); g != nil {
		y, m, d = g[1], g[2], g[3]
	} else {
		return nil
	}
	t, err := time.Parse(models.DateLayout, y+"-"+m+"-"+d)
	if err != nil {
		return nil
	}
	return models.DateOf(t).Ptr()
}
