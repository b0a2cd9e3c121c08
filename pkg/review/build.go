package review

import (
	"fmt"

	"github.com/yurifrl/conciliar/pkg/categorize"
	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/parser"
	"github.com/yurifrl/conciliar/pkg/reconcile"
	"github.com/yurifrl/conciliar/pkg/textnorm"
)

const (
	ReasonCardBillPayment = "card bill payment skipped to avoid double counting"
	ReasonNoDescription   = "description is required"
	WarningBankBill       = "bill payment imported as transfer to avoid double counting"
)

// Input is everything the initial classification needs besides the rows.
type Input struct {
	Categories []models.Category    // active categories, in display order
	Existing   []models.Transaction // loaded ledger window for duplicate detection
	Period     *models.FiscalPeriod // nil skips the out-of-period check
	CardMode   bool
}

// Build classifies parsed rows in file order. Card mode types rows by the
// credit-event pattern and rejects bill payments; bank mode turns bill
// payments into transfers. A matched category's default type wins over the
// inferred one.
func Build(rows []parser.CandidateRow, in Input) *Preview {
	active := models.ActiveCategories(in.Categories)
	detector := reconcile.NewDetector(in.Existing)

	out := make([]PreviewRow, 0, len(rows))
	for _, c := range rows {
		bankBill := !in.CardMode && parser.IsBankBillPayment(c.Description)

		typ := c.Type
		switch {
		case in.CardMode && parser.IsCardCreditEvent(c.Description):
			typ = models.Income
		case in.CardMode:
			typ = models.Expense
		case bankBill:
			typ = models.Transfer
		}

		var reason, warning string
		switch {
		case in.CardMode && parser.IsCardBillPayment(c.Description):
			reason = ReasonCardBillPayment
		case textnorm.Search(c.Description) == "":
			reason = ReasonNoDescription
		case in.Period != nil && c.OccurrenceDate != nil && !in.Period.Contains(*c.OccurrenceDate):
			reason = fmt.Sprintf("date %s is outside the period %s to %s",
				c.OccurrenceDate, in.Period.Start, in.Period.End)
		case bankBill:
			warning = WarningBankBill
		}

		key := reconcile.Key(c.Description, c.Amount, typ, c.OccurrenceDate)
		dup := detector.Check(key) == reconcile.Duplicate

		categoryID := categorize.Suggest(active, c.Description, typ, c.CategoryHint)
		if cat, ok := categorize.Find(active, categoryID); ok && !bankBill && cat.DefaultType != "" {
			typ = cat.DefaultType
		}

		row := PreviewRow{
			CandidateRow: c,
			DedupeKey:    key,
			IsDuplicate:  dup,
			CategoryID:   categoryID,
			ErrorReason:  reason,
			Warning:      warning,
			Status:       InitialStatus(reason, dup, categoryID),
		}
		row.Type = typ
		out = append(out, row)
	}
	return NewPreview(out)
}
