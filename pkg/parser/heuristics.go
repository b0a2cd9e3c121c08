package parser

import "regexp"

var (
	cardStatementRe   = regexp.MustCompile(`(?i)(fatura|cartao|cartão|card)`)
	cardBillPaymentRe = regexp.MustCompile(`(?i)(pagamento.*fatura|fatura.*paga|pagto.*fatura|pgto?\s*fatura|payment.*invoice)`)
	cardCreditEventRe = regexp.MustCompile(`(?i)(estorno|reembolso|credito|crédito|cashback|ajuste a credito|ajuste a crédito)`)
	bankBillPaymentRe = regexp.MustCompile(`(?i)(pagamento\s+(de\s+)?fatura|pag\s+fatura|pgto\s+cart[aã]o|fatura\s+cart[aã]o|int\s+fatura)`)
)

// IsCardStatement guesses from the file name whether it is a credit card bill.
func IsCardStatement(filename string) bool {
	return cardStatementRe.MatchString(filename)
}

// IsCardBillPayment matches the bill settlement line printed on a card
// statement. Importing it would double count the purchases it pays for.
func IsCardBillPayment(description string) bool {
	return cardBillPaymentRe.MatchString(description)
}

// IsCardCreditEvent matches refunds and credits on a card statement.
func IsCardCreditEvent(description string) bool {
	return cardCreditEventRe.MatchString(description)
}

// IsBankBillPayment matches a card bill paid from a checking account.
func IsBankBillPayment(description string) bool {
	return bankBillPaymentRe.MatchString(description)
}
