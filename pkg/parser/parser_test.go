package parser

import (
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/conciliar/pkg/models"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     models.SourceFormat
		ok       bool
	}{
		{"extrato.csv", models.FormatCSV, true},
		{"Extrato Conta Corrente.CSV", models.FormatCSV, true},
		{"fatura-03.ofx", models.FormatOFX, true},
		{"extrato.txt", "", false},
		{"extrato.xls", "", false},
		{"ofx", "", false},
	}
	for _, tt := range tests {
		got, ok := DetectFormat(tt.filename)
		if got != tt.want || ok != tt.ok {
			t.Errorf("DetectFormat(%q) = %q, %v; want %q, %v", tt.filename, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"1.234,56", "1234.56", true},
		{"R$ 45,00", "45", true},
		{"-12.50", "-12.5", true},
		{"-2327,00", "-2327", true},
		{"R$ -1.000.000,01", "-1000000.01", true},
		{"", "", false},
		{"R$", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.raw)
		require.Equal(t, tt.ok, ok, tt.raw)
		if ok {
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%q -> %s", tt.raw, got)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"05/03/2024", "2024-03-05"},
		{"2024-03-05T00:00:00", "2024-03-05"},
		{"2024-03-05", "2024-03-05"},
		{"20240305", "2024-03-05"},
		{"20240305120000[-3:BRT]", "2024-03-05"},
		{" 05/03/2024 ", "2024-03-05"},
		{"5/3/2024", ""},
		{"31/02/2024", ""},
		{"ontem", ""},
		{"", ""},
	}
	for _, tt := range tests {
		got := ParseDate(tt.raw)
		if tt.want == "" {
			assert.Nil(t, got, tt.raw)
			continue
		}
		require.NotNil(t, got, tt.raw)
		assert.Equal(t, tt.want, got.String(), tt.raw)
	}
}

func TestSplitLine(t *testing.T) {
	assert.Equal(t, []string{"a", "b;c", `say "hi"`}, splitLine(`a;"b;c";"say ""hi"""`, ';'))
	assert.Equal(t, []string{"Padaria Sao Jose", "45.00", "01/03/2024"}, splitLine(`"Padaria Sao Jose",45.00,01/03/2024`, ','))
	assert.Equal(t, []string{"", ""}, splitLine(",", ','))
}

func TestParseDelimitedWithHeader(t *testing.T) {
	text := "Data;Descrição;Valor;Categoria\n" +
		"05/03/2024;Uber Trip;-32,50;Transporte\n" +
		"\n" +
		"06/03/2024;Salário;5.000,00;\n" +
		"07/03/2024;;-10,00;\n" +
		"08/03/2024;Sem valor;abc;\n"

	rows := New(log.Default()).ParseDelimited(text)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].RowIndex)
	assert.Equal(t, "Uber Trip", rows[0].Description)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("32.50")))
	assert.Equal(t, models.Expense, rows[0].Type)
	assert.Equal(t, "2024-03-05", rows[0].OccurrenceDate.String())
	assert.Equal(t, "Transporte", rows[0].CategoryHint)

	assert.Equal(t, "Salário", rows[1].Description)
	assert.Equal(t, models.Income, rows[1].Type)
	assert.True(t, rows[1].Amount.Equal(decimal.RequireFromString("5000")))
	assert.Empty(t, rows[1].CategoryHint)
}

func TestParseDelimitedHeaderless(t *testing.T) {
	// Itaú checking export: date;payee;value with no header.
	text := `17/03/2025;PIX TRANSF ID_A15/03;-2327,00
17/03/2025;MOBILE PAG TIT 426XXXXXX;-287,00
19/03/2025;PIX TRANSF ID_C19/03;1900,00`

	rows := New(log.Default()).ParseDelimited(text)
	require.Len(t, rows, 3)
	assert.Equal(t, 1, rows[0].RowIndex)
	assert.Equal(t, "PIX TRANSF ID_A15/03", rows[0].Description)
	assert.Equal(t, "2025-03-17", rows[0].OccurrenceDate.String())
	assert.Equal(t, models.Expense, rows[1].Type)
	assert.Equal(t, models.Income, rows[2].Type)
	assert.True(t, rows[2].Amount.Equal(decimal.NewFromInt(1900)))
}

func TestParseDelimitedCommaQuoted(t *testing.T) {
	text := "descricao,valor,data\n" +
		`"Padaria Sao Jose",45.00,01/03/2024` + "\n" +
		`"Padaria Sao Jose",45.00,01/03/2024` + "\n" +
		`"Loja ""A"", centro","-1.234,56",2024-03-02` + "\n"

	rows := New(log.Default()).ParseDelimited(text)
	require.Len(t, rows, 3)
	assert.Equal(t, rows[0].Description, rows[1].Description)
	assert.Equal(t, `Loja "A", centro`, rows[2].Description)
	assert.True(t, rows[2].Amount.Equal(decimal.RequireFromString("1234.56")))
	assert.Equal(t, models.Expense, rows[2].Type)
}

func TestParseDelimitedCustomColumns(t *testing.T) {
	cols := DefaultColumns()
	cols.Description = []string{"lancamento"}
	p := New(log.Default(), WithColumns(cols))

	rows := p.ParseDelimited("data,lançamento,valor\n2025-06-27,IFD*55668457 GABRIEL A,113.98\n")
	require.Len(t, rows, 1)
	assert.Equal(t, "IFD*55668457 GABRIEL A", rows[0].Description)
}

const sampleOFX = `OFXHEADER:100
DATA:OFXSGML

<OFX>
<BANKMSGSRSV1><STMTTRNRS><STMTRS>
<BANKTRANLIST>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240305120000[-3:BRT]
<TRNAMT>32.50
<FITID>0001
<MEMO>UBER TRIP 123
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240306
<TRNAMT>-5000,00
<FITID>0002
<NAME>SALARIO
</STMTTRN>
<stmttrn>
<trntype>OTHER
<trnamt>-15.00
<dtposted>20240307
</stmttrn>
<STMTTRN>
<TRNTYPE>DEBIT
<TRNAMT>n/a
</STMTTRN>
<STMTTRN><TRNTYPE>PAYMENT<MEMO>CONTA DE
LUZ ENEL<TRNAMT>120.10<DTPOSTED>20240308</STMTTRN>
</BANKTRANLIST>
</STMTRS></STMTTRNRS></BANKMSGSRSV1>
</OFX>`

func TestParseOFX(t *testing.T) {
	rows := New(log.Default()).ParseOFX(sampleOFX)
	require.Len(t, rows, 4)

	assert.Equal(t, "UBER TRIP 123", rows[0].Description)
	assert.Equal(t, models.Expense, rows[0].Type)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("32.50")))
	assert.Equal(t, "2024-03-05", rows[0].OccurrenceDate.String())
	assert.Equal(t, "0001", rows[0].RawPayload["fitid"])

	// Explicit credit marker wins over the sign.
	assert.Equal(t, "SALARIO", rows[1].Description)
	assert.Equal(t, models.Income, rows[1].Type)
	assert.True(t, rows[1].Amount.Equal(decimal.NewFromInt(5000)))

	// No marker: trust the sign, generate a description.
	assert.Equal(t, "OFX transaction 3", rows[2].Description)
	assert.Equal(t, models.Expense, rows[2].Type)
	assert.Equal(t, 3, rows[2].RowIndex)

	// Reordered single-line tags with a value continued on the next line.
	assert.Equal(t, "CONTA DE LUZ ENEL", rows[3].Description)
	assert.Equal(t, models.Expense, rows[3].Type)
	assert.Equal(t, 5, rows[3].RowIndex)
}

func TestProcessBytes(t *testing.T) {
	p := New(log.Default())

	format, rows, err := p.ProcessBytes([]byte(sampleOFX), "extrato.ofx")
	require.NoError(t, err)
	assert.Equal(t, models.FormatOFX, format)
	assert.Len(t, rows, 4)

	_, _, err = p.ProcessBytes([]byte("a;b"), "extrato.xls")
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	_, _, err = p.ProcessBytes([]byte("data;descricao;valor\n01/03/2024;;x\n"), "vazio.csv")
	assert.ErrorIs(t, err, ErrNoValidRows)
}

func TestHeuristics(t *testing.T) {
	assert.True(t, IsCardStatement("Fatura-Nubank-2024-03.csv"))
	assert.True(t, IsCardStatement("extrato_cartão.ofx"))
	assert.False(t, IsCardStatement("extrato conta corrente.csv"))

	assert.True(t, IsCardBillPayment("Pagamento de fatura"))
	assert.True(t, IsCardBillPayment("PGTO FATURA"))
	assert.False(t, IsCardBillPayment("Padaria"))

	assert.True(t, IsCardCreditEvent("Estorno compra"))
	assert.True(t, IsCardCreditEvent("CASHBACK"))
	assert.False(t, IsCardCreditEvent("Mercado"))

	assert.True(t, IsBankBillPayment("PAGAMENTO FATURA ITAU"))
	assert.True(t, IsBankBillPayment("Pgto cartao"))
	assert.False(t, IsBankBillPayment("PIX TRANSF"))
}
