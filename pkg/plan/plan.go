package plan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yurifrl/conciliar/pkg/models"
)

// Plan is a batch of statements to import, plus categories that must exist
// before the first one is previewed.
type Plan struct {
	Categories []CategorySeed `yaml:"categories"`
	Statements []Statement    `yaml:"statements"`
}

type CategorySeed struct {
	Name string                 `yaml:"name"`
	Type models.TransactionType `yaml:"type"`
}

type Statement struct {
	File string `yaml:"file"`
	// Period is any day of the target fiscal month.
	Period   models.Date  `yaml:"period"`
	BillDate *models.Date `yaml:"bill_date,omitempty"`
}

// Load reads a plan. Relative statement paths are resolved against the
// plan file's directory.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i := range p.Statements {
		if !filepath.IsAbs(p.Statements[i].File) {
			p.Statements[i].File = filepath.Join(base, p.Statements[i].File)
		}
	}
	return &p, nil
}

func (p *Plan) validate() error {
	if len(p.Statements) == 0 {
		return fmt.Errorf("plan has no statements")
	}
	for i, st := range p.Statements {
		if st.File == "" {
			return fmt.Errorf("statement %d: file is required", i+1)
		}
		if st.Period.IsZero() {
			return fmt.Errorf("statement %d (%s): period is required", i+1, st.File)
		}
	}
	for i, c := range p.Categories {
		if c.Name == "" {
			return fmt.Errorf("category %d: name is required", i+1)
		}
		if _, err := models.ParseTransactionType(string(c.Type)); err != nil {
			return fmt.Errorf("category %s: %w", c.Name, err)
		}
	}
	return nil
}

func (p *Plan) Print(w io.Writer) {
	for _, c := range p.Categories {
		fmt.Fprintf(w, "category %s (%s)\n", c.Name, c.Type)
	}
	for i, st := range p.Statements {
		bill := "-"
		if st.BillDate != nil {
			bill = st.BillDate.String()
		}
		fmt.Fprintf(w, "[%d] file=%s period=%s bill_date=%s\n", i+1, st.File, st.Period.MonthStart(), bill)
	}
}
