package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/conciliar/pkg/importer"
	"github.com/yurifrl/conciliar/pkg/parser"
	"github.com/yurifrl/conciliar/pkg/review"
)

// FileOutcome is what happened to one statement in a directory run.
type FileOutcome struct {
	Path   string
	Counts review.Counts
	Result *importer.Result
	Err    error
}

// Processor previews, and optionally commits, every statement in a directory.
type Processor struct {
	svc      *Service
	periodID string
	commit   bool
	logger   *log.Logger
}

func NewProcessor(svc *Service, periodID string, commit bool, logger *log.Logger) *Processor {
	return &Processor{
		svc:      svc,
		periodID: periodID,
		commit:   commit,
		logger:   logger,
	}
}

// ProcessDirectory handles entries in name order. A failing file is logged
// and reported; it does not stop the others.
func (p *Processor) ProcessDirectory(ctx context.Context, dir string) ([]FileOutcome, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading directory: %w", err)
	}

	var out []FileOutcome
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := parser.DetectFormat(entry.Name()); !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		res := p.processFile(ctx, path)
		if res.Err != nil {
			p.logger.Error("failed to process file", "file", entry.Name(), "error", res.Err)
		}
		out = append(out, res)
	}
	return out, nil
}

func (p *Processor) processFile(ctx context.Context, path string) FileOutcome {
	res := FileOutcome{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("error reading file: %w", err)
		return res
	}

	p.logger.Info("processing file", "path", path)
	session := p.svc.NewSession(p.periodID)
	if _, err := session.PreviewFile(ctx, filepath.Base(path), data); err != nil {
		res.Err = err
		return res
	}
	res.Counts = session.State().Counts
	if !p.commit {
		return res
	}

	committed, err := session.ConfirmImport(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	res.Result = &committed
	p.logger.Info("processed file successfully", "path", path, "imported", committed.Imported)
	return res
}
