// Package executors runs a YAML plan of statements against the ledger:
// Plan previews every statement, Apply seeds categories and commits.
package executors

import (
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/conciliar/pkg/service"
)

type Executor struct {
	logger *log.Logger
	svc    *service.Service
	out    io.Writer
}

// Option customizes an Executor.
type Option func(*Executor)

// WithOutput redirects the rendered previews, stdout by default.
func WithOutput(w io.Writer) Option {
	return func(e *Executor) { e.out = w }
}

func New(logger *log.Logger, svc *service.Service, opts ...Option) *Executor {
	e := &Executor{
		logger: logger,
		svc:    svc,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
