package config

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/conciliar/pkg/store"
	"github.com/yurifrl/conciliar/pkg/store/bolt"
	"github.com/yurifrl/conciliar/pkg/store/memory"
)

// OpenLedger opens the configured store. The returned func releases it.
func (c *Config) OpenLedger(logger *log.Logger) (store.Ledger, func() error, error) {
	switch c.Store.Driver {
	case "memory":
		return memory.New(), func() error { return nil }, nil
	case "bolt":
		db, err := bolt.Open(c.Store.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store.driver %q", c.Store.Driver)
}
