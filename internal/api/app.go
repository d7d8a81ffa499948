package api

import (
	"time"

	"github.com/yourname/snusquit/internal"
	"github.com/yourname/snusquit/internal/config"
	"github.com/yourname/snusquit/internal/storage"
)

// App is what every handler factory receives. Store may return nil when no
// database is configured.
type App interface {
	Logger() internal.Logger
	Store() storage.Store
	Config() *config.Config
	Now() time.Time
}

// Deps is the App used by the server and the CLI.
type Deps struct {
	logger internal.Logger
	store  storage.Store
	cfg    *config.Config
	clock  func() time.Time
}

func NewDeps(cfg *config.Config, logger internal.Logger, store storage.Store) *Deps {
	return &Deps{logger: logger, store: store, cfg: cfg, clock: time.Now}
}

func (d *Deps) Logger() internal.Logger { return d.logger }
func (d *Deps) Store() storage.Store    { return d.store }
func (d *Deps) Config() *config.Config  { return d.cfg }

// Now is the wall clock in the configured time zone.
func (d *Deps) Now() time.Time {
	now := d.clock()
	if d.cfg != nil && d.cfg.Location != nil {
		now = now.In(d.cfg.Location)
	}
	return now
}
