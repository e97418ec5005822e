// Package app wires together configuration, the API client, the credential
// store, the view controller and the report cache into a single Deps struct
// that commands receive at runtime.
package app

import (
	"fmt"

	"github.com/derickschaefer/eqviz/internal/api"
	"github.com/derickschaefer/eqviz/internal/config"
	"github.com/derickschaefer/eqviz/internal/credentials"
	"github.com/derickschaefer/eqviz/internal/store"
	"github.com/derickschaefer/eqviz/internal/util"
	"github.com/derickschaefer/eqviz/internal/view"
)

// Deps holds all runtime dependencies injected into command Run functions.
// Store is opened lazily by RequireStore since most commands never touch it.
type Deps struct {
	Config     *config.Config
	Client     *api.Client
	Creds      *credentials.Store
	Controller *view.Controller
	Store      *store.Store
}

// New builds a Deps from resolved config. Credentials start empty; callers
// set them through Controller so the refresh rules apply.
func New(cfg *config.Config) *Deps {
	client := api.NewClient(
		cfg.APIBase,
		cfg.Timeout,
		cfg.Rate,
		cfg.Debug,
	)
	creds := credentials.NewStore()
	return &Deps{
		Config:     cfg,
		Client:     client,
		Creds:      creds,
		Controller: view.New(creds, client),
	}
}

// RequireStore opens the report cache on first use.
func (d *Deps) RequireStore() (*store.Store, error) {
	if d.Store != nil {
		return d.Store, nil
	}
	s, err := store.Open(d.Config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening report cache: %w", err)
	}
	d.Store = s
	return s, nil
}

// Close releases anything New or RequireStore opened.
func (d *Deps) Close() error {
	var errs util.MultiError
	if d.Store != nil {
		errs.Add(d.Store.Close())
		d.Store = nil
	}
	return errs.Err()
}
