package view

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/derickschaefer/eqviz/internal/api"
	"github.com/derickschaefer/eqviz/internal/credentials"
	"github.com/derickschaefer/eqviz/internal/model"
)

// ErrBusy is returned by Submit while another upload is in flight.
var ErrBusy = errors.New("an upload is already in progress")

// Backend is the remote API as seen by the controller. *api.Client
// satisfies it.
type Backend interface {
	FetchHistory(ctx context.Context, auth *credentials.AuthContext) (model.HistoryCollection, error)
	SubmitUpload(ctx context.Context, auth *credentials.AuthContext, file *model.UploadFile) (*model.DatasetRecord, error)
}

// Controller sequences credential edits, history refreshes and uploads.
// Every field is written only inside a transition holding mu; mu is never
// held across a Backend call.
type Controller struct {
	creds   *credentials.Store
	backend Backend

	mu         sync.Mutex
	selected   *model.UploadFile
	latest     *model.DatasetRecord
	history    model.HistoryCollection
	errMsg     string
	loading    bool
	refreshing int
	// seq is bumped by every refresh start and every accepted upload.
	// A refresh whose tag no longer matches seq is stale.
	seq uint64
}

// New returns a Controller reading credentials from creds.
func New(creds *credentials.Store, backend Backend) *Controller {
	return &Controller{
		creds:   creds,
		backend: backend,
		history: model.HistoryCollection{},
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Phase:        c.phase(),
		Credentials:  c.creds.Credentials(),
		SelectedFile: c.selected,
		Error:        c.errMsg,
		Loading:      c.loading,
		History:      make(model.HistoryCollection, len(c.history)),
	}
	copy(s.History, c.history)
	if c.latest != nil {
		rec := *c.latest
		s.LatestSummary = &rec
	}
	return s
}

func (c *Controller) phase() Phase {
	switch {
	case c.loading:
		return Uploading
	case c.refreshing > 0:
		return Refreshing
	}
	return Idle
}

// ─── Credentials ─────────────────────────────────────────────────────────────

// Mount performs the initial history load when credentials are already
// present. Without credentials it does nothing.
func (c *Controller) Mount(ctx context.Context) error {
	return c.refresh(ctx, c.creds.Auth())
}

// SetCredential updates one credential field. A refresh runs when the
// derived authorization context appears or changes.
func (c *Controller) SetCredential(ctx context.Context, field, value string) error {
	before := c.creds.Auth()
	if err := c.creds.Set(field, value); err != nil {
		return err
	}
	after := c.creds.Auth()
	if after == nil || after.Equal(before) {
		return nil
	}
	return c.refresh(ctx, after)
}

// SetUsername is SetCredential for the username field.
func (c *Controller) SetUsername(ctx context.Context, v string) error {
	return c.SetCredential(ctx, credentials.FieldUsername, v)
}

// SetPassword is SetCredential for the password field.
func (c *Controller) SetPassword(ctx context.Context, v string) error {
	return c.SetCredential(ctx, credentials.FieldPassword, v)
}

// SetCredentials replaces both fields and refreshes at most once.
func (c *Controller) SetCredentials(ctx context.Context, username, password string) error {
	before := c.creds.Auth()
	if err := c.creds.Set(credentials.FieldUsername, username); err != nil {
		return err
	}
	if err := c.creds.Set(credentials.FieldPassword, password); err != nil {
		return err
	}
	after := c.creds.Auth()
	if after == nil || after.Equal(before) {
		return nil
	}
	return c.refresh(ctx, after)
}

// ─── History ─────────────────────────────────────────────────────────────────

// Refresh reloads history on demand. Without credentials the credential
// prompt is shown and a *api.PreconditionError is returned.
func (c *Controller) Refresh(ctx context.Context) error {
	auth := c.creds.Auth()
	if auth == nil {
		return c.fail(&api.PreconditionError{Message: api.MsgCredentialsRequired})
	}
	return c.refresh(ctx, auth)
}

// refresh fetches history and applies the result unless a newer refresh or
// an upload result has superseded it. A nil auth is a no-op.
func (c *Controller) refresh(ctx context.Context, auth *credentials.AuthContext) error {
	if auth == nil {
		return nil
	}

	c.mu.Lock()
	c.seq++
	tag := c.seq
	c.refreshing++
	c.mu.Unlock()

	history, err := c.backend.FetchHistory(ctx, auth)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshing--
	if tag != c.seq {
		slog.Debug("discarding stale history response", "seq", tag, "current", c.seq, "err", err)
		return err
	}
	if err != nil {
		c.errMsg = api.UserMessage(err)
		return err
	}
	if history == nil {
		history = model.HistoryCollection{}
	}
	c.history = history
	c.latest = history.Latest()
	c.errMsg = ""
	slog.Debug("history applied", "seq", tag, "records", len(history))
	return nil
}

// ─── Upload ──────────────────────────────────────────────────────────────────

// SelectFile replaces the selected upload file. nil clears it.
func (c *Controller) SelectFile(f *model.UploadFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = f
}

// Submit uploads the selected file. On success the returned dataset becomes
// the latest summary straight away, the selection is cleared and history is
// refreshed with the credentials current at that moment. A failed follow-up
// refresh is recorded in State.Error but does not fail the submission.
func (c *Controller) Submit(ctx context.Context) (*model.DatasetRecord, error) {
	return c.submit(ctx, nil, false)
}

// SubmitFile selects f and uploads it in one step. While another upload is
// in flight it returns ErrBusy and leaves the selection untouched.
func (c *Controller) SubmitFile(ctx context.Context, f *model.UploadFile) (*model.DatasetRecord, error) {
	return c.submit(ctx, f, true)
}

func (c *Controller) submit(ctx context.Context, f *model.UploadFile, selectFirst bool) (*model.DatasetRecord, error) {
	auth := c.creds.Auth()

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if selectFirst {
		c.selected = f
	}
	if auth == nil {
		c.errMsg = api.MsgCredentialsRequired
		c.mu.Unlock()
		return nil, &api.PreconditionError{Message: api.MsgCredentialsRequired}
	}
	if c.selected == nil {
		c.errMsg = api.MsgFileRequired
		c.mu.Unlock()
		return nil, &api.PreconditionError{Message: api.MsgFileRequired}
	}
	file := c.selected
	c.errMsg = ""
	c.loading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	dataset, err := c.backend.SubmitUpload(ctx, auth, file)
	if err != nil {
		c.fail(err)
		return nil, err
	}

	c.mu.Lock()
	c.seq++ // in-flight refreshes predate this dataset
	rec := *dataset
	c.latest = &rec
	if c.selected == file {
		c.selected = nil
	}
	c.mu.Unlock()
	slog.Debug("upload accepted", "id", dataset.ID, "file", file.Name)

	// Credentials may have been edited while the upload ran.
	if err := c.refresh(ctx, c.creds.Auth()); err != nil {
		slog.Debug("post-upload refresh failed", "err", err)
	}
	return dataset, nil
}

// fail records err's user message and returns err.
func (c *Controller) fail(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = api.UserMessage(err)
	return err
}
