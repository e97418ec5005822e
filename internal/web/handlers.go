package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/derickschaefer/eqviz/internal/api"
	"github.com/derickschaefer/eqviz/internal/chart"
	"github.com/derickschaefer/eqviz/internal/model"
	"github.com/derickschaefer/eqviz/internal/view"
)

// maxUploadBytes caps the CSV accepted from a browser form. Larger files
// are rejected, never truncated.
const maxUploadBytes = 32 << 20

var errUploadTooLarge = fmt.Errorf("file exceeds the %d MiB upload limit", maxUploadBytes>>20)

// recordView is a DatasetRecord plus its absolute report link.
type recordView struct {
	model.DatasetRecord
	ReportURL string `json:"report_url,omitempty"`
}

// stateResponse is the JSON shape of /api/state and of POST replies that
// ask for JSON.
type stateResponse struct {
	Phase         string       `json:"phase"`
	Username      string       `json:"username"`
	Authenticated bool         `json:"authenticated"`
	SelectedFile  string       `json:"selected_file,omitempty"`
	Loading       bool         `json:"loading"`
	Error         string       `json:"error,omitempty"`
	LatestSummary *recordView  `json:"latest_summary"`
	History       []recordView `json:"history"`
	Chart         chart.Data   `json:"chart"`
}

func (s *Server) stateView(st view.State) stateResponse {
	resp := stateResponse{
		Phase:         st.Phase.String(),
		Username:      st.Credentials.Username,
		Authenticated: st.Credentials.Username != "" && st.Credentials.Password != "",
		SelectedFile:  st.SelectedFileName(),
		Loading:       st.Loading,
		Error:         st.Error,
		History:       make([]recordView, 0, len(st.History)),
		Chart:         st.Chart(),
	}
	if st.LatestSummary != nil {
		rv := s.recordView(*st.LatestSummary)
		resp.LatestSummary = &rv
	}
	for _, rec := range st.History {
		resp.History = append(resp.History, s.recordView(rec))
	}
	return resp
}

func (s *Server) recordView(rec model.DatasetRecord) recordView {
	return recordView{DatasetRecord: rec, ReportURL: model.ReportLink(s.opts.APIHost, rec)}
}

// ─── Reads ───────────────────────────────────────────────────────────────────

func (s *Server) handleIndex(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := pageTemplate.Execute(c.Writer, s.stateView(s.ctrl.Snapshot())); err != nil {
		slog.Error("rendering page", "err", err)
	}
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.stateView(s.ctrl.Snapshot()))
}

func (s *Server) handleChart(c *gin.Context) {
	var buf bytes.Buffer
	err := chart.RenderPNG(&buf, s.ctrl.Snapshot().Chart(), chart.PieOptions{})
	if errors.Is(err, chart.ErrNoData) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		slog.Error("rendering chart", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// ─── Transitions ─────────────────────────────────────────────────────────────

func (s *Server) handleCredentials(c *gin.Context) {
	err := s.ctrl.SetCredentials(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	s.reply(c, err)
}

func (s *Server) handleRefresh(c *gin.Context) {
	s.reply(c, s.ctrl.Refresh(c.Request.Context()))
}

func (s *Server) handleUpload(c *gin.Context) {
	file, err := readUpload(c)
	if errors.Is(err, errUploadTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	_, err = s.ctrl.SubmitFile(c.Request.Context(), file)
	s.reply(c, err)
}

// readUpload returns the posted CSV, or nil when the form carries no file.
func readUpload(c *gin.Context) (*model.UploadFile, error) {
	fh, err := c.FormFile(api.UploadField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fh.Size > maxUploadBytes {
		return nil, errUploadTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(content) > maxUploadBytes {
		return nil, errUploadTooLarge
	}
	return &model.UploadFile{Name: fh.Filename, Content: content}, nil
}

// reply answers a form POST. Browsers get a redirect back to the page, which
// shows any error from the state; JSON clients get the state and a status
// matching the outcome.
func (s *Server) reply(c *gin.Context, err error) {
	if !wantsJSON(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.JSON(statusFor(err), s.stateView(s.ctrl.Snapshot()))
}

func statusFor(err error) int {
	var (
		pe *api.PreconditionError
		fe *api.FetchError
		ue *api.UploadError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, view.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &pe):
		return http.StatusBadRequest
	case errors.As(err, &fe), errors.As(err, &ue):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
