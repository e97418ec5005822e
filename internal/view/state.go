// Package view owns the client-side view state: credentials, the selected
// upload file, the latest summary, history and the single error slot. All
// changes go through Controller transitions; readers get immutable State
// snapshots.
package view

import (
	"github.com/derickschaefer/eqviz/internal/chart"
	"github.com/derickschaefer/eqviz/internal/credentials"
	"github.com/derickschaefer/eqviz/internal/model"
)

// Phase is the controller's activity tag.
type Phase int

const (
	// Idle means no network work is outstanding.
	Idle Phase = iota
	// Refreshing means at least one history fetch is in flight.
	Refreshing
	// Uploading means a submission is in flight.
	Uploading
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Refreshing:
		return "refreshing"
	case Uploading:
		return "uploading"
	}
	return "unknown"
}

// MarshalText lets Phase render as its name in JSON.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is a point-in-time copy of the view. It is safe to keep and read
// after the controller has moved on.
type State struct {
	Phase         Phase                   `json:"phase"`
	Credentials   credentials.Credentials `json:"credentials"`
	SelectedFile  *model.UploadFile       `json:"-"`
	LatestSummary *model.DatasetRecord    `json:"latest_summary"`
	History       model.HistoryCollection `json:"history"`
	Error         string                  `json:"error,omitempty"`
	Loading       bool                    `json:"loading"`
}

// Chart projects the latest summary's type distribution.
func (s State) Chart() chart.Data {
	return chart.Project(s.LatestSummary)
}

// Busy reports whether an upload is in progress.
func (s State) Busy() bool {
	return s.Loading
}

// SelectedFileName is the selected file's name, or "" when none is chosen.
func (s State) SelectedFileName() string {
	if s.SelectedFile == nil {
		return ""
	}
	return s.SelectedFile.Name
}
