package server

import (
	"github.com/sanonone/spacecol/internal/hostinfo"
	"github.com/sanonone/spacecol/pkg/config"
	"github.com/sanonone/spacecol/pkg/core/colony"
	"github.com/sanonone/spacecol/pkg/engine"
	"github.com/sanonone/spacecol/pkg/export/dot"
)

// InfoResponse describes the run and the host serving it.
type InfoResponse struct {
	RunID  string        `json:"run_id"`
	Host   hostinfo.Info `json:"host"`
	Config config.Config `json:"config"`
}

// StepResponse is returned by POST /step.
type StepResponse struct {
	Steps   int              `json:"steps"`
	Created int              `json:"created"`
	Last    colony.StepStats `json:"last"`
	Status  engine.Status    `json:"status"`
	Errors  []string         `json:"frame_errors,omitempty"`
}

// ConnectionsResponse lists the source to target edges found so far.
type ConnectionsResponse struct {
	Edges []dot.Edge `json:"edges"`
}
