package control

import (
	"github.com/awim-deck/awimd/pkg/supervisor"
)

// StateResponse is the wire form of a supervision snapshot.
type StateResponse struct {
	Address       string `json:"address"`
	Port          int    `json:"port"`
	TCPMode       bool   `json:"tcp_mode"`
	Running       bool   `json:"running"`
	PID           *int   `json:"pid"`
	Status        string `json:"status"`
	LaunchAttempt uint64 `json:"launch_attempt"`
	LastErrorCode *int   `json:"last_error_code"`
}

// ErrorResponse is the wire form of a request failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidateAddressRequest struct {
	Address string `json:"address"`
}

type ValidatePortRequest struct {
	Port int `json:"port"`
}

type ValidateResponse struct {
	Valid bool `json:"valid"`
}

type UpdateConfigRequest struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
}

type SetFlagRequest struct {
	Enabled bool `json:"enabled"`
}

// FromSnapshot converts a supervisor snapshot to its wire form. PID is null
// when no process is owned.
func FromSnapshot(s supervisor.Snapshot) StateResponse {
	resp := StateResponse{
		Address:       s.Config.Address,
		Port:          s.Config.Port,
		TCPMode:       s.Config.TCPMode,
		Running:       s.Running(),
		Status:        string(s.State),
		LaunchAttempt: s.LaunchAttempt,
		LastErrorCode: s.LastErrorCode,
	}
	if s.PID != 0 {
		pid := s.PID
		resp.PID = &pid
	}
	return resp
}
