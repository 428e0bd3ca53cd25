package socketio

import (
	"os"

	"github.com/edumarques81/stellar-cue/internal/version"
)

// SystemInfo identifies the backend to clients.
type SystemInfo struct {
	Host      string `json:"host"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	BuildTime string `json:"buildTime"`
	GitCommit string `json:"gitCommit"`
	Clients   int    `json:"clients"`
}

// GetSystemInfo returns the backend identity and client count.
func (s *Server) GetSystemInfo() SystemInfo {
	v := version.GetInfo()
	info := SystemInfo{
		Name:      version.Name,
		Version:   v.Version,
		BuildTime: v.BuildTime,
		GitCommit: v.GitCommit,
		Clients:   s.ClientCount(),
	}
	if hostname, err := os.Hostname(); err == nil {
		info.Host = hostname
	}
	return info
}
