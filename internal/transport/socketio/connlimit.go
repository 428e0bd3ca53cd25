package socketio

import (
	"net"
	"sync"
)

// ConnectionLimiter bounds concurrent remote editors. Loopback clients (the
// local UI) are never limited; past the limit the oldest remote client is
// evicted so a newly opened tab always gets in.
type ConnectionLimiter struct {
	mu          sync.Mutex
	maxExternal int
	external    []string          // remote client ids, oldest first
	connections map[string]string // client id -> remote IP
}

// NewConnectionLimiter creates a limiter allowing up to maxExternal remote
// clients at once.
func NewConnectionLimiter(maxExternal int) *ConnectionLimiter {
	return &ConnectionLimiter{
		maxExternal: maxExternal,
		connections: make(map[string]string),
	}
}

// TryAdd registers a connection and returns the id of the client it evicts,
// if any. Connections are always allowed.
func (cl *ConnectionLimiter) TryAdd(clientID, remoteIP string) (allowed bool, evictedID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.connections[clientID]; exists {
		return true, ""
	}
	cl.connections[clientID] = remoteIP

	if isLocalIP(remoteIP) {
		return true, ""
	}

	cl.external = append(cl.external, clientID)
	if len(cl.external) <= cl.maxExternal {
		return true, ""
	}

	evictedID = cl.external[0]
	cl.external = cl.external[1:]
	delete(cl.connections, evictedID)
	return true, evictedID
}

// Remove unregisters a connection when a client disconnects.
func (cl *ConnectionLimiter) Remove(clientID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	ip, exists := cl.connections[clientID]
	if !exists {
		return
	}
	delete(cl.connections, clientID)
	if isLocalIP(ip) {
		return
	}

	for i, id := range cl.external {
		if id == clientID {
			cl.external = append(cl.external[:i], cl.external[i+1:]...)
			break
		}
	}
}

// External returns the number of remote clients currently tracked.
func (cl *ConnectionLimiter) External() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.external)
}

// isLocalIP reports whether ip is a loopback address, including the
// IPv4-mapped IPv6 form.
func isLocalIP(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}
