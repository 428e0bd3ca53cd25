// Package socketio provides the Socket.io server for client communication.
package socketio

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/edumarques81/stellar-cue/internal/domain/session"
)

// Server -> client events.
const (
	EventPushState    = "pushState"
	EventPushProgress = "pushProgress"
	EventPushPlaylist = "pushPlaylist"
	EventPushToast    = "pushToast"
	EventPushHover    = "pushHover"
)

// Options tunes the server.
type Options struct {
	// MaxExternal bounds concurrent non-localhost clients; the oldest is
	// evicted past the limit.
	MaxExternal int
	// DebounceWindow collapses bursts of state changes.
	DebounceWindow time.Duration
	// LivePlaylist is the format broadcast on pushPlaylist after cue edits.
	LivePlaylist string
}

// DefaultOptions returns the standard server options.
func DefaultOptions() Options {
	return Options{
		MaxExternal:    4,
		DebounceWindow: 50 * time.Millisecond,
		LivePlaylist:   "cue",
	}
}

// emitter is the part of a client socket the handlers reply through.
type emitter interface {
	Emit(ev string, args ...any) error
}

// Server handles Socket.io connections and events. It is the session's
// change listener.
type Server struct {
	io        *socket.Server
	session   *session.Service
	opts      Options
	limiter   *ConnectionLimiter
	debouncer *BroadcastDebouncer
	handlers  map[string]handlerFunc
	progress  chan struct{}

	mu      sync.RWMutex
	clients map[string]*socket.Socket
}

// NewServer creates a new Socket.io server bound to svc and registers itself
// as the session listener.
func NewServer(svc *session.Service, opts Options) (*Server, error) {
	if svc == nil {
		return nil, errors.New("socketio: nil session")
	}
	def := DefaultOptions()
	if opts.MaxExternal <= 0 {
		opts.MaxExternal = def.MaxExternal
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = def.DebounceWindow
	}
	if opts.LivePlaylist == "" {
		opts.LivePlaylist = def.LivePlaylist
	}

	ioOpts := socket.DefaultServerOptions()
	ioOpts.SetPingTimeout(20 * time.Second)
	ioOpts.SetPingInterval(25 * time.Second)
	ioOpts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	s := &Server{
		io:       socket.NewServer(nil, ioOpts),
		session:  svc,
		opts:     opts,
		limiter:  NewConnectionLimiter(opts.MaxExternal),
		progress: make(chan struct{}, 1),
		clients:  make(map[string]*socket.Socket),
	}
	s.debouncer = NewBroadcastDebouncer(opts.DebounceWindow, s.BroadcastState, s.BroadcastPlaylist)
	s.handlers = s.eventHandlers()

	s.setupHandlers()
	svc.SetListener(s)

	return s, nil
}

// setupHandlers registers the connection handler and every client event.
func (s *Server) setupHandlers() {
	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		clientID := string(client.Id())
		remoteIP := clientIP(client.Handshake().Address)

		_, evicted := s.limiter.TryAdd(clientID, remoteIP)
		log.Info().Str("id", clientID).Str("ip", remoteIP).Int("external", s.limiter.External()).Msg("Client connected")

		s.mu.Lock()
		s.clients[clientID] = client
		old := s.clients[evicted]
		delete(s.clients, evicted)
		s.mu.Unlock()

		if old != nil {
			log.Info().Str("id", evicted).Msg("Evicting oldest external client")
			old.Disconnect(true)
		}

		// Initial state
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.pushState(client)
		}()

		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				if r, ok := args[0].(string); ok {
					reason = r
				}
			}
			log.Info().Str("id", clientID).Str("reason", reason).Msg("Client disconnected")

			s.limiter.Remove(clientID)
			s.mu.Lock()
			delete(s.clients, clientID)
			s.mu.Unlock()
		})

		for event := range s.handlers {
			client.On(event, func(args ...any) {
				log.Debug().Str("id", clientID).Interface("data", args).Msg(event)
				s.handle(client, event, args)
			})
		}
	})
}

// clientIP strips the port from a remote address, if any.
func clientIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// Changed implements session.Listener. It runs under the session lock, so
// broadcasts that read the session are deferred.
func (s *Server) Changed(topic session.Topic) {
	switch topic {
	case session.TopicProgress:
		select {
		case s.progress <- struct{}{}:
		default:
		}
	default:
		s.debouncer.Trigger(topic)
	}
}

// Toast implements session.Listener.
func (s *Server) Toast(t session.Toast) {
	s.io.Emit(EventPushToast, t)
}

// Run pushes progress updates until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Msg("Progress broadcaster started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Progress broadcaster stopped")
			return nil
		case <-s.progress:
			s.BroadcastProgress()
		}
	}
}

// pushState sends the current snapshot to a client.
func (s *Server) pushState(client emitter) {
	client.Emit(EventPushState, s.session.Snapshot())
}

// BroadcastState sends the snapshot to all connected clients.
func (s *Server) BroadcastState() {
	snap := s.session.Snapshot()
	s.io.Emit(EventPushState, snap)

	if log.Debug().Enabled() {
		data, _ := json.Marshal(snap)
		log.Debug().RawJSON("state", data).Int("clients", s.ClientCount()).Msg("Broadcast state")
	}
}

// BroadcastProgress sends the interpolated playhead to all clients.
func (s *Server) BroadcastProgress() {
	s.io.Emit(EventPushProgress, s.session.Progress())
}

// BroadcastPlaylist sends the live export of the cue list to all clients.
func (s *Server) BroadcastPlaylist() {
	out, err := s.session.Export(s.opts.LivePlaylist)
	if err != nil {
		log.Debug().Err(err).Msg("No playlist to broadcast")
		return
	}
	s.io.Emit(EventPushPlaylist, out)
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ServeHTTP implements http.Handler for the Socket.io server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.io.ServeHandler(nil).ServeHTTP(w, r)
}

// Close stops pending broadcasts and closes the Socket.io server.
func (s *Server) Close() error {
	s.debouncer.Stop()
	s.io.Close(nil)
	return nil
}

var _ session.Listener = (*Server)(nil)
