package socketio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-cue/internal/domain/cue"
	"github.com/edumarques81/stellar-cue/internal/domain/session"
	"github.com/edumarques81/stellar-cue/internal/domain/transport"
	"github.com/edumarques81/stellar-cue/internal/domain/waveform"
)

// handlerFunc serves one client event. A returned error is logged and
// toasted back to the sender.
type handlerFunc func(client emitter, args []any) error

// errToasted marks failures the session already reported with a toast.
var errToasted = errors.New("already reported")

// handle runs the handler for event. Trailing acknowledgement callbacks are
// dropped from args.
func (s *Server) handle(client emitter, event string, args []any) {
	h, ok := s.handlers[event]
	if !ok {
		log.Warn().Str("event", event).Msg("Unknown event")
		return
	}
	for len(args) > 0 {
		if _, isFunc := args[len(args)-1].(func([]any, error)); !isFunc {
			break
		}
		args = args[:len(args)-1]
	}

	err := h(client, args)
	if err == nil || errors.Is(err, errToasted) {
		return
	}
	log.Warn().Err(err).Str("event", event).Msg("Event failed")
	client.Emit(EventPushToast, session.Toast{
		Level:   session.ToastError,
		Title:   errorTitle(event),
		Message: err.Error(),
	})
}

func errorTitle(event string) string {
	return fmt.Sprintf("%s failed", event)
}

// eventHandlers maps client events to session operations.
func (s *Server) eventHandlers() map[string]handlerFunc {
	h := map[string]handlerFunc{
		"getState": func(c emitter, _ []any) error {
			s.pushState(c)
			return nil
		},
		"getSystemInfo": func(c emitter, _ []any) error {
			c.Emit("pushSystemInfo", s.GetSystemInfo())
			return nil
		},
		"loadFile": s.onLoadFile,
	}
	s.registerTransportHandlers(h)
	s.registerCueHandlers(h)
	s.registerViewHandlers(h)
	return h
}

func (s *Server) onLoadFile(_ emitter, args []any) error {
	var req struct {
		Path     string `json:"path"`
		KeepCues bool   `json:"keepCues"`
	}
	if p, ok := args0String(args); ok {
		req.Path = p
	} else if err := decodeArg(args, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Path) == "" {
		return fmt.Errorf("%w: path is required", ErrBadPayload)
	}
	return s.session.Load(context.Background(), req.Path, req.KeepCues)
}

func args0String(args []any) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	v, ok := args[0].(string)
	return v, ok
}

// registerTransportHandlers registers playback control events.
func (s *Server) registerTransportHandlers(h map[string]handlerFunc) {
	h["play"] = func(_ emitter, _ []any) error { return s.session.Play() }
	h["pause"] = func(_ emitter, _ []any) error { return s.session.Pause() }
	h["toggle"] = func(_ emitter, _ []any) error { return s.session.Toggle() }
	h["next"] = func(_ emitter, _ []any) error { return s.session.Next() }
	h["prev"] = func(_ emitter, _ []any) error { return s.session.Previous() }

	h["seek"] = func(_ emitter, args []any) error {
		t, err := requireFloat(args, "value")
		if err != nil {
			return err
		}
		return s.session.Seek(t)
	}

	h["seekPixel"] = func(_ emitter, args []any) error {
		x, err := requireFloat(args, "x")
		if err != nil {
			return err
		}
		return s.session.SeekToPixel(x)
	}

	h["setRepeat"] = func(_ emitter, args []any) error {
		mode, err := requireString(args, "value")
		if err != nil {
			return err
		}
		return s.session.SetRepeat(transport.RepeatMode(mode))
	}

	h["cycleRepeat"] = func(_ emitter, _ []any) error {
		_, err := s.session.CycleRepeat()
		return err
	}

	h["setShuffle"] = func(_ emitter, args []any) error {
		on, ok := boolArg(args, "value")
		if !ok {
			return fmt.Errorf("%w: value must be a boolean", ErrBadPayload)
		}
		return s.session.SetShuffle(on)
	}

	h["setPitch"] = func(_ emitter, args []any) error {
		pct, err := requireFloat(args, "value")
		if err != nil {
			return err
		}
		return s.session.SetPitch(pct)
	}

	h["volume"] = func(_ emitter, args []any) error {
		vol, err := requireFloat(args, "value")
		if err != nil {
			return err
		}
		return s.session.SetVolume(vol)
	}
}

// registerCueHandlers registers cue editing, import and export events.
func (s *Server) registerCueHandlers(h map[string]handlerFunc) {
	ctx := context.Background()

	h["addCue"] = func(_ emitter, args []any) error {
		var nc session.NewCue
		if err := decodeArg(args, &nc); err != nil {
			return err
		}
		_, err := s.session.AddCue(ctx, nc)
		return err
	}

	h["removeCue"] = func(_ emitter, args []any) error {
		id, err := requireString(args, "id")
		if err != nil {
			return err
		}
		return s.session.RemoveCue(ctx, id)
	}

	h["updateCue"] = func(_ emitter, args []any) error {
		var req struct {
			ID string `json:"id"`
			cue.Patch
		}
		if err := decodeArg(args, &req); err != nil {
			return err
		}
		if req.ID == "" {
			return fmt.Errorf("%w: id is required", ErrBadPayload)
		}
		_, err := s.session.UpdateCue(ctx, req.ID, req.Patch)
		return err
	}

	h["toggleCueLock"] = func(_ emitter, args []any) error {
		id, err := requireString(args, "id")
		if err != nil {
			return err
		}
		_, err = s.session.ToggleCueLock(ctx, id)
		return err
	}

	h["toggleCueConfirm"] = func(_ emitter, args []any) error {
		id, err := requireString(args, "id")
		if err != nil {
			return err
		}
		_, err = s.session.ToggleCueConfirm(ctx, id)
		return err
	}

	h["importCue"] = func(_ emitter, args []any) error {
		text, err := requireString(args, "content")
		if err != nil {
			return err
		}
		if _, err := s.session.ImportCueSheet(ctx, strings.NewReader(text)); err != nil {
			log.Warn().Err(err).Msg("Cue import failed")
			return errToasted
		}
		return nil
	}

	h["importTracklist"] = func(_ emitter, args []any) error {
		text, err := requireString(args, "text")
		if err != nil {
			return err
		}
		if _, err := s.session.ImportTracklist(ctx, text); err != nil {
			log.Warn().Err(err).Msg("Tracklist import failed")
			return errToasted
		}
		return nil
	}

	h["exportPlaylist"] = func(c emitter, args []any) error {
		format, ok := stringArg(args, "format")
		if !ok {
			format = s.opts.LivePlaylist
		}
		out, err := s.session.Export(format)
		if err != nil {
			return err
		}
		c.Emit(EventPushPlaylist, out)
		return nil
	}

	h["setPerformer"] = func(_ emitter, args []any) error {
		p, err := requireString(args, "value")
		if err != nil {
			return err
		}
		s.session.SetPerformer(ctx, p)
		return nil
	}

	h["setMixTitle"] = func(_ emitter, args []any) error {
		t, err := requireString(args, "value")
		if err != nil {
			return err
		}
		s.session.SetMixTitle(ctx, t)
		return nil
	}
}

// registerViewHandlers registers waveform view and pointer events.
func (s *Server) registerViewHandlers(h map[string]handlerFunc) {
	h["setWaveform"] = func(_ emitter, args []any) error {
		var peaks []float64
		if m := firstMap(args); m != nil {
			var req struct {
				Peaks []float64 `json:"peaks"`
			}
			if err := decodeArg(args, &req); err != nil {
				return err
			}
			peaks = req.Peaks
		} else if err := decodeArg(args, &peaks); err != nil {
			return err
		}
		s.session.SetWaveform(peaks)
		return nil
	}

	h["setCanvasWidth"] = func(_ emitter, args []any) error {
		w, err := requireFloat(args, "value")
		if err != nil {
			return err
		}
		s.session.SetCanvasWidth(w)
		return nil
	}

	h["zoom"] = func(_ emitter, args []any) error {
		level, err := requireFloat(args, "level")
		if err != nil {
			return err
		}
		s.session.Zoom(level, getFloatFromMap(firstMap(args), "x", 0))
		return nil
	}

	h["zoomIn"] = func(_ emitter, _ []any) error { s.session.ZoomIn(); return nil }
	h["zoomOut"] = func(_ emitter, _ []any) error { s.session.ZoomOut(); return nil }
	h["resetZoom"] = func(_ emitter, _ []any) error { s.session.ResetZoom(); return nil }

	h["wheel"] = func(_ emitter, args []any) error {
		m := firstMap(args)
		if m == nil {
			return fmt.Errorf("%w: wheel needs deltaY and x", ErrBadPayload)
		}
		s.session.Wheel(getFloatFromMap(m, "deltaY", 0), getFloatFromMap(m, "x", 0))
		return nil
	}

	h["pan"] = func(_ emitter, args []any) error {
		dx, err := requireFloat(args, "deltaX")
		if err != nil {
			return err
		}
		s.session.Pan(dx)
		return nil
	}

	h["setTimeline"] = func(_ emitter, args []any) error {
		pct, err := requireFloat(args, "value")
		if err != nil {
			return err
		}
		s.session.SetTimeline(pct)
		return nil
	}

	h["hover"] = func(c emitter, args []any) error {
		m := firstMap(args)
		hv := s.session.Hover(getFloatFromMap(m, "x", 0), getFloatFromMap(m, "y", 0))
		c.Emit(EventPushHover, hv)
		return nil
	}

	h["cueDragStart"] = func(_ emitter, args []any) error {
		m := firstMap(args)
		_, err := s.session.DragStart(getFloatFromMap(m, "x", 0), getFloatFromMap(m, "y", 0))
		switch {
		case errors.Is(err, waveform.ErrCueLocked):
			return errToasted
		case errors.Is(err, waveform.ErrNoCueAtPosition), errors.Is(err, session.ErrDurationUnknown):
			return nil
		}
		return err
	}

	h["cueDragMove"] = func(_ emitter, args []any) error {
		x, err := requireFloat(args, "x")
		if err != nil {
			return err
		}
		_, err = s.session.DragMove(x)
		return ignoreNoDrag(err)
	}

	h["cueDragEnd"] = func(_ emitter, _ []any) error {
		_, err := s.session.DragEnd(context.Background())
		return ignoreNoDrag(err)
	}
}

// ignoreNoDrag drops drag events that arrive after a press that missed
// every marker.
func ignoreNoDrag(err error) error {
	if errors.Is(err, session.ErrNoDrag) {
		return nil
	}
	return err
}
