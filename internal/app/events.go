package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/fennle/chitview/internal/chitui"
	"github.com/fennle/chitview/internal/realtime"
	"github.com/fennle/chitview/internal/state"
)

// socketStateEvery is how often the connection state is mirrored into the
// store when no events arrive.
const socketStateEvery = time.Second

// StartEventLoop launches a goroutine that applies realtime events to the
// store until the context is cancelled. It returns immediately.
func StartEventLoop(ctx context.Context, store *state.Store, rt *realtime.Client) {
	go func() {
		events, cancel := rt.Subscribe()
		defer cancel()

		ticker := time.NewTicker(socketStateEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				store.SetSocketState(rt.State())
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := applyEvent(store, rt, ev); err != nil {
					log.Printf("event %s: %v", ev.Name, err)
				}
				store.SetSocketState(rt.State())
			}
		}
	}()
}

// emitter is the realtime send side, narrowed so tests can fake it.
type emitter interface {
	Emit(event string, payload any) error
}

func applyEvent(store *state.Store, rt emitter, ev realtime.Event) error {
	switch ev.Name {
	case realtime.EventPrinters:
		var printers map[string]chitui.Printer
		if err := json.Unmarshal(ev.Payload, &printers); err != nil {
			return fmt.Errorf("decode printers: %w", err)
		}
		store.ApplyPrinters(printers)
		return nil

	case realtime.EventPrinterStatus:
		env, err := decodeEnvelope(ev.Payload)
		if err != nil {
			return err
		}
		return store.ApplyStatus(env)

	case realtime.EventPrinterAttributes:
		env, err := decodeEnvelope(ev.Payload)
		if err != nil {
			return err
		}
		return store.ApplyAttributes(env)

	case realtime.EventPrinterResponse:
		return applyResponse(store, ev.Payload)

	case realtime.EventPrinterError:
		env, err := decodeEnvelope(ev.Payload)
		if err != nil {
			return err
		}
		store.AddToast(fmt.Sprintf("printer %s reported an error", boardLabel(store, env)), "error")
		return nil

	case realtime.EventPrinterNotice:
		env, err := decodeEnvelope(ev.Payload)
		if err != nil {
			return err
		}
		store.AddToast(fmt.Sprintf("notice from printer %s", boardLabel(store, env)), "info")
		return nil

	case realtime.EventUploadProgress:
		var progress realtime.UploadProgress
		if err := json.Unmarshal(ev.Payload, &progress); err != nil {
			return fmt.Errorf("decode upload progress: %w", err)
		}
		store.ApplyUploadProgress(progress.UploadID, progress.Progress)
		return nil

	case realtime.EventToast:
		var toast realtime.Toast
		if err := json.Unmarshal(ev.Payload, &toast); err != nil {
			return fmt.Errorf("decode toast: %w", err)
		}
		store.AddToast(toast.Message, toast.Type)
		return nil

	case realtime.EventRefreshPage:
		// The server changed its printer set; ask for a fresh list.
		return rt.Emit(realtime.EmitPrinters, struct{}{})

	case realtime.EventTerminalResponse:
		var resp realtime.TerminalResponse
		if err := json.Unmarshal(ev.Payload, &resp); err != nil {
			return fmt.Errorf("decode terminal response: %w", err)
		}
		store.AppendTerminal(resp.PrinterID, resp.Response, false)
		return nil

	default:
		// Plugin broadcasts and anything else the TUI does not render.
		return nil
	}
}

// applyResponse handles sdcp/response envelopes. File lists are the only
// responses with state the UI shows; command acknowledgements are dropped.
func applyResponse(store *state.Store, payload json.RawMessage) error {
	env, err := decodeEnvelope(payload)
	if err != nil {
		return err
	}
	var resp chitui.ResponseData
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		return fmt.Errorf("decode response payload: %w", err)
	}
	if resp.Data.Cmd != chitui.CmdFileList {
		return nil
	}

	var list chitui.FileListData
	if err := json.Unmarshal(resp.Data.Data, &list); err != nil {
		return fmt.Errorf("decode file list: %w", err)
	}
	board := resp.MainboardID
	if board == "" {
		board = env.MainboardID()
	}
	printerID, ok := store.ResolveBoard(board)
	if !ok {
		return fmt.Errorf("file list for unknown mainboard %q", board)
	}
	store.ApplyFileList(printerID, list.FileList)
	return nil
}

// boardLabel names the printer behind an envelope's mainboard ID, falling
// back to the raw ID before the join data has arrived.
func boardLabel(store *state.Store, env chitui.Envelope) string {
	board := env.MainboardID()
	printerID, ok := store.ResolveBoard(board)
	if !ok {
		return board
	}
	if view, ok := store.Snapshot().Printer(printerID); ok && view.Printer.Name != "" {
		return view.Printer.Name
	}
	return printerID
}

func decodeEnvelope(payload json.RawMessage) (chitui.Envelope, error) {
	var env chitui.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return chitui.Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}
