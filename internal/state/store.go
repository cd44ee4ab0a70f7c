package state

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fennle/chitview/internal/chitui"
	"github.com/fennle/chitview/internal/realtime"
)

// maxToasts bounds the toast history kept for the footer.
const maxToasts = 5

// maxTerminalLines bounds the raw command console transcript.
const maxTerminalLines = 200

// Toast is a transient notification with its arrival time.
type Toast struct {
	Message string
	Kind    string
	At      time.Time
}

// TerminalLine is one exchange on the raw command console. Sent marks
// commands going out; responses come back with it unset.
type TerminalLine struct {
	PrinterID string
	Text      string
	Sent      bool
	At        time.Time
}

// PrinterView joins everything known about one printer: the server's
// registry entry plus the latest SDCP payloads received for its board.
type PrinterView struct {
	ID      string
	Printer chitui.Printer

	Status   *chitui.StatusData
	StatusAt time.Time

	Attributes   *chitui.AttributesData
	AttributesAt time.Time

	Files   []chitui.FileEntry
	FilesAt time.Time
}

// Job returns the live print job block, nil when no status has arrived.
func (v PrinterView) Job() *chitui.PrintInfo {
	if v.Status == nil {
		return nil
	}
	return &v.Status.Status.PrintInfo
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Printers []PrinterView

	ServerStatus    chitui.ServerStatus
	HasServerStatus bool
	Storage         chitui.StorageInfo
	HasStorage      bool

	Uploads  map[string]float64
	Toasts   []Toast
	Terminal []TerminalLine
	Socket   realtime.State

	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the server has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Printer returns the view for one printer ID.
func (s Snapshot) Printer(id string) (PrinterView, bool) {
	for _, view := range s.Printers {
		if view.ID == id {
			return view, true
		}
	}
	return PrinterView{}, false
}

type statusEntry struct {
	data chitui.StatusData
	at   time.Time
}

type attributesEntry struct {
	data chitui.AttributesData
	at   time.Time
}

type filesEntry struct {
	files []chitui.FileEntry
	at    time.Time
}

// Store coordinates concurrent updates from the REST poller and the
// realtime event loop against UI reads.
type Store struct {
	mu sync.RWMutex

	printers map[string]chitui.Printer

	// SDCP payloads are keyed by mainboard ID; boardIP remembers each
	// board's IP (from attributes) so payloads can be joined to printers.
	statuses   map[string]statusEntry
	attributes map[string]attributesEntry
	boardIP    map[string]string

	// File lists arrive as responses the app already resolved to a printer.
	files map[string]filesEntry

	serverStatus    chitui.ServerStatus
	hasServerStatus bool
	storage         chitui.StorageInfo
	hasStorage      bool

	uploads  map[string]float64
	toasts   []Toast
	terminal []TerminalLine
	socket   realtime.State

	lastUpdated         time.Time
	lastError           error
	consecutiveFailures int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		printers:   make(map[string]chitui.Printer),
		statuses:   make(map[string]statusEntry),
		attributes: make(map[string]attributesEntry),
		boardIP:    make(map[string]string),
		files:      make(map[string]filesEntry),
		uploads:    make(map[string]float64),
	}
}

// ApplyPrinters replaces the printer set from a "printers" event or a
// discovery response.
func (s *Store) ApplyPrinters(printers map[string]chitui.Printer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.printers = make(map[string]chitui.Printer, len(printers))
	for id, p := range printers {
		s.printers[id] = p
	}
}

// ApplyStatus records an sdcp/status envelope, indexed by mainboard ID.
func (s *Store) ApplyStatus(env chitui.Envelope) error {
	var data chitui.StatusData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return fmt.Errorf("decode status payload: %w", err)
	}
	board := data.MainboardID
	if board == "" {
		board = env.MainboardID()
	}
	if board == "" {
		return fmt.Errorf("status envelope without mainboard id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[board] = statusEntry{data: data, at: time.Now()}
	return nil
}

// ApplyAttributes records an sdcp/attributes envelope, indexed by mainboard
// ID, and remembers the board's IP for joining against printers.
func (s *Store) ApplyAttributes(env chitui.Envelope) error {
	var data chitui.AttributesData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return fmt.Errorf("decode attributes payload: %w", err)
	}
	board := data.MainboardID
	if board == "" {
		board = env.MainboardID()
	}
	if board == "" {
		return fmt.Errorf("attributes envelope without mainboard id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.attributes[board] = attributesEntry{data: data, at: time.Now()}
	if ip := data.Attributes.MainboardIP; ip != "" {
		s.boardIP[board] = ip
	}
	return nil
}

// ApplyFileList stores a printer's remote file list (a Cmd 258 response).
func (s *Store) ApplyFileList(printerID string, files []chitui.FileEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[printerID] = filesEntry{files: cloneFiles(files), at: time.Now()}
}

// ApplyUploadProgress tracks the server-side copy phase of an upload.
// Completed uploads are dropped.
func (s *Store) ApplyUploadProgress(uploadID string, percent float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if percent >= 100 {
		delete(s.uploads, uploadID)
		return
	}
	s.uploads[uploadID] = percent
}

// AddToast appends a notification, keeping the most recent entries.
func (s *Store) AddToast(message, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts = append(s.toasts, Toast{Message: message, Kind: kind, At: time.Now()})
	if len(s.toasts) > maxToasts {
		s.toasts = s.toasts[len(s.toasts)-maxToasts:]
	}
}

// AppendTerminal adds a line to the raw command console transcript.
func (s *Store) AppendTerminal(printerID, text string, sent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminal = append(s.terminal, TerminalLine{
		PrinterID: printerID,
		Text:      text,
		Sent:      sent,
		At:        time.Now(),
	})
	if len(s.terminal) > maxTerminalLines {
		s.terminal = s.terminal[len(s.terminal)-maxTerminalLines:]
	}
}

// ResolveBoard maps a mainboard ID to the printer its payloads belong to.
func (s *Store) ResolveBoard(board string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ip, ok := s.boardIP[board]; ok {
		for id, printer := range s.printers {
			if printer.IP == ip {
				return id, true
			}
		}
	}
	if _, ok := s.printers[board]; ok {
		return board, true
	}
	return "", false
}

// SetServerStatus records the REST /status payload.
func (s *Store) SetServerStatus(status chitui.ServerStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverStatus = status
	s.hasServerStatus = true
}

// SetStorage records the virtual USB drive usage.
func (s *Store) SetStorage(info chitui.StorageInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storage = info
	s.hasStorage = true
}

// SetSocketState mirrors the realtime connection state.
func (s *Store) SetSocketState(st realtime.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.socket = st
}

// RecordPollSuccess clears the failure streak after a good REST poll.
func (s *Store) RecordPollSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = nil
	s.lastUpdated = time.Now()
	s.consecutiveFailures = 0
}

// RecordPollError keeps the previous data but records the failure.
func (s *Store) RecordPollError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
	s.lastUpdated = time.Now()
	s.consecutiveFailures++
}

// ConsecutiveFailures returns the current poll failure streak.
func (s *Store) ConsecutiveFailures() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.consecutiveFailures
}

// Snapshot returns a deep copy of the current state with SDCP payloads
// joined to their printers.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ServerStatus:        s.serverStatus,
		HasServerStatus:     s.hasServerStatus,
		Storage:             s.storage,
		HasStorage:          s.hasStorage,
		Socket:              s.socket,
		LastUpdated:         s.lastUpdated,
		ConsecutiveFailures: s.consecutiveFailures,
	}
	if s.lastError != nil {
		snap.LastError = fmt.Errorf("%w", s.lastError)
	}

	if len(s.uploads) > 0 {
		snap.Uploads = make(map[string]float64, len(s.uploads))
		for id, pct := range s.uploads {
			snap.Uploads[id] = pct
		}
	}
	if len(s.toasts) > 0 {
		snap.Toasts = make([]Toast, len(s.toasts))
		copy(snap.Toasts, s.toasts)
	}
	if len(s.terminal) > 0 {
		snap.Terminal = make([]TerminalLine, len(s.terminal))
		copy(snap.Terminal, s.terminal)
	}

	ids := make([]string, 0, len(s.printers))
	for id := range s.printers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	snap.Printers = make([]PrinterView, 0, len(ids))
	for _, id := range ids {
		printer := s.printers[id]
		view := PrinterView{ID: id, Printer: printer}

		if board, ok := s.boardForPrinter(id, printer); ok {
			if entry, ok := s.statuses[board]; ok {
				data := entry.data
				view.Status = &data
				view.StatusAt = entry.at
			}
			if entry, ok := s.attributes[board]; ok {
				data := entry.data
				view.Attributes = &data
				view.AttributesAt = entry.at
			}
		}
		if entry, ok := s.files[id]; ok {
			view.Files = cloneFiles(entry.files)
			view.FilesAt = entry.at
		}
		snap.Printers = append(snap.Printers, view)
	}
	return snap
}

// boardForPrinter resolves a printer to the mainboard its SDCP payloads are
// keyed by. Attributes carry the board's IP; until they arrive only a board
// ID that happens to equal the printer ID can match.
func (s *Store) boardForPrinter(printerID string, printer chitui.Printer) (string, bool) {
	for board, ip := range s.boardIP {
		if ip == printer.IP {
			return board, true
		}
	}
	if _, ok := s.statuses[printerID]; ok {
		return printerID, true
	}
	if _, ok := s.attributes[printerID]; ok {
		return printerID, true
	}
	return "", false
}

func cloneFiles(files []chitui.FileEntry) []chitui.FileEntry {
	if len(files) == 0 {
		return nil
	}
	dup := make([]chitui.FileEntry, len(files))
	copy(dup, files)
	return dup
}
