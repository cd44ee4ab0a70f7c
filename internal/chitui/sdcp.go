package chitui

import (
	"encoding/json"
	"strings"
)

// SDCP command codes the server issues on the client's behalf. The codes
// matter client-side only for routing command responses.
const (
	CmdStatus        = 0
	CmdAttributes    = 1
	CmdStartPrint    = 128
	CmdPausePrint    = 129
	CmdStopPrint     = 130
	CmdResumePrint   = 131
	CmdFileList      = 258
	CmdDeleteFiles   = 259
	CmdClearHistory  = 320
	CmdTaskDetails   = 321
	CmdFormatStorage = 322
)

// Envelope is the SDCP message wrapper the server relays verbatim on the
// printer_* realtime events: {Id, Data, Topic} with Topic of the form
// "sdcp/<kind>/<mainboardID>".
type Envelope struct {
	ID    string          `json:"Id"`
	Data  json.RawMessage `json:"Data"`
	Topic string          `json:"Topic"`
}

// Kind returns the middle segment of the topic ("status", "attributes",
// "response", "error", "notice") or "" when the topic is malformed.
func (e Envelope) Kind() string {
	parts := strings.Split(e.Topic, "/")
	if len(parts) != 3 || parts[0] != "sdcp" {
		return ""
	}
	return parts[1]
}

// MainboardID returns the trailing topic segment, the printer's board ID.
func (e Envelope) MainboardID() string {
	parts := strings.Split(e.Topic, "/")
	if len(parts) != 3 || parts[0] != "sdcp" {
		return ""
	}
	return parts[2]
}

// PrintInfo is the live job block inside a status report.
type PrintInfo struct {
	Status       int    `json:"Status"`
	CurrentLayer int    `json:"CurrentLayer"`
	TotalLayer   int    `json:"TotalLayer"`
	CurrentTicks int64  `json:"CurrentTicks"`
	TotalTicks   int64  `json:"TotalTicks"`
	Filename     string `json:"Filename"`
	ErrorNumber  int    `json:"ErrorNumber"`
	TaskID       string `json:"TaskId"`
}

// Progress returns job completion in percent, derived from layers.
func (p PrintInfo) Progress() float64 {
	if p.TotalLayer <= 0 {
		return 0
	}
	pct := float64(p.CurrentLayer) / float64(p.TotalLayer) * 100
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// PrinterStatus is the Status block of an sdcp/status report.
type PrinterStatus struct {
	CurrentStatus []int     `json:"CurrentStatus"`
	PrintInfo     PrintInfo `json:"PrintInfo"`
}

// StatusData is the Data payload of an sdcp/status envelope.
type StatusData struct {
	Status      PrinterStatus `json:"Status"`
	MainboardID string        `json:"MainboardID"`
	TimeStamp   int64         `json:"TimeStamp"`
}

// Attributes is the Attributes block of an sdcp/attributes report.
type Attributes struct {
	Name                         string   `json:"Name"`
	MachineName                  string   `json:"MachineName"`
	BrandName                    string   `json:"BrandName"`
	ProtocolVersion              string   `json:"ProtocolVersion"`
	FirmwareVersion              string   `json:"FirmwareVersion"`
	Resolution                   string   `json:"Resolution"`
	XYZsize                      string   `json:"XYZsize"`
	MainboardIP                  string   `json:"MainboardIP"`
	MainboardID                  string   `json:"MainboardID"`
	NumberOfVideoStreamConnected int      `json:"NumberOfVideoStreamConnected"`
	MaximumVideoStreamAllowed    int      `json:"MaximumVideoStreamAllowed"`
	UsbDiskStatus                int      `json:"UsbDiskStatus"`
	Capabilities                 []string `json:"Capabilities"`
	SupportFileType              []string `json:"SupportFileType"`
	CurrentSDCPStatus            int      `json:"CurrentSDCPStatus"`
}

// AttributesData is the Data payload of an sdcp/attributes envelope.
type AttributesData struct {
	Attributes  Attributes `json:"Attributes"`
	MainboardID string     `json:"MainboardID"`
	TimeStamp   int64      `json:"TimeStamp"`
}

// ResponseData is the Data payload of an sdcp/response envelope. The inner
// Data carries the command that is being answered plus its payload.
type ResponseData struct {
	Data        CommandResponse `json:"Data"`
	MainboardID string          `json:"MainboardID"`
	TimeStamp   int64           `json:"TimeStamp"`
}

// CommandResponse is the command-level acknowledgement inside a response.
type CommandResponse struct {
	Cmd         int             `json:"Cmd"`
	Data        json.RawMessage `json:"Data"`
	RequestID   string          `json:"RequestID"`
	MainboardID string          `json:"MainboardID"`
}

// FileEntry is one item of a Cmd 258 file list response.
type FileEntry struct {
	Name     string `json:"name"`
	UsedSize uint64 `json:"usedSize"`
}

// FileListData is the payload of a Cmd 258 response.
type FileListData struct {
	Ack      int         `json:"Ack"`
	FileList []FileEntry `json:"FileList"`
}

// Device-reported print status codes.
const (
	PrintStatusIdle         = 0
	PrintStatusHoming       = 1
	PrintStatusDropping     = 2
	PrintStatusExposuring   = 3
	PrintStatusLifting      = 4
	PrintStatusPausing      = 5
	PrintStatusPaused       = 6
	PrintStatusStopping     = 7
	PrintStatusStopped      = 8
	PrintStatusComplete     = 9
	PrintStatusFileChecking = 10
	PrintStatusPrinting     = 13
)

var printStatusLabels = map[int]string{
	PrintStatusIdle:         "idle",
	PrintStatusHoming:       "homing",
	PrintStatusDropping:     "dropping",
	PrintStatusExposuring:   "exposuring",
	PrintStatusLifting:      "lifting",
	PrintStatusPausing:      "pausing",
	PrintStatusPaused:       "paused",
	PrintStatusStopping:     "stopping",
	PrintStatusStopped:      "stopped",
	PrintStatusComplete:     "complete",
	PrintStatusFileChecking: "checking",
	PrintStatusPrinting:     "printing",
}

// PrintStatusLabel maps a device status code to a stable display label.
func PrintStatusLabel(code int) string {
	if label, ok := printStatusLabels[code]; ok {
		return label
	}
	return "unknown"
}

// Active reports whether the code describes a job in flight (anything
// between homing and stopping, pauses included).
func PrintStatusActive(code int) bool {
	switch code {
	case PrintStatusIdle, PrintStatusStopped, PrintStatusComplete:
		return false
	default:
		_, known := printStatusLabels[code]
		return known
	}
}
