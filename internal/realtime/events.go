package realtime

// Server → client event names.
const (
	EventPrinters          = "printers"
	EventPrinterStatus     = "printer_status"
	EventPrinterAttributes = "printer_attributes"
	EventPrinterResponse   = "printer_response"
	EventPrinterError      = "printer_error"
	EventPrinterNotice     = "printer_notice"
	EventUploadProgress    = "upload_progress"
	EventToast             = "toast"
	EventRefreshPage       = "refresh_page"
	EventTerminalResponse  = "terminal_response"
)

// Client → server event names.
const (
	EmitPrinters        = "printers"
	EmitPrinterInfo     = "printer_info"
	EmitPrinterFiles    = "printer_files"
	EmitGetAttributes   = "get_attributes"
	EmitActionPrint     = "action_print"
	EmitActionPause     = "action_pause"
	EmitActionResume    = "action_resume"
	EmitActionStop      = "action_stop"
	EmitActionDelete    = "action_delete"
	EmitClearHistory    = "action_clear_history"
	EmitWipeStorage     = "action_wipe_storage"
	EmitTaskDetails     = "get_task_details"
	EmitTerminalCommand = "terminal_command"
)

// PrinterAction targets one printer, optionally carrying an argument (a
// filename for action_print, a path for action_delete).
type PrinterAction struct {
	ID   string `json:"id"`
	Data string `json:"data,omitempty"`
	URL  string `json:"url,omitempty"`
}

// TaskDetailsRequest asks for one task's history entry.
type TaskDetailsRequest struct {
	ID     string `json:"id"`
	TaskID string `json:"taskId"`
}

// TerminalCommand runs a raw SDCP command against one printer.
type TerminalCommand struct {
	PrinterID string `json:"printer_id"`
	Command   string `json:"command"`
}

// TerminalResponse is the server's answer to a terminal command.
type TerminalResponse struct {
	PrinterID string `json:"printer_id"`
	Response  string `json:"response"`
}

// UploadProgress reports the server-side copy phase of an upload.
type UploadProgress struct {
	UploadID string  `json:"upload_id"`
	Progress float64 `json:"progress"`
}

// Toast is a transient server notification.
type Toast struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// RefreshPage tells browser clients to reload; the TUI treats it as a
// hint to re-request the printer list.
type RefreshPage struct {
	Reason string `json:"reason,omitempty"`
}
