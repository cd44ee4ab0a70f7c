package chitui

// Printer mirrors a printer entry as the server reports it, both in the
// REST payloads and in the realtime "printers" event map.
type Printer struct {
	Connection    string `json:"connection"`
	Name          string `json:"name"`
	Model         string `json:"model"`
	Brand         string `json:"brand"`
	IP            string `json:"ip"`
	Protocol      string `json:"protocol"`
	Firmware      string `json:"firmware"`
	Online        bool   `json:"online"`
	USBDeviceType string `json:"usb_device_type"`
	Image         string `json:"image,omitempty"`
}

// USB device types the server distinguishes for upload routing.
const (
	USBDevicePhysical = "physical"
	USBDeviceVirtual  = "virtual"
)

// USBGadgetStatus describes the server's virtual USB drive.
type USBGadgetStatus struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
	Error   string `json:"error,omitempty"`
}

// ServerStatus mirrors the payload returned by /status.
type ServerStatus struct {
	USBGadget     USBGadgetStatus `json:"usb_gadget"`
	UploadFolder  string          `json:"upload_folder"`
	DataFolder    string          `json:"data_folder"`
	CameraSupport bool            `json:"camera_support"`
}

// SavedPrinter is a printer entry as persisted in the server settings file.
type SavedPrinter struct {
	IP            string `json:"ip"`
	Name          string `json:"name"`
	Model         string `json:"model"`
	Brand         string `json:"brand"`
	Enabled       bool   `json:"enabled"`
	Manual        bool   `json:"manual"`
	USBDeviceType string `json:"usb_device_type"`
	Image         string `json:"image,omitempty"`
}

// AuthSettings is the trimmed auth block the server exposes to clients.
// The password hash never leaves the server.
type AuthSettings struct {
	RequirePasswordChange bool `json:"require_password_change"`
}

// Settings mirrors GET /settings.
type Settings struct {
	Printers       map[string]SavedPrinter `json:"printers"`
	AutoDiscover   bool                    `json:"auto_discover"`
	DefaultPrinter string                  `json:"default_printer"`
	Auth           *AuthSettings           `json:"auth,omitempty"`
}

// StorageInfo mirrors GET /usb-gadget/storage.
type StorageInfo struct {
	Success   bool    `json:"success"`
	Available bool    `json:"available"`
	Total     uint64  `json:"total"`
	Used      uint64  `json:"used"`
	Free      uint64  `json:"free"`
	Percent   float64 `json:"percent"`
}

// UploadResult mirrors the POST /upload response.
type UploadResult struct {
	Upload           string `json:"upload"`
	Msg              string `json:"msg"`
	UploadID         string `json:"upload_id"`
	USBGadget        bool   `json:"usb_gadget"`
	Filename         string `json:"filename"`
	RefreshTriggered bool   `json:"refresh_triggered"`
}

// Succeeded reports whether the server accepted the upload.
func (r UploadResult) Succeeded() bool {
	return r.Upload == "success"
}

// DiscoverResult mirrors the POST /discover response.
type DiscoverResult struct {
	Success  bool               `json:"success"`
	Printers map[string]Printer `json:"printers"`
	Count    int                `json:"count"`
	Message  string             `json:"message,omitempty"`
}

// PrinterImages mirrors GET /printer/images.
type PrinterImages struct {
	Success bool     `json:"success"`
	Images  []string `json:"images"`
}

// ManualPrinterRequest is the body for POST /printer/manual and
// PUT /printer/<id>.
type ManualPrinterRequest struct {
	IP            string `json:"ip"`
	Name          string `json:"name,omitempty"`
	Image         string `json:"image,omitempty"`
	USBDeviceType string `json:"usb_device_type,omitempty"`
}

// ManualPrinterResult mirrors the POST /printer/manual response.
type ManualPrinterResult struct {
	Success   bool    `json:"success"`
	Printer   Printer `json:"printer"`
	PrinterID string  `json:"printer_id"`
	Message   string  `json:"message,omitempty"`
}

// PluginInfo mirrors one entry of GET /plugins.
type PluginInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	Loaded      bool   `json:"loaded"`
}

// LoginResult mirrors POST /auth/login.
type LoginResult struct {
	Success               bool   `json:"success"`
	RequirePasswordChange bool   `json:"require_password_change"`
	Message               string `json:"message,omitempty"`
}

// SessionTimeout mirrors GET/POST /auth/session-timeout. Zero means the
// session never expires.
type SessionTimeout struct {
	Timeout int `json:"timeout"`
}

// actionResult is the generic {success, message} envelope many mutating
// endpoints return.
type actionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Msg     string `json:"msg,omitempty"`
}

func (r actionResult) text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Msg
}
