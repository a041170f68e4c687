package dispatch

import "context"

// Mode selects the transport used to deliver a job to the printer.
type Mode string

const (
	// ModeOS hands the document to the operating system's print spooler.
	ModeOS Mode = "os"
	// ModeTCP writes raw printer-ready bytes to the device's 9100 data port.
	ModeTCP Mode = "tcp"
	// ModeIPP submits the document with an IPP Print-Job operation.
	ModeIPP Mode = "ipp"
)

// JobRequest is a single print job submission. The HTTP layer binds it
// as-is; all semantic validation happens in the dispatcher.
type JobRequest struct {
	Mode           string `json:"mode"`
	PrinterName    string `json:"printerName"`
	PrinterAddress string `json:"printerAddress"`
	// PrinterIP is an accepted alias for PrinterAddress kept for older clients.
	PrinterIP  string `json:"printerIp"`
	FileURL    string `json:"fileUrl"`
	FileBase64 string `json:"fileBase64"`
	Raw        string `json:"raw"`
}

// Address returns the network destination, honoring the legacy alias.
func (j *JobRequest) Address() string {
	if j.PrinterAddress != "" {
		return j.PrinterAddress
	}
	return j.PrinterIP
}

// Result is the uniform outcome of one dispatch. It is fully populated
// exactly once, after the driver call returns.
type Result struct {
	Success bool   `json:"success"`
	Mode    Mode   `json:"mode,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`

	// Err preserves the underlying failure so callers can classify it.
	// It never crosses the wire.
	Err error `json:"-"`
}

// Payload is a fully materialized document body plus its media type.
// It lives for a single job and is consumed by exactly one driver.
type Payload struct {
	Data      []byte
	MediaType string
}

// Delivery carries everything a transport driver needs for one job.
type Delivery struct {
	Payload     *Payload
	PrinterName string
	Address     string
}

// Driver delivers a payload to its destination and reports completion.
// Implementations perform exactly one protocol exchange per call.
type Driver interface {
	Deliver(ctx context.Context, d Delivery) error
}
