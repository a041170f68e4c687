package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/printgate/printgate/internal/ipp"
)

const (
	ippPort         = 631
	ippPath         = "/ipp/print"
	ippContentType  = "application/ipp"
	ippDocumentType = "application/pdf"
	ippJobName      = "printgate document"
	ippUserName     = "printgate"
)

// IPPDriver submits the payload with a single Print-Job exchange against
// the destination's standard IPP endpoint. Success means the printer's
// IPP service accepted the job, not that the job finished printing.
type IPPDriver struct {
	client    *http.Client
	scheme    string
	port      int
	requestID atomic.Uint32
}

func NewIPPDriver(client *http.Client) *IPPDriver {
	if client == nil {
		client = http.DefaultClient
	}
	return &IPPDriver{client: client, scheme: "http", port: ippPort}
}

func (d *IPPDriver) Deliver(ctx context.Context, del Delivery) error {
	host := del.Address
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, strconv.Itoa(d.port))
	}

	req := ipp.NewRequest(ipp.OpPrintJob, d.requestID.Add(1))
	req.Add(ipp.TagURI, "printer-uri", fmt.Sprintf("ipp://%s%s", host, ippPath))
	req.Add(ipp.TagName, "requesting-user-name", ippUserName)
	req.Add(ipp.TagName, "job-name", ippJobName)
	req.Add(ipp.TagMimeMediaType, "document-format", ippDocumentType)
	req.Document = del.Payload.Data

	url := fmt.Sprintf("%s://%s%s", d.scheme, host, ippPath)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(req.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIPPFailed, err)
	}
	httpReq.Header.Set("Content-Type", ippContentType)

	httpResp, err := d.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIPPFailed, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrIPPFailed, httpResp.Status)
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrIPPFailed, err)
	}

	resp, err := ipp.DecodeResponse(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIPPFailed, err)
	}

	if !resp.Successful() {
		if resp.StatusMessage != "" {
			return fmt.Errorf("%w: status 0x%04x: %s", ErrIPPFailed, resp.StatusCode, resp.StatusMessage)
		}
		return fmt.Errorf("%w: status 0x%04x", ErrIPPFailed, resp.StatusCode)
	}

	return nil
}
