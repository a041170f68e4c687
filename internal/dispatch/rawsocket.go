package dispatch

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

const rawPrintPort = 9100

// RawSocketDriver writes printer-ready bytes straight to the device's
// data port. One connect, one full write, half-close, then wait for the
// peer to close the connection; the close is the delivery-complete
// signal, raw-print devices send no acknowledgment.
type RawSocketDriver struct {
	dialTimeout time.Duration
	port        int
}

func NewRawSocketDriver(dialTimeout time.Duration) *RawSocketDriver {
	return &RawSocketDriver{dialTimeout: dialTimeout, port: rawPrintPort}
}

func (r *RawSocketDriver) Deliver(ctx context.Context, d Delivery) error {
	addr := d.Address
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(r.port))
	}

	dialer := net.Dialer{Timeout: r.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer conn.Close()

	if _, err := conn.Write(d.Payload.Data); err != nil {
		return fmt.Errorf("%w: write: %v", ErrConnectionFailed, err)
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.CloseWrite(); err != nil {
			return fmt.Errorf("%w: close write: %v", ErrConnectionFailed, err)
		}
	}

	// Drain until the printer closes its side.
	if _, err := io.Copy(io.Discard, conn); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	return nil
}
