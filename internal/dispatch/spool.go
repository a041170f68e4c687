package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultSpoolCommand = "lp"

// SpoolDriver hands a document to the operating system's print spooler.
// Each call writes the payload to a fresh uniquely named temporary file,
// invokes the spool command, and removes the file regardless of outcome.
type SpoolDriver struct {
	command string
	dir     string
	log     *zap.Logger
}

func NewSpoolDriver(command, dir string, log *zap.Logger) *SpoolDriver {
	if command == "" {
		command = defaultSpoolCommand
	}
	if dir == "" {
		dir = os.TempDir()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SpoolDriver{command: command, dir: dir, log: log}
}

func (s *SpoolDriver) Deliver(ctx context.Context, d Delivery) error {
	path := filepath.Join(s.dir, "printgate-"+uuid.NewString()+".prn")

	if err := os.WriteFile(path, d.Payload.Data, 0o600); err != nil {
		return fmt.Errorf("%w: writing spool file: %v", ErrSpoolFailed, err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Warn("failed to remove spool file", zap.String("path", path), zap.Error(err))
		}
	}()

	args := make([]string, 0, 4)
	if d.PrinterName != "" {
		args = append(args, "-d", d.PrinterName)
	}
	args = append(args, "--", path)

	cmd := exec.CommandContext(ctx, s.command, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := bytes.TrimSpace(out); len(msg) > 0 {
			return fmt.Errorf("%w: %s", ErrSpoolFailed, msg)
		}
		return fmt.Errorf("%w: %v", ErrSpoolFailed, err)
	}

	return nil
}
