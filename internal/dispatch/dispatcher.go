package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Dispatcher validates a job request, resolves its payload, and hands it
// to the transport driver matching the declared mode. Every failure from
// the resolver or a driver is converted into a Result; nothing escapes,
// so one failed job cannot affect the next. Dispatch holds no shared
// state and is safe for concurrent use.
type Dispatcher struct {
	resolver *Resolver
	spool    Driver
	raw      Driver
	ipp      Driver
	log      *zap.Logger
}

func NewDispatcher(resolver *Resolver, spool, raw, ipp Driver, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		resolver: resolver,
		spool:    spool,
		raw:      raw,
		ipp:      ipp,
		log:      log,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, job *JobRequest) Result {
	mode := ModeOS
	if job.Mode != "" {
		mode = Mode(job.Mode)
	}

	var err error
	switch mode {
	case ModeOS:
		err = d.dispatchOS(ctx, job)
	case ModeTCP:
		err = d.dispatchTCP(ctx, job)
	case ModeIPP:
		err = d.dispatchIPP(ctx, job)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedMode, job.Mode)
	}

	if err != nil {
		d.log.Warn("dispatch failed",
			zap.String("mode", string(mode)),
			zap.Error(err))
		return Result{Success: false, Mode: mode, Error: err.Error(), Err: err}
	}

	return Result{Success: true, Mode: mode, Message: successMessage(mode)}
}

func (d *Dispatcher) dispatchOS(ctx context.Context, job *JobRequest) error {
	if err := validateDocumentSource(job, ModeOS); err != nil {
		return err
	}

	payload, err := d.resolveDocument(ctx, job)
	if err != nil {
		return err
	}

	return d.spool.Deliver(ctx, Delivery{
		Payload:     payload,
		PrinterName: job.PrinterName,
	})
}

func (d *Dispatcher) dispatchTCP(ctx context.Context, job *JobRequest) error {
	if job.Address() == "" {
		return missingField("printerAddress", ModeTCP)
	}
	if job.Raw == "" {
		return missingField("raw", ModeTCP)
	}

	return d.raw.Deliver(ctx, Delivery{
		Payload: DecodeRaw(job.Raw),
		Address: job.Address(),
	})
}

func (d *Dispatcher) dispatchIPP(ctx context.Context, job *JobRequest) error {
	if job.Address() == "" {
		return missingField("printerAddress", ModeIPP)
	}
	if err := validateDocumentSource(job, ModeIPP); err != nil {
		return err
	}

	payload, err := d.resolveDocument(ctx, job)
	if err != nil {
		return err
	}

	return d.ipp.Deliver(ctx, Delivery{
		Payload: payload,
		Address: job.Address(),
	})
}

// validateDocumentSource enforces exactly one document source before any
// I/O happens.
func validateDocumentSource(job *JobRequest, mode Mode) error {
	switch {
	case job.FileURL == "" && job.FileBase64 == "":
		return missingField("fileUrl or fileBase64", mode)
	case job.FileURL != "" && job.FileBase64 != "":
		return fmt.Errorf("%w: fileUrl and fileBase64 (mode %s)", ErrConflictingFields, mode)
	}
	return nil
}

func (d *Dispatcher) resolveDocument(ctx context.Context, job *JobRequest) (*Payload, error) {
	if job.FileBase64 != "" {
		return d.resolver.ResolveInline(job.FileBase64)
	}
	return d.resolver.ResolveURL(ctx, job.FileURL)
}

func successMessage(mode Mode) string {
	switch mode {
	case ModeTCP:
		return "raw bytes delivered"
	case ModeIPP:
		return "print job submitted"
	default:
		return "document spooled"
	}
}
