package transport

import (
	"errors"
	"fmt"

	bugst "go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// serialPort adapts a go.bug.st/serial port, which reports a read timeout as
// (0, nil), to the Port contract.
type serialPort struct {
	port bugst.Port
}

func openSerial(cfg Config) (Port, error) {
	mode := &bugst.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   bugstParity(cfg.Parity),
		StopBits: bugst.OneStopBit,
	}
	if cfg.StopBits == 2 {
		mode.StopBits = bugst.TwoStopBits
	}

	p, err := bugst.Open(cfg.Address, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open serial port %s: %w", cfg.Address, err)
	}

	if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("transport: set read timeout on %s: %w", cfg.Address, err)
	}

	return &serialPort{port: p}, nil
}

func bugstParity(p Parity) bugst.Parity {
	switch p {
	case ParityOdd:
		return bugst.OddParity
	case ParityEven:
		return bugst.EvenParity
	default:
		return bugst.NoParity
	}
}

func (p *serialPort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if err != nil {
		return n, mapSerialErr(err)
	}
	if n == 0 && len(b) > 0 {
		return 0, ErrTimeout
	}

	return n, nil
}

func (p *serialPort) Write(b []byte) (int, error) {
	n, err := p.port.Write(b)
	if err != nil {
		return n, mapSerialErr(err)
	}

	return n, nil
}

func (p *serialPort) Close() error {
	return p.port.Close()
}

func mapSerialErr(err error) error {
	var portErr interface{ Code() bugst.PortErrorCode }
	if errors.As(err, &portErr) && portErr.Code() == bugst.PortClosed {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	return err
}

// PortInfo describes a serial port found on the host.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// ListPorts enumerates the serial ports present on the host.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("transport: enumerate ports: %w", err)
	}

	out := make([]PortInfo, 0, len(details))
	for _, d := range details {
		out = append(out, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}

	return out, nil
}
