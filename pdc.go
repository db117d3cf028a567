package synchrophasor

import (
	"io"
	"net"
)

// PDC is a phasor data concentrator client: it connects to a PMU, issues
// commands, and reads frames with reassembly across short reads.
type PDC struct {
	IDCode uint16
	Config Config

	conn   net.Conn
	buffer []byte
}

// NewPDC creates a PDC client that addresses the PMU with the given id
// code.
func NewPDC(idCode uint16) *PDC {
	return &PDC{
		IDCode: idCode,
		buffer: make([]byte, 65536),
	}
}

// Connect dials the PMU.
func (p *PDC) Connect(address string) error {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return err
	}
	p.conn = conn
	return nil
}

// Disconnect closes the connection.
func (p *PDC) Disconnect() {
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// SendCommand sends a command frame.
func (p *PDC) SendCommand(cmd PmuCommand) error {
	frame := make([]byte, commandFrameSize)
	if GenerateCommand(frame, cmd, p.IDCode) == 0 {
		return ErrBufferTooSmall
	}
	_, err := p.conn.Write(frame)
	return err
}

// Start requests the PMU to begin data transmission.
func (p *PDC) Start() error {
	return p.SendCommand(CommandDataOn)
}

// Stop requests the PMU to halt data transmission.
func (p *PDC) Stop() error {
	return p.SendCommand(CommandDataOff)
}

// GetHeader requests and returns the header frame body.
func (p *PDC) GetHeader() (string, error) {
	if err := p.SendCommand(CommandSendHeader); err != nil {
		return "", err
	}
	frame, err := p.ReadFrame()
	if err != nil {
		return "", err
	}
	if GetPacketType(frame) != PacketTypeHeader {
		return "", ErrInvalidFrame
	}
	return ParseHeader(frame), nil
}

// GetConfig requests a configuration frame (version 1 or 2) and installs
// the parsed configuration for subsequent data-frame reads.
func (p *PDC) GetConfig(version int) (*Config, error) {
	cmd := CommandSendConfig2
	if version == 1 {
		cmd = CommandSendConfig1
	}
	if err := p.SendCommand(cmd); err != nil {
		return nil, err
	}
	frame, err := p.ReadFrame()
	if err != nil {
		return nil, err
	}
	switch GetPacketType(frame) {
	case PacketTypeConfig1, PacketTypeConfig2:
	default:
		return nil, ErrInvalidFrame
	}
	if result := ParseConfig2(frame, &p.Config); result != ParseComplete {
		return nil, ErrInvalidFrame
	}
	return &p.Config, nil
}

// ReadDataFrame reads the next frame and decodes it against the installed
// configuration.
func (p *PDC) ReadDataFrame() (PmuDataFrame, error) {
	frame, err := p.ReadFrame()
	if err != nil {
		return PmuDataFrame{}, err
	}
	return ParseDataFrame(frame, &p.Config), nil
}

// ReadFrame reads one complete frame from the connection, reassembling it
// across short reads using the declared frame size.
func (p *PDC) ReadFrame() ([]byte, error) {
	total := 0
	for total < 4 {
		n, err := p.conn.Read(p.buffer[total:])
		if err != nil {
			return nil, err
		}
		total += n
	}

	frameSize := int(beUint16(p.buffer[2:]))
	if frameSize < MinPacketSize-2 || frameSize > len(p.buffer) {
		return nil, ErrInvalidFrame
	}
	for total < frameSize {
		n, err := p.conn.Read(p.buffer[total:frameSize])
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		total += n
	}
	return p.buffer[:frameSize], nil
}
