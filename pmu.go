package synchrophasor

import (
	"errors"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Transport-layer errors.
var (
	ErrInvalidFrame   = errors.New("invalid frame")
	ErrBufferTooSmall = errors.New("buffer too small")
	ErrNoSource       = errors.New("no data source configured")
)

// PMU serves a data source over TCP: it answers PDC commands with header
// and configuration frames and streams data frames to clients that have
// turned data on.
type PMU struct {
	Header string

	source  Source
	logger  *log.Logger
	metrics MetricsRecorder

	listener net.Listener
	running  bool

	mu       sync.Mutex
	clients  []net.Conn
	sendData map[net.Conn]bool
}

// NewPMU creates a PMU server around the given source.
func NewPMU(source Source) *PMU {
	return &PMU{
		source:   source,
		sendData: make(map[net.Conn]bool),
	}
}

// SetLogger sets the logger.
func (p *PMU) SetLogger(logger *log.Logger) {
	p.logger = logger
}

// SetMetrics sets the metrics recorder.
func (p *PMU) SetMetrics(m MetricsRecorder) {
	p.metrics = m
}

func (p *PMU) log() *log.Logger {
	if p.logger == nil {
		p.logger = log.New()
	}
	return p.logger
}

// Start listens on address and serves clients until Stop is called.
func (p *PMU) Start(address string) error {
	if p.source == nil {
		return ErrNoSource
	}
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	p.listener = listener
	p.running = true

	p.log().WithField("address", address).Info("PMU server listening")

	go func() {
		for p.running {
			conn, err := p.listener.Accept()
			if err != nil {
				if p.running {
					p.log().WithError(err).Error("Error accepting connection")
				}
				continue
			}

			p.log().WithField("client", conn.RemoteAddr().String()).Info("New PDC client connected")

			p.mu.Lock()
			p.clients = append(p.clients, conn)
			p.sendData[conn] = false
			p.mu.Unlock()

			if p.metrics != nil {
				p.metrics.RecordClientConnected()
			}

			go p.handleClient(conn)
		}
	}()

	go p.dataSender()
	return nil
}

// Stop shuts the server down and closes every client connection.
func (p *PMU) Stop() {
	p.running = false
	if p.listener != nil {
		_ = p.listener.Close()
	}

	p.mu.Lock()
	for _, conn := range p.clients {
		_ = conn.Close()
	}
	p.clients = nil
	p.sendData = make(map[net.Conn]bool)
	p.mu.Unlock()

	p.log().Info("PMU server stopped")
}

// Addr returns the listen address, or nil before Start.
func (p *PMU) Addr() net.Addr {
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

func (p *PMU) handleClient(conn net.Conn) {
	clientAddr := conn.RemoteAddr().String()

	defer func() {
		_ = conn.Close()
		p.mu.Lock()
		delete(p.sendData, conn)
		for i, c := range p.clients {
			if c == conn {
				p.clients = append(p.clients[:i], p.clients[i+1:]...)
				break
			}
		}
		p.mu.Unlock()

		if p.metrics != nil {
			p.metrics.RecordClientDisconnected()
		}
		p.log().WithField("client", clientAddr).Info("PDC client disconnected")
	}()

	buffer := make([]byte, 65536)
	filled := 0

	for p.running {
		if err := conn.SetReadDeadline(time.Now().Add(time.Second)); err != nil {
			p.log().WithField("client", clientAddr).WithError(err).Error("Error setting read deadline")
			break
		}

		n, err := conn.Read(buffer[filled:])
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if err.Error() != "EOF" {
				p.log().WithFields(log.Fields{
					"client": clientAddr,
					"error":  err,
				}).Error("Error reading from client")
			}
			break
		}
		filled += n

		if p.metrics != nil {
			p.metrics.RecordBytesReceived(n)
		}

		for filled >= CommonFrameSize+2 {
			frameSize := int(beUint16(buffer[2:]))
			if buffer[0] != SyncLead || frameSize < CommonFrameSize+2 {
				// resynchronize on garbage
				filled = 0
				if p.metrics != nil {
					p.metrics.RecordFrameError("bad_frame")
				}
				break
			}
			if filled < frameSize {
				break
			}
			p.handleFrame(conn, buffer[:frameSize])
			copy(buffer, buffer[frameSize:filled])
			filled -= frameSize
		}
	}
}

func (p *PMU) handleFrame(conn net.Conn, frame []byte) {
	if GetPacketType(frame) != PacketTypeCommand {
		return
	}
	cmd := ParseCommand(frame)
	if cmd == CommandUnknown {
		p.log().WithField("client", conn.RemoteAddr().String()).Error("Error unpacking frame")
		if p.metrics != nil {
			p.metrics.RecordFrameError("unpack_error")
		}
		return
	}
	p.handleCommand(conn, cmd)
}

func (p *PMU) handleCommand(conn net.Conn, cmd PmuCommand) {
	clientAddr := conn.RemoteAddr().String()
	cfg := p.source.GetConfig()
	buffer := make([]byte, 65536)
	var response []byte

	switch cmd {
	case CommandDataOn:
		p.mu.Lock()
		p.sendData[conn] = true
		p.mu.Unlock()
		p.log().WithField("client", clientAddr).Info("Started data transmission")

	case CommandDataOff:
		p.mu.Lock()
		p.sendData[conn] = false
		p.mu.Unlock()
		p.log().WithField("client", clientAddr).Info("Stopped data transmission")

	case CommandSendHeader:
		if size := GenerateHeader(buffer, p.Header, cfg); size > 0 {
			response = buffer[:size]
			if p.metrics != nil {
				p.metrics.RecordHeaderFrameSent(int(size))
			}
		}

	case CommandSendConfig1:
		if size := GenerateConfig1(buffer, cfg); size > 0 {
			response = buffer[:size]
			if p.metrics != nil {
				p.metrics.RecordConfigFrameSent(int(size))
			}
		}

	case CommandSendConfig2, CommandSendConfig3:
		// CFG-3 is not implemented; answer with CFG-2 like most 2005-era
		// devices.
		if size := GenerateConfig2(buffer, cfg); size > 0 {
			response = buffer[:size]
			if p.metrics != nil {
				p.metrics.RecordConfigFrameSent(int(size))
			}
		}
	}

	if p.metrics != nil {
		p.metrics.RecordCommand(cmd.String())
	}

	p.log().WithFields(log.Fields{
		"client":  clientAddr,
		"command": cmd.String(),
	}).Debug("Received command")

	if response != nil {
		if _, err := conn.Write(response); err != nil {
			p.log().WithFields(log.Fields{
				"client":  clientAddr,
				"command": cmd.String(),
				"error":   err,
			}).Error("Error writing response")
		}
	}
}

func (p *PMU) tickInterval() time.Duration {
	rate := p.source.GetConfig().DataRate
	if rate == 0 {
		rate = DefaultDataRate
	}
	if rate > 0 {
		return time.Second / time.Duration(rate)
	}
	return time.Second * time.Duration(-rate)
}

func (p *PMU) dataSender() {
	ticker := time.NewTicker(p.tickInterval())
	defer ticker.Stop()

	buffer := make([]byte, 65536)
	framesSent := 0
	lastRateUpdate := time.Now()

	for p.running {
		now := <-ticker.C

		cfg := p.source.GetConfig()
		var frame PmuDataFrame
		p.source.FillDataFrame(&frame, now)

		size := GenerateDataFrame(buffer, cfg, &frame)
		if size == 0 {
			p.log().Error("Error packing data frame")
			if p.metrics != nil {
				p.metrics.RecordFrameError("data_pack_error")
			}
			continue
		}
		data := buffer[:size]

		p.mu.Lock()
		active := 0
		for conn, enabled := range p.sendData {
			if !enabled {
				continue
			}
			active++
			if err := conn.SetWriteDeadline(time.Now().Add(100 * time.Millisecond)); err != nil {
				continue
			}
			if _, err := conn.Write(data); err != nil {
				p.log().WithFields(log.Fields{
					"client": conn.RemoteAddr().String(),
					"error":  err,
				}).Debug("Error sending data frame")
			}
		}
		p.mu.Unlock()

		if active > 0 {
			framesSent++
			if p.metrics != nil {
				p.metrics.RecordDataFrameSent(int(size))
			}
		}

		if time.Since(lastRateUpdate) >= time.Second {
			if p.metrics != nil {
				p.metrics.UpdateDataFrameRate(float64(framesSent) / time.Since(lastRateUpdate).Seconds())
			}
			framesSent = 0
			lastRateUpdate = time.Now()
		}
	}
}
