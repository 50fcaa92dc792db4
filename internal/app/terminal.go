package app

import (
	"io"
	"log"

	"github.com/relabs-tech/swarm_terminal/internal/config"
	"github.com/relabs-tech/swarm_terminal/internal/swarm"
	"github.com/relabs-tech/swarm_terminal/internal/terminal"
	"github.com/relabs-tech/swarm_terminal/internal/transcript"
	"github.com/relabs-tech/swarm_terminal/internal/transport"
)

// RunTerminal opens the modem serial port (or the simulated modem when mock
// is set) and runs the interactive terminal until the operator exits.
// Failing to open the port is returned before any prompt is shown.
func RunTerminal(cfg *config.Config, mock bool, in io.Reader, out io.Writer) error {
	// ---- 1) Open the serial link ----
	port, err := openPort(cfg, mock)
	if err != nil {
		return err
	}

	// ---- 2) Optional transcript mirror ----
	publisher := newPublisher(cfg)
	defer publisher.Close()

	// ---- 3) Interactive session, owns the port from here on ----
	session := terminal.New(port,
		terminal.WithInput(in),
		terminal.WithOutput(out),
		terminal.WithPrompt(cfg.Prompt),
		terminal.WithHandshake(cfg.Handshake),
		// the simulated modem always answers the handshake
		terminal.WithHandshakeReply(cfg.HandshakeReply || mock),
		terminal.WithPublisher(publisher),
	)
	return session.Run()
}

func openPort(cfg *config.Config, mock bool) (transport.Port, error) {
	if mock {
		log.Println("terminal: using simulated Swarm M138, no serial port opened")
		return swarm.NewDevice(), nil
	}

	path, err := transport.Resolve(cfg.SerialPort)
	if err != nil {
		return nil, err
	}

	opts := transport.Options{
		Path:        path,
		BaudRate:    cfg.SerialBaudRate,
		DataBits:    cfg.SerialDataBits,
		StopBits:    cfg.SerialStopBits,
		Parity:      cfg.SerialParity,
		Driver:      cfg.SerialDriver,
		ReadTimeout: cfg.ResponseTimeout,
	}
	port, err := transport.Open(opts)
	if err != nil {
		return nil, err
	}
	log.Printf("terminal: serial port opened on %s at %d baud (%s driver)", path, cfg.SerialBaudRate, cfg.SerialDriver)
	return port, nil
}

// newPublisher connects the transcript mirror. The terminal works without
// it, so a broker that cannot be reached only costs a log line.
func newPublisher(cfg *config.Config) transcript.Publisher {
	if cfg.MQTTBroker == "" {
		return transcript.Nop{}
	}
	p, err := transcript.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientIDTerminal, cfg.TopicTranscript)
	if err != nil {
		log.Printf("terminal: transcript disabled: %v", err)
		return transcript.Nop{}
	}
	return p
}
