// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/swarm_terminal/internal/config"
	"github.com/relabs-tech/swarm_terminal/internal/transcript"
)

// RunTranscriptMonitor prints every exchange a terminal publishes until
// Ctrl+C.
func RunTranscriptMonitor(cfg *config.Config, out io.Writer) error {
	if cfg.MQTTBroker == "" {
		return errors.New("MQTT_BROKER is required for the transcript monitor")
	}

	stop, err := transcript.Subscribe(cfg.MQTTBroker, cfg.MQTTClientIDMonitor, cfg.TopicTranscript, func(e transcript.Exchange) {
		fmt.Fprintln(out, transcript.Format(e))
	})
	if err != nil {
		return err
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("monitor: shutting down")
	stop()
	return nil
}
