// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package events provides an optional, publish-only sink for merge and
// growing-stage progress events, so a long-running build can be watched
// from outside the process.
//
// The package mirrors the teacher's pkg/nats singleton-client shape
// (connection management, reconnect/error handlers, a package-global
// instance retrieved via GetSink) but drops everything Subscribe-shaped:
// a build only ever produces progress, it never consumes commands back
// from the bus.
//
// Configure the sink via JSON in the application config:
//
//	{
//	  "events": {
//	    "address": "nats://localhost:4222",
//	    "subject": "hctree.progress"
//	  }
//	}
//
// A zero-value Config (empty address) is a valid, deliberate "no sink
// configured" state: Connect becomes a no-op and Publish* calls quietly
// do nothing, so instrumenting the builder never requires a running
// NATS server.
package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/connectome-lab/hctree/pkg/log"
)

// Config holds the configuration for connecting to an event bus.
type Config struct {
	Address string `json:"address"` // NATS server address, e.g. "nats://localhost:4222"
	Subject string `json:"subject"` // base subject progress events are published under
}

// Keys holds the global event-sink configuration loaded via Init.
var Keys = Config{Subject: "hctree.progress"}

// Init decodes rawConfig into Keys. A nil rawConfig leaves Keys at its
// zero/default value, which Connect treats as "sink disabled".
func Init(rawConfig json.RawMessage) error {
	if rawConfig == nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(rawConfig))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&Keys); err != nil {
		return fmt.Errorf("events: decode config: %w", err)
	}
	return nil
}

// MergeEvent describes one completed merge step, published on
// "<subject>.merge".
type MergeEvent struct {
	NodeID      int       `json:"nodeId"`
	ChildA      int       `json:"childA"`
	ChildB      int       `json:"childB"`
	Size        int       `json:"size"`
	Level       float32   `json:"level"`
	FrontierLen int       `json:"frontierLen"`
	At          time.Time `json:"at"`
}

// StageEvent describes a growing-stage transition, published on
// "<subject>.stage".
type StageEvent struct {
	Stage       string    `json:"stage"` // "grown" or "done"
	ActiveSize  int       `json:"activeSize"`
	PrioritySize int      `json:"prioritySize"`
	At          time.Time `json:"at"`
}

var (
	sinkOnce     sync.Once
	sinkInstance *Sink
)

// Sink wraps a NATS connection restricted to publishing.
type Sink struct {
	conn    *nats.Conn
	subject string
	mu      sync.Mutex
}

// Connect initializes the singleton sink from the global Keys config.
// An empty Keys.Address disables the sink: GetSink then returns nil and
// every Publish* call becomes a no-op.
func Connect() {
	sinkOnce.Do(func() {
		if Keys.Address == "" {
			log.Info("events: no address configured, progress events disabled")
			return
		}

		sink, err := NewSink(&Keys)
		if err != nil {
			log.Warnf("events: connection failed: %v", err)
			return
		}

		sinkInstance = sink
	})
}

// GetSink returns the singleton sink, or nil if none is configured.
func GetSink() *Sink {
	return sinkInstance
}

// NewSink creates a publish-only sink. If cfg is nil, uses the global
// Keys config.
func NewSink(cfg *Config) (*Sink, error) {
	if cfg == nil {
		cfg = &Keys
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("events: address is required")
	}

	opts := []nats.Option{
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("events: disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("events: reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Errorf("events: error: %v", err)
		}),
	}

	nc, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("events: connect failed: %w", err)
	}

	subject := cfg.Subject
	if subject == "" {
		subject = "hctree.progress"
	}

	log.Infof("events: connected to %s, publishing under %q", cfg.Address, subject)

	return &Sink{conn: nc, subject: subject}, nil
}

// PublishMerge emits a MergeEvent. A nil Sink (no bus configured) is a
// silent no-op, so builder code can call this unconditionally.
func (s *Sink) PublishMerge(ev MergeEvent) {
	if s == nil {
		return
	}
	s.publish(s.subject+".merge", ev)
}

// PublishStage emits a StageEvent.
func (s *Sink) PublishStage(ev StageEvent) {
	if s == nil {
		return
	}
	s.publish(s.subject+".stage", ev)
}

func (s *Sink) publish(subject string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Warnf("events: marshal %s: %v", subject, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.Publish(subject, data); err != nil {
		log.Warnf("events: publish %s: %v", subject, err)
	}
}

// Close drains and closes the underlying connection. Safe to call on a
// nil Sink.
func (s *Sink) Close() {
	if s == nil || s.conn == nil {
		return
	}
	if err := s.conn.Drain(); err != nil {
		log.Warnf("events: drain: %v", err)
	}
}
