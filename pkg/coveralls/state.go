// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package coveralls

import (
	"time"

	"github.com/cicd-ai-toolkit/coveralls/pkg/observability"
)

// State is the progress of a single submission.
type State int

const (
	StateIdle State = iota
	StateSending
	StateAcknowledged
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateAcknowledged:
		return "acknowledged"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateAcknowledged || s == StateFailed
}

// canTransition encodes Idle -> Sending -> {Acknowledged | Failed}. A
// submission may also fail before anything is sent.
func canTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateSending || to == StateFailed
	case StateSending:
		return to == StateAcknowledged || to == StateFailed
	default:
		return false
	}
}

// submission tracks one call to Submit or Finish. It never escapes the call.
type submission struct {
	state   State
	started time.Time
	log     observability.Logger
}

func newSubmission(log observability.Logger) *submission {
	return &submission{state: StateIdle, started: time.Now(), log: log}
}

func (s *submission) transition(to State) {
	if !canTransition(s.state, to) {
		s.log.Warn("ignoring invalid submission transition",
			observability.String("from", s.state.String()),
			observability.String("to", to.String()))
		return
	}
	s.log.Debug("submission state changed",
		observability.String("from", s.state.String()),
		observability.String("to", to.String()))
	s.state = to
}

func (s *submission) fail(err error) error {
	s.transition(StateFailed)
	s.log.Warn("submission failed",
		observability.Duration("elapsed", time.Since(s.started)),
		observability.Err(err))
	return err
}

func (s *submission) acknowledge(ack *Acknowledgment) *Acknowledgment {
	s.transition(StateAcknowledged)
	s.log.Info("submission acknowledged",
		observability.String("url", ack.URL),
		observability.Duration("elapsed", time.Since(s.started)))
	return ack
}
