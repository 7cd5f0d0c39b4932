/*
NAME
  capture.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package capture provides a bounded buffer frame capture pipeline; a capture
// routine pulls frames from a camera's blocking acquire call into a fixed
// pool of pre-allocated slots and hands them across a queue to a write
// routine that persists them to a bounded ring file. If the write routine
// cannot keep pace with the camera the pipeline stops with a sink overrun
// status rather than growing memory or silently dropping frames.
package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ausocean/cam/capture/config"
	"github.com/ausocean/cam/device"
	"github.com/ausocean/cam/device/fake"
	"github.com/ausocean/cam/device/file"
	"github.com/ausocean/utils/bitrate"
)

// Pipeline provides methods to control a capture session; providing methods
// to start, stop and change the state of an instance using the Config struct.
type Pipeline struct {
	// cfg holds the pipeline configuration.
	cfg config.Config

	// cam is the camera from which frames are acquired. If nil at Start, a
	// camera is selected using the config Input field.
	cam device.Camera

	// pool holds the pre-allocated frame slots for the session. It is
	// allocated at Start and never reallocated while the session runs.
	pool *pool

	// q passes filled slots from the capture routine to the write routine.
	q *queue

	// state holds the shared pipeline status observed by both routines.
	state state

	// done is closed on the pipeline's terminal status transition; it wakes
	// the write routine and the stream supervisor.
	done chan struct{}

	// track accounts for received and presumed lost frames.
	track Tracker

	// probe allows frames to be "probed" after capture, before persistence.
	// This is useful to derive metrics from frames in flight. Provided
	// through SetProbe.
	probe io.WriteCloser

	// bitrate is used for sink throughput calculations.
	bitrate bitrate.Calculator

	// running is used to keep track of the pipeline's running state between
	// methods. Guarded by mu so Running may be polled while another routine
	// starts or stops the pipeline.
	mu      sync.Mutex
	running bool

	// wg will be used to wait for the capture and write routines to finish.
	wg sync.WaitGroup

	// err will channel errors from pipeline routines to the handle errors
	// routine.
	err chan error
}

// New returns a pointer to a new Pipeline with the desired configuration, or
// an error if construction of the new instance was not successful. cam may be
// nil, in which case a camera is created from the config Input field at
// Start; passing a camera is intended for testing against synthetic devices.
func New(c config.Config, cam device.Camera) (*Pipeline, error) {
	p := Pipeline{cam: cam, err: make(chan error)}
	err := p.setConfig(c)
	if err != nil {
		return nil, fmt.Errorf("could not set config: %w", err)
	}
	go p.handleErrors()
	return &p, nil
}

// setConfig takes a config, checks its validity and then replaces the current
// pipeline config.
func (p *Pipeline) setConfig(c config.Config) error {
	if c.Logger == nil {
		return errors.New("logger not set in config")
	}
	p.cfg.Logger = c.Logger
	err := c.Validate()
	if err != nil {
		return fmt.Errorf("config struct is bad: %w", err)
	}
	p.cfg = c
	p.cfg.Logger.SetLevel(p.cfg.LogLevel)
	return nil
}

// Config returns a copy of the pipeline's current config.
func (p *Pipeline) Config() config.Config {
	return p.cfg
}

// handleErrors logs asynchronous errors from the capture and write routines.
func (p *Pipeline) handleErrors() {
	for {
		err := <-p.err
		if err != nil {
			p.cfg.Logger.Error("async error", "error", err.Error())
		}
	}
}

// Start allocates the session's slot pool and frame queue, starts the camera
// stream and launches the capture and write routines. It returns an error if
// the camera stream could not be started, in which case the pipeline never
// leaves its initial state and may be started again.
func (p *Pipeline) Start() error {
	if p.Running() {
		p.cfg.Logger.Warning("start called, but pipeline already running")
		return nil
	}

	// Reset in place; counters and status may be observed from other
	// routines while a session starts.
	p.state.reset()
	p.track.reset()
	p.done = make(chan struct{})

	p.cfg.Logger.Debug("allocating frame slots", "count", p.cfg.BufferCount, "size", p.cfg.MaxImageSize)
	p.pool = newPool(p.cfg.BufferCount, p.cfg.MaxImageSize)
	p.q = newQueue(p.cfg.BufferCount, p.done)

	if p.cam == nil {
		var err error
		p.cam, err = p.selectCamera()
		if err != nil {
			return err
		}
	}

	// Configure the camera. We know that defaults are set, so no need to
	// return error, but we should log.
	err := p.cam.Set(p.cfg)
	if err != nil {
		p.cfg.Logger.Warning("errors from configuring camera", "errors", err)
	}

	err = p.cam.StartStream()
	if err != nil {
		return fmt.Errorf("could not start camera stream: %w", err)
	}
	p.cfg.Logger.Info("camera streaming", "camera", p.cam.Name())

	// The supervisor stops the camera stream once a terminal status is set;
	// this unblocks an acquire pending in the capture routine. It holds the
	// session's own done channel so a later session cannot disturb it.
	done := p.done
	go func() {
		<-done
		err := p.cam.StopStream()
		if err != nil {
			p.cfg.Logger.Error("could not stop camera stream", "error", err.Error())
		} else {
			p.cfg.Logger.Info("camera stream stopped")
		}
	}()

	p.wg.Add(2)
	go p.capture()
	go p.persist()

	p.setRunning(true)
	return nil
}

// setRunning sets the pipeline's running flag.
func (p *Pipeline) setRunning(r bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = r
}

// selectCamera creates a camera based on the config Input field.
func (p *Pipeline) selectCamera() (device.Camera, error) {
	switch p.cfg.Input {
	case config.InputFake:
		p.cfg.Logger.Debug("using fake input")
		return fake.New(p.cfg.Logger), nil
	case config.InputFile:
		p.cfg.Logger.Debug("using file input")
		return file.New(p.cfg.Logger), nil
	default:
		return nil, fmt.Errorf("unrecognised input type: %v", p.cfg.Input)
	}
}

// Stop closes down the pipeline; the camera stream is stopped first so any
// in-progress acquire unblocks, then both routines are waited on. If the
// pipeline already reached a terminal status the shared status is left as is
// and only the wait is performed.
func (p *Pipeline) Stop() {
	if !p.Running() {
		p.cfg.Logger.Warning("stop called but pipeline isn't running")
		return
	}

	p.terminate(StatusUserStopped)

	// Belt and suspenders; the supervisor stops the stream on terminal
	// transition, but stopping twice is harmless by contract.
	err := p.cam.StopStream()
	if err != nil {
		p.cfg.Logger.Error("could not stop camera stream", "error", err.Error())
	}

	p.cfg.Logger.Debug("waiting for routines to finish")
	p.wg.Wait()
	p.cfg.Logger.Info("routines finished", "status", p.Status().String(), "received", p.track.Received(), "lost", p.track.Lost())

	p.setRunning(false)
}

// terminate performs the pipeline's single terminal status transition. Later
// calls with a different status lose the race and are no-ops.
func (p *Pipeline) terminate(to Status) {
	if p.state.terminate(to) {
		p.cfg.Logger.Info("pipeline status set", "status", to.String())
		close(p.done)
	}
}

// Status returns the pipeline's current status.
func (p *Pipeline) Status() Status {
	return p.state.get()
}

// Running returns whether Start has been called and Stop has not yet been
// called after. Note that a pipeline may hold a terminal status while still
// Running in this sense; Stop must still be called to wait out the routines.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Received returns the total number of frames observed from the camera.
func (p *Pipeline) Received() uint64 { return p.track.Received() }

// Lost returns the number of frames currently presumed lost.
func (p *Pipeline) Lost() int64 { return p.track.Lost() }

// Bitrate returns the result of the most recent sink throughput check.
func (p *Pipeline) Bitrate() int { return p.bitrate.Bitrate() }

// Update takes a map of variables and their values and edits the current
// config if the variables are recognised as valid parameters. If the
// pipeline is running it is stopped first.
func (p *Pipeline) Update(vars map[string]string) error {
	if p.Running() {
		p.cfg.Logger.Debug("pipeline running; stopping for re-config")
		p.Stop()
		p.cfg.Logger.Info("pipeline was running; stopped for re-config")
	}

	p.cfg.Logger.Debug("checking vars", "vars", vars)
	p.cfg.Update(vars)
	err := p.cfg.Validate()
	if err != nil {
		return fmt.Errorf("config struct is bad: %w", err)
	}
	p.cfg.Logger.Info("finished reconfig")
	return nil
}

// SetProbe sets the pipeline probe, to which every persisted frame payload is
// also written. This cannot be set while the pipeline is running.
func (p *Pipeline) SetProbe(w io.WriteCloser) error {
	if p.Running() {
		return errors.New("cannot set probe when pipeline is running")
	}
	p.probe = w
	return nil
}
