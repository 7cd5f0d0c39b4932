/*
DESCRIPTION
  file_test.go tests the file device.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package file

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ausocean/cam/capture/config"
	"github.com/ausocean/cam/device"
	"github.com/ausocean/utils/logging"
)

// writeFrameFile writes a file of n frames of size bytes each, every byte
// of frame i being i+1, and returns its path.
func writeFrameFile(t *testing.T, n, size int) string {
	t.Helper()
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		buf.Write(bytes.Repeat([]byte{byte(i + 1)}, size))
	}
	path := filepath.Join(t.TempDir(), "frames.bin")
	err := os.WriteFile(path, buf.Bytes(), 0o644)
	if err != nil {
		t.Fatalf("could not write frame file: %v", err)
	}
	return path
}

func TestReplay(t *testing.T) {
	const (
		nFrames = 3
		width   = 2
		height  = 2
	)
	path := writeFrameFile(t, nFrames, width*height)

	d := New((*logging.TestLogger)(t))
	err := d.Set(config.Config{InputPath: path, Width: width, Height: height})
	if err != nil {
		t.Fatalf("did not expect error from Set(): %v", err)
	}
	err = d.StartStream()
	if err != nil {
		t.Fatalf("did not expect error from StartStream(): %v", err)
	}
	defer d.StopStream()

	if !d.IsStreaming() {
		t.Error("device isn't streaming, when it should be")
	}

	buf := make([]byte, width*height)
	for i := 0; i < nFrames; i++ {
		desc, err := d.AcquireFrame(buf)
		if err != nil {
			t.Fatalf("did not expect error from AcquireFrame(): %v", err)
		}
		if desc.Number != uint32(i+1) {
			t.Errorf("unexpected frame number: got: %d, want: %d", desc.Number, i+1)
		}
		want := bytes.Repeat([]byte{byte(i + 1)}, width*height)
		if !bytes.Equal(buf[:desc.Size], want) {
			t.Errorf("unexpected frame %d payload: got: %v, want: %v", i+1, buf[:desc.Size], want)
		}
	}
}

func TestReplayLoop(t *testing.T) {
	const (
		nFrames = 2
		width   = 2
		height  = 2
	)
	path := writeFrameFile(t, nFrames, width*height)

	d := New((*logging.TestLogger)(t))
	err := d.Set(config.Config{InputPath: path, Width: width, Height: height, Loop: true})
	if err != nil {
		t.Fatalf("did not expect error from Set(): %v", err)
	}
	err = d.StartStream()
	if err != nil {
		t.Fatalf("did not expect error from StartStream(): %v", err)
	}
	defer d.StopStream()

	// The third acquire wraps to the first frame's data, but sequence
	// numbers keep ascending.
	buf := make([]byte, width*height)
	for i := 0; i < 3; i++ {
		desc, err := d.AcquireFrame(buf)
		if err != nil {
			t.Fatalf("did not expect error from AcquireFrame() %d: %v", i, err)
		}
		if desc.Number != uint32(i+1) {
			t.Errorf("unexpected frame number: got: %d, want: %d", desc.Number, i+1)
		}
	}
	want := bytes.Repeat([]byte{1}, width*height)
	if !bytes.Equal(buf, want) {
		t.Errorf("unexpected wrapped payload: got: %v, want: %v", buf, want)
	}
}

func TestStopUnblocksExhaustedReplay(t *testing.T) {
	const (
		width  = 2
		height = 2
	)
	path := writeFrameFile(t, 1, width*height)

	d := New((*logging.TestLogger)(t))
	err := d.Set(config.Config{InputPath: path, Width: width, Height: height})
	if err != nil {
		t.Fatalf("did not expect error from Set(): %v", err)
	}
	err = d.StartStream()
	if err != nil {
		t.Fatalf("did not expect error from StartStream(): %v", err)
	}

	buf := make([]byte, width*height)
	_, err = d.AcquireFrame(buf)
	if err != nil {
		t.Fatalf("did not expect error from AcquireFrame(): %v", err)
	}

	// Without looping, the next acquire blocks until the stream is stopped.
	acquired := make(chan error)
	go func() {
		_, err := d.AcquireFrame(buf)
		acquired <- err
	}()

	select {
	case err := <-acquired:
		t.Fatalf("acquire returned before stream stop: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	err = d.StopStream()
	if err != nil {
		t.Fatalf("did not expect error from StopStream(): %v", err)
	}

	select {
	case err := <-acquired:
		if !errors.Is(err, device.ErrNotStreaming) {
			t.Errorf("unexpected error from unblocked acquire: got: %v, want: %v", err, device.ErrNotStreaming)
		}
	case <-time.After(time.Second):
		t.Fatal("stream stop did not unblock acquire")
	}
}

func TestSetMissingFields(t *testing.T) {
	d := New((*logging.TestLogger)(t))
	err := d.Set(config.Config{})
	if err == nil {
		t.Fatal("expected errors from Set() with empty config")
	}
	var errs device.MultiError
	if !errors.As(err, &errs) {
		t.Fatalf("unexpected error type from Set(): %T", err)
	}
	if len(errs) != 3 {
		t.Errorf("unexpected error count from Set(): got: %d, want: 3", len(errs))
	}
}
