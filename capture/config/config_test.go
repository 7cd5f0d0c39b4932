/*
DESCRIPTION
  config_test.go tests validation and updating of the capture pipeline
  configuration.

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

package config

import (
	"testing"

	"github.com/ausocean/utils/logging"
	"github.com/google/go-cmp/cmp"
)

type dumbLogger struct{}

func (dl *dumbLogger) Log(l int8, m string, a ...interface{})  {}
func (dl *dumbLogger) SetLevel(l int8)                         {}
func (dl *dumbLogger) Debug(msg string, args ...interface{})   {}
func (dl *dumbLogger) Info(msg string, args ...interface{})    {}
func (dl *dumbLogger) Warning(msg string, args ...interface{}) {}
func (dl *dumbLogger) Error(msg string, args ...interface{})   {}
func (dl *dumbLogger) Fatal(msg string, args ...interface{})   {}

func TestValidate(t *testing.T) {
	dl := &dumbLogger{}

	// An unset LogLevel is logging.Info, which is valid, so validation
	// leaves it alone.
	want := Config{
		Logger:        dl,
		Input:         defaultInput,
		FrameRate:     defaultFrameRate,
		LogLevel:      logging.Info,
		BufferCount:   defaultBufferCount,
		MaxImageSize:  defaultMaxImageSize,
		OverrunMargin: defaultOverrunMargin,
		OutputPath:    defaultOutputPath,
		MaxFileFrames: defaultMaxFileFrames,
	}

	got := Config{Logger: dl}
	err := (&got).Validate()
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	if !cmp.Equal(got, want) {
		t.Errorf("configs not equal\nwant: %v\ngot: %v", want, got)
	}
}

// TestValidateLogLevel checks that recognised log levels are kept and an out
// of range level is defaulted.
func TestValidateLogLevel(t *testing.T) {
	tests := []struct {
		level int8
		want  int8
	}{
		{level: logging.Debug, want: logging.Debug},
		{level: logging.Info, want: logging.Info},
		{level: logging.Warning, want: logging.Warning},
		{level: logging.Error, want: logging.Error},
		{level: logging.Fatal, want: logging.Fatal},
		{level: 42, want: defaultVerbosity},
	}

	for i, test := range tests {
		c := Config{Logger: &dumbLogger{}, LogLevel: test.level}
		err := (&c).Validate()
		if err != nil {
			t.Fatalf("did not expect error: %v", err)
		}
		if c.LogLevel != test.want {
			t.Errorf("unexpected log level for test %d\nwant: %v\ngot: %v", i, test.want, c.LogLevel)
		}
	}
}

func TestUpdate(t *testing.T) {
	updateMap := map[string]string{
		"BufferCount":   "32",
		"FrameRate":     "30",
		"Height":        "1024",
		"Input":         "file",
		"InputPath":     "/inputpath",
		"logging":       "Error",
		"Loop":          "true",
		"MaxFileFrames": "64",
		"MaxImageSize":  "2048",
		"OutputPath":    "/outputpath",
		"OverrunMargin": "5",
		"Suppress":      "true",
		"Width":         "1280",
	}

	dl := &dumbLogger{}

	want := Config{
		Logger:        dl,
		BufferCount:   32,
		FrameRate:     30,
		Height:        1024,
		Input:         InputFile,
		InputPath:     "/inputpath",
		LogLevel:      logging.Error,
		Loop:          true,
		MaxFileFrames: 64,
		MaxImageSize:  2048,
		OutputPath:    "/outputpath",
		OverrunMargin: 5,
		Suppress:      true,
		Width:         1280,
	}

	got := Config{Logger: dl}
	(&got).Update(updateMap)

	if !cmp.Equal(got, want) {
		t.Errorf("configs not equal\nwant: %v\ngot: %v", want, got)
	}
}

// TestValidateBufferCount checks that a buffer count that is not a power of
// two is rounded up to the next power of two, and that the overrun margin is
// brought within the pool size.
func TestValidateBufferCount(t *testing.T) {
	tests := []struct {
		count      uint
		margin     uint
		wantCount  uint
		wantMargin uint
	}{
		{count: 16, margin: 3, wantCount: 16, wantMargin: 3},
		{count: 20, margin: 3, wantCount: 32, wantMargin: 3},
		{count: 2, margin: 3, wantCount: 2, wantMargin: 1},
		{count: 0, margin: 0, wantCount: defaultBufferCount, wantMargin: defaultOverrunMargin},
	}

	for i, test := range tests {
		c := Config{Logger: &dumbLogger{}, BufferCount: test.count, OverrunMargin: test.margin}
		err := (&c).Validate()
		if err != nil {
			t.Fatalf("did not expect error: %v", err)
		}
		if c.BufferCount != test.wantCount {
			t.Errorf("unexpected buffer count for test %d\nwant: %v\ngot: %v", i, test.wantCount, c.BufferCount)
		}
		if c.OverrunMargin != test.wantMargin {
			t.Errorf("unexpected overrun margin for test %d\nwant: %v\ngot: %v", i, test.wantMargin, c.OverrunMargin)
		}
	}
}
