/*
DESCRIPTION
  variables.go contains a list of structs that provide utilities for the
  control of the capture pipeline's configuration parameters.

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
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"
)

// Config map Keys.
const (
	KeyBufferCount   = "BufferCount"
	KeyFrameRate     = "FrameRate"
	KeyHeight        = "Height"
	KeyInput         = "Input"
	KeyInputPath     = "InputPath"
	KeyLogging       = "logging"
	KeyLoop          = "Loop"
	KeyMaxFileFrames = "MaxFileFrames"
	KeyMaxImageSize  = "MaxImageSize"
	KeyOutputPath    = "OutputPath"
	KeyOverrunMargin = "OverrunMargin"
	KeySuppress      = "Suppress"
	KeyWidth         = "Width"
)

// Config map parameter types.
const (
	typeString = "string"
	typeUint   = "uint"
	typeBool   = "bool"
)

// Default variable values.
const (
	defaultInput     = InputFake
	defaultVerbosity = logging.Error
	defaultFrameRate = 25

	// Slot pool defaults. The buffer count must be a power of two; the
	// overrun margin leaves headroom between the write routine falling behind
	// and slot reuse corrupting an in flight frame.
	defaultBufferCount   = 16
	defaultMaxImageSize  = 25 << 20 // 25MiB.
	defaultOverrunMargin = 3

	// Output defaults.
	defaultOutputPath    = "./imageData.bin"
	defaultMaxFileFrames = 32
)

// Variables describes the variables that can be used for pipeline control.
// These structs provide the name and type of variable, a function for updating
// this variable in a Config, and a function for validating the value of the variable.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name:   KeyBufferCount,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.BufferCount = parseUint(KeyBufferCount, v, c) },
		Validate: func(c *Config) {
			if c.BufferCount == 0 {
				c.LogInvalidField(KeyBufferCount, defaultBufferCount)
				c.BufferCount = defaultBufferCount
			}
			if c.BufferCount&(c.BufferCount-1) != 0 {
				rounded := uint(1) << bits.Len(c.BufferCount)
				c.Logger.Info("BufferCount not a power of two, rounding up", "value", c.BufferCount, "rounded", rounded)
				c.BufferCount = rounded
			}
		},
	},
	{
		Name:   KeyFrameRate,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.FrameRate = parseUint(KeyFrameRate, v, c) },
		Validate: func(c *Config) {
			if c.FrameRate == 0 {
				c.LogInvalidField(KeyFrameRate, defaultFrameRate)
				c.FrameRate = defaultFrameRate
			}
		},
	},
	{
		Name:   KeyHeight,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Height = parseUint(KeyHeight, v, c) },
	},
	{
		Name: KeyInput,
		Type: "enum:Fake,File",
		Update: func(c *Config, v string) {
			c.Input = parseEnum(
				KeyInput,
				v,
				map[string]uint8{
					"fake": InputFake,
					"file": InputFile,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.Input {
			case InputFake, InputFile:
			default:
				c.LogInvalidField(KeyInput, defaultInput)
				c.Input = defaultInput
			}
		},
	},
	{
		Name:   KeyInputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.InputPath = v },
	},
	{
		Name: KeyLogging,
		Type: "enum:Debug,Info,Warning,Error,Fatal",
		Update: func(c *Config, v string) {
			switch strings.ToLower(v) {
			case "debug":
				c.LogLevel = logging.Debug
			case "info":
				c.LogLevel = logging.Info
			case "warning":
				c.LogLevel = logging.Warning
			case "error":
				c.LogLevel = logging.Error
			case "fatal":
				c.LogLevel = logging.Fatal
			default:
				c.Logger.Warning("invalid logging param", "value", v)
			}
		},
		Validate: func(c *Config) {
			switch c.LogLevel {
			case logging.Debug, logging.Info, logging.Warning, logging.Error, logging.Fatal:
			default:
				c.LogInvalidField(KeyLogging, defaultVerbosity)
				c.LogLevel = defaultVerbosity
			}
		},
	},
	{
		Name:   KeyLoop,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Loop = parseBool(KeyLoop, v, c) },
	},
	{
		Name:   KeyMaxFileFrames,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MaxFileFrames = parseUint(KeyMaxFileFrames, v, c) },
		Validate: func(c *Config) {
			if c.MaxFileFrames == 0 {
				c.LogInvalidField(KeyMaxFileFrames, defaultMaxFileFrames)
				c.MaxFileFrames = defaultMaxFileFrames
			}
		},
	},
	{
		Name:   KeyMaxImageSize,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MaxImageSize = parseUint(KeyMaxImageSize, v, c) },
		Validate: func(c *Config) {
			if c.MaxImageSize == 0 {
				c.LogInvalidField(KeyMaxImageSize, defaultMaxImageSize)
				c.MaxImageSize = defaultMaxImageSize
			}
		},
	},
	{
		Name:   KeyOutputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.OutputPath = v },
		Validate: func(c *Config) {
			if c.OutputPath == "" {
				c.LogInvalidField(KeyOutputPath, defaultOutputPath)
				c.OutputPath = defaultOutputPath
			}
		},
	},
	{
		Name:   KeyOverrunMargin,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.OverrunMargin = parseUint(KeyOverrunMargin, v, c) },
		Validate: func(c *Config) {
			if c.OverrunMargin == 0 {
				c.LogInvalidField(KeyOverrunMargin, defaultOverrunMargin)
				c.OverrunMargin = defaultOverrunMargin
			}
			// The margin must leave at least one usable slot, otherwise the
			// pipeline would trip an overrun before the first frame is queued.
			if c.OverrunMargin >= c.BufferCount {
				def := c.BufferCount - 1
				c.LogInvalidField(KeyOverrunMargin, def)
				c.OverrunMargin = def
			}
		},
	},
	{
		Name:   KeySuppress,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Suppress = parseBool(KeySuppress, v, c) },
	},
	{
		Name:   KeyWidth,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Width = parseUint(KeyWidth, v, c) },
	},
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}

func parseEnum(n, v string, enums map[string]uint8, c *Config) uint8 {
	_v, ok := enums[strings.ToLower(v)]
	if !ok {
		c.Logger.Warning(fmt.Sprintf("invalid value for %s param", n), "value", v)
	}
	return _v
}
