/*
NAME
  Config.go

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

// Package config contains the configuration settings for the capture
// pipeline.
package config

import (
	"github.com/ausocean/utils/logging"
)

// Enums to define inputs.
const (
	// Indicates no option has been set.
	NothingDefined = iota

	// Input/Output.
	InputFake
	InputFile
)

// Config provides parameters relevant to a capture pipeline instance. A new
// config must be passed to the constructor. Default values for these fields
// are defined as consts in variables.go.
type Config struct {
	// BufferCount is the number of pre-allocated frame slots in the capture
	// pool. This must be a power of two; if not, Validate will round it up to
	// the next power of two. Slots are reused round-robin, so BufferCount
	// bounds the number of frames that can be in flight between the capture
	// and write routines.
	BufferCount uint

	// FrameRate defines the input frame rate if configurable by the chosen
	// input. The file input uses this to pace frame replay.
	FrameRate uint

	Height uint // Height defines the input frame height in pixels.

	// Input defines the input data source.
	//
	// Valid values are defined by enums:
	// InputFake:
	//		Use a synthetic camera that generates frames.
	// InputFile:
	//		Replay fixed size frames from a file.
	// 		Location must be specified in InputPath field.
	Input uint8

	// InputPath defines the input file location for File input. This must be
	// defined if File input is to be used.
	InputPath string

	// Logger holds an implementation of the logging.Logger interface. This
	// must be set for the pipeline to work correctly.
	Logger logging.Logger

	// LogLevel is the pipeline logging verbosity level.
	// Valid values are defined by enums from the logging package:
	// logging.Debug, logging.Info, logging.Warning, logging.Error,
	// logging.Fatal.
	LogLevel int8

	Loop bool // If true the file input will restart replay after an io.EOF.

	// MaxFileFrames is the number of frames written to the output file before
	// the write position is rewound to the start, bounding the file size. A
	// value of 0 defaults.
	MaxFileFrames uint

	// MaxImageSize is the capacity in bytes of each frame slot, and therefore
	// the largest frame payload that can be captured. Slots are allocated
	// once at pipeline start and never reallocated during a session.
	MaxImageSize uint

	// OutputPath defines the destination of the output data file. Any prior
	// content is truncated at pipeline start.
	OutputPath string

	// OverrunMargin is the number of free slots below which the pipeline
	// considers the writer to have fallen behind the camera and stops with a
	// sink overrun status. It must leave at least one usable slot, i.e.
	// OverrunMargin < BufferCount.
	OverrunMargin uint

	Suppress bool // Holds logger suppression state.

	Width uint // Width defines the input frame width in pixels.
}

// Validate checks for any errors in the config fields and defaults settings
// if particular parameters have not been defined.
func (c *Config) Validate() error {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}
	return nil
}

// Update takes a map of configuration variable names and their corresponding
// values, parses the string values and converting into correct type, and then
// sets the config struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
