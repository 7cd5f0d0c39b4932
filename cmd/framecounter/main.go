/*
DESCRIPTION
  framecounter is a program that streams frames from a camera as fast as
  they arrive, discards the payloads, and reports on the number of
  frames received as well as the number of frames presumed lost. A
  late arriving frame that was previously counted as lost corrects the
  lost count back down.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main provides the framecounter program.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/cam/capture"
	"github.com/ausocean/cam/capture/config"
	"github.com/ausocean/cam/device"
	"github.com/ausocean/cam/device/fake"
	"github.com/ausocean/cam/device/file"
	"github.com/ausocean/utils/logging"
)

// Current software version.
const version = "v1.0.0"

// Logging configuration.
const (
	logPath      = "/var/log/framecounter/framecounter.log"
	logMaxSize   = 500 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = true
)

// Misc constants.
const (
	pkg            = "framecounter: "
	reportInterval = 100 * time.Millisecond
)

func main() {
	showVersion := flag.Bool("version", false, "show version")
	input := flag.String("input", "fake", "input to count frames from: fake or file")
	inputPath := flag.String("path", "", "input file path for file input")
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}

	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)
	log.Info("starting framecounter", "version", version)

	cfg := config.Config{Logger: log, InputPath: *inputPath}
	err := cfg.Validate()
	if err != nil {
		log.Fatal(pkg+"could not validate config", "error", err.Error())
	}

	var cam device.Camera
	switch *input {
	case "fake":
		cam = fake.New(log)
	case "file":
		cam = file.New(log)
	default:
		log.Fatal(pkg+"unrecognised input", "input", *input)
	}

	err = cam.Set(cfg)
	if err != nil {
		log.Warning(pkg+"errors from configuring camera", "errors", err)
	}

	err = cam.StartStream()
	if err != nil {
		log.Fatal(pkg+"could not start camera stream", "error", err.Error())
	}

	// Count frames on a separate routine; the tracker accounts for gaps and
	// late arrivals in the device assigned sequence numbers.
	var track capture.Tracker
	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, cfg.MaxImageSize)
		for {
			desc, err := cam.AcquireFrame(buf)
			if err != nil {
				if errors.Is(err, device.ErrNotStreaming) {
					return
				}
				log.Warning(pkg+"could not get a frame", "error", err.Error())
				continue
			}
			track.Observe(desc.Number)
		}
	}()

	stop := make(chan struct{}, 2)
	go func() {
		b := make([]byte, 1)
		os.Stdin.Read(b)
		stop <- struct{}{}
	}()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		stop <- struct{}{}
	}()

	fmt.Println("   Looking for lost frames.  Press enter to exit")
	start := time.Now()
	var lastLost int64
	run := true
	for run {
		select {
		case <-stop:
			run = false
		case <-time.After(reportInterval):
			lost := track.Lost()
			if lost != lastLost {
				fmt.Println()
			}
			fmt.Printf("      %8.2f RxFrames: %d LostFrames: %d\r",
				time.Since(start).Seconds(), track.Received(), lost)
			lastLost = lost
		}
	}
	fmt.Println()

	err = cam.StopStream()
	if err != nil {
		log.Error(pkg+"could not stop camera stream", "error", err.Error())
	}
	<-done
	log.Info("framecounter finished", "received", track.Received(), "lost", track.Lost())
}
