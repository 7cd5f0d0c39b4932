/*
DESCRIPTION
  imagewriter is a program that grabs images from a camera and writes
  them to a bounded data file using the capture pipeline. It reports
  received and presumed lost frame counts while running, and stops on a
  keypress, an interrupt, or when the pipeline detects the sink cannot
  keep up with the camera.

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

// Package main provides the imagewriter program.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/cam/capture"
	"github.com/ausocean/cam/capture/config"
	"github.com/ausocean/utils/logging"
)

// Current software version.
const version = "v1.0.0"

// Logging configuration.
const (
	logPath      = "/var/log/imagewriter/imagewriter.log"
	logMaxSize   = 500 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = true
)

// Misc constants.
const (
	pkg            = "imagewriter: "
	reportInterval = 500 * time.Millisecond
)

func main() {
	showVersion := flag.Bool("version", false, "show version")
	varsPath := flag.String("vars", "", "path to a key=value vars file watched for pipeline re-configuration")
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}

	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)
	log.Info("starting imagewriter", "version", version)

	p, err := capture.New(config.Config{Logger: log}, nil)
	if err != nil {
		log.Fatal(pkg+"could not initialise pipeline", "error", err.Error())
	}

	// Vars changes are applied from the run loop below; the watcher only
	// forwards them, so all pipeline control stays on this routine.
	var varsCh chan map[string]string
	if *varsPath != "" {
		vars, err := readVars(*varsPath)
		if err != nil {
			log.Fatal(pkg+"could not read vars file", "error", err.Error())
		}
		err = p.Update(vars)
		if err != nil {
			log.Fatal(pkg+"could not apply vars", "error", err.Error())
		}
		varsCh = make(chan map[string]string)
		go watchVars(*varsPath, varsCh, log)
	}

	err = p.Start()
	if err != nil {
		log.Fatal(pkg+"could not start pipeline", "error", err.Error())
	}

	// A keypress or an interrupt requests a stop; otherwise we run until the
	// pipeline reaches a terminal status of its own.
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

	fmt.Printf("   Capturing image data, writing it to %s\n", p.Config().OutputPath)
	fmt.Println("        -- Press enter to stop --")

	start := time.Now()
	run := true
	for run && p.Status() == capture.StatusRunning {
		select {
		case <-stop:
			run = false
		case vars := <-varsCh:
			log.Info(pkg+"vars file changed, re-configuring", "vars", vars)
			err = p.Update(vars)
			if err != nil {
				log.Warning(pkg+"could not apply vars", "error", err.Error())
				continue
			}
			err = p.Start()
			if err != nil {
				log.Error(pkg+"could not restart pipeline", "error", err.Error())
				run = false
			}
		case <-time.After(reportInterval):
			fmt.Printf("      %8.2f RxFrames: %d LostFrames: %d\r",
				time.Since(start).Seconds(), p.Received(), p.Lost())
		}
	}
	fmt.Println()

	p.Stop()

	status := p.Status()
	log.Info("pipeline stopped", "status", status.String(), "received", p.Received(), "lost", p.Lost())
	switch status {
	case capture.StatusUserStopped:
		os.Exit(0)
	case capture.StatusSinkOverrun:
		fmt.Println("   Error -- the sink cannot keep up with the source -- try slowing down the camera.")
		os.Exit(1)
	default:
		os.Exit(1)
	}
}

// readVars reads a file of newline separated Key=Value pairs into a map
// suitable for Pipeline.Update. Blank lines and lines starting with '#' are
// ignored.
func readVars(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open vars file: %w", err)
	}
	defer f.Close()

	vars := make(map[string]string)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("malformed vars line: %q", line)
		}
		vars[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return vars, sc.Err()
}

// watchVars watches the vars file and forwards its parsed contents on out
// whenever it changes. The pipeline itself is never touched here; applying
// the vars is left to the routine receiving from out.
func watchVars(path string, out chan<- map[string]string, log logging.Logger) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error(pkg+"could not create vars watcher", "error", err.Error())
		return
	}
	defer watcher.Close()

	err = watcher.Add(path)
	if err != nil {
		log.Error(pkg+"could not watch vars file", "error", err.Error())
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			vars, err := readVars(path)
			if err != nil {
				log.Warning(pkg+"could not read vars file", "error", err.Error())
				continue
			}
			out <- vars
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warning(pkg+"vars watcher error", "error", err.Error())
		}
	}
}
