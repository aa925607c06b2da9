// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// blasterd drives up to 32 servos from a single DMA-paced GPIO pulse
// train, taking commands over a named pipe (§6). It is the process that
// owns the engine and the command loop for the system's whole lifetime.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"periph.io/x/blaster/cmdloop"
	"periph.io/x/blaster/internal/board"
	"periph.io/x/blaster/internal/engine"
	"periph.io/x/blaster/internal/headers"
)

func mainImpl() error {
	cycleTimeUs := flag.Int("cycle-time-us", 20000, "pulse repetition period, in microseconds")
	stepTimeUs := flag.Int("step-time-us", 10, "pulse width granularity, in microseconds")
	servoMinArg := flag.String("min", "500us", "minimum pulse width: N ticks, Nus, or N%")
	servoMaxArg := flag.String("max", "2500us", "maximum pulse width: N ticks, Nus, or N%")
	idleTimeoutMs := flag.Int("idle-timeout-ms", 0, "idle timeout in milliseconds, 0 disables it")
	invert := flag.Bool("invert", false, "invert every output")
	usePCM := flag.Bool("pcm", false, "pace off the PCM peripheral instead of PWM")
	dmaChan := flag.Int("dma-chan", 14, "DMA channel to claim")
	p1pins := flag.String("p1pins", "7,11,12,13,15,16,18,22", "comma separated P1 pin list, in servo-index order; 0 skips a slot")
	p5pins := flag.String("p5pins", "", "comma separated P5 pin list, in servo-index order")
	fifoPath := flag.String("fifo", cmdloop.DefaultFIFOPath, "command FIFO path")
	configPath := flag.String("config-file", cmdloop.DefaultConfigPath, "pin-table config file path")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()

	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	model, err := board.Detect()
	if err != nil {
		log.Printf("blasterd: %s", err)
	}
	hdrs := model.Headers()

	servoMin, err := parseMinMaxArg(*servoMinArg, "min", *cycleTimeUs, *stepTimeUs)
	if err != nil {
		return err
	}
	servoMax, err := parseMinMaxArg(*servoMaxArg, "max", *cycleTimeUs, *stepTimeUs)
	if err != nil {
		return err
	}

	var servo2gpio [engine.MaxServos]uint8
	for i := range servo2gpio {
		servo2gpio[i] = engine.DMY
	}
	servo := 0
	for _, list := range []struct {
		header headers.Header
		pins   string
	}{
		{firstHeaderNamed(hdrs, "P1"), *p1pins},
		{firstHeaderNamed(hdrs, "P5"), *p5pins},
	} {
		if list.header.Name == "" || list.pins == "" {
			continue
		}
		if err := assignPinList(list.header, list.pins, &servo, &servo2gpio); err != nil {
			return err
		}
	}

	cfg := engine.Config{
		Model:         model,
		CycleTimeUs:   *cycleTimeUs,
		StepTimeUs:    *stepTimeUs,
		ServoMinTicks: servoMin,
		ServoMaxTicks: servoMax,
		IdleTimeout:   time.Duration(*idleTimeoutMs) * time.Millisecond,
		Invert:        *invert,
		UsePCM:        *usePCM,
		DMAChannel:    *dmaChan,
		Servo2GPIO:    servo2gpio,
	}

	e, err := engine.New(cfg)
	if err != nil {
		return err
	}

	loop, err := cmdloop.New(e, hdrs, servo2gpio, engine.DMY, *fifoPath, *configPath)
	if err != nil {
		_ = e.Close()
		return err
	}

	go installSignalHandler(e, loop)

	return loop.Run()
}

// installSignalHandler arrests every signal from 1 to 63 (§5) and runs
// the full teardown path before exiting 1, matching the required
// semantic: an uncaught fatal signal must never leave DMA running.
func installSignalHandler(e *engine.Engine, loop *cmdloop.Loop) {
	c := make(chan os.Signal, 1)
	var all []os.Signal
	for i := 1; i <= 63; i++ {
		all = append(all, syscall.Signal(i))
	}
	signal.Notify(c, all...)
	<-c
	_ = loop.Close()
	_ = e.Close()
	os.Exit(1)
}

func firstHeaderNamed(hdrs []headers.Header, name string) headers.Header {
	for _, h := range hdrs {
		if h.Name == name {
			return h
		}
	}
	return headers.Header{}
}

// assignPinList implements the pin-list grammar a board's --p1pins and
// --p5pins arguments use: a comma separated list of physical pin
// numbers, in the order servo slots should be assigned; "0" skips a
// slot (leaves it unmapped) without consuming a GPIO.
func assignPinList(h headers.Header, pins string, servo *int, servo2gpio *[engine.MaxServos]uint8) error {
	for _, tok := range strings.Split(pins, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		pin, err := strconv.Atoi(tok)
		if err != nil {
			return errors.Errorf("blasterd: invalid pin number %q in %s pin list", tok, h.Name)
		}
		if *servo >= engine.MaxServos {
			return errors.New("blasterd: too many servos specified")
		}
		if pin == 0 {
			*servo++
			continue
		}
		if pin < 1 || pin > len(h.Pins) {
			return errors.Errorf("blasterd: invalid pin number %d in %s pin list", pin, h.Name)
		}
		gpio := h.Pins[pin-1].GPIO
		if gpio < 0 {
			return errors.Errorf("blasterd: pin %d on header %s cannot be used for a servo output", pin, h.Name)
		}
		servo2gpio[*servo] = uint8(gpio)
		*servo++
	}
	return nil
}

// parseMinMaxArg implements the --min/--max grammar (a number, optionally
// suffixed "us" or "%"), resolving it to a tick count using the already
// known cycle and step time.
func parseMinMaxArg(arg, name string, cycleTimeUs, stepTimeUs int) (int, error) {
	numeric, unit := arg, ""
	switch {
	case strings.HasSuffix(arg, "us"):
		numeric, unit = arg[:len(arg)-2], "us"
	case strings.HasSuffix(arg, "%"):
		numeric, unit = arg[:len(arg)-1], "%"
	}
	val, err := strconv.ParseFloat(numeric, 64)
	if err != nil || val < 0 {
		return 0, errors.Errorf("blasterd: invalid %s value specified", name)
	}

	switch unit {
	case "":
		return int(val), nil
	case "us":
		us := int(val)
		if us%stepTimeUs != 0 {
			return 0, errors.Errorf("blasterd: %s value is not a multiple of step-time", name)
		}
		return us / stepTimeUs, nil
	case "%":
		if val > 100 {
			return 0, errors.Errorf("blasterd: %s value must be between 0%% and 100%% inclusive", name)
		}
		return int(val * float64(cycleTimeUs) / 100.0 / float64(stepTimeUs)), nil
	}
	return 0, errors.Errorf("blasterd: invalid %s value specified", name)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "blasterd: %s.\n", err)
		os.Exit(1)
	}
}
