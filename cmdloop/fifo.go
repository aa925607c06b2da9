// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package cmdloop is the FIFO-driven front end: it recreates the command
// and config named pipes, parses the width grammar described in §6, and
// dispatches each line to the engine it was built with.
package cmdloop

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"periph.io/x/blaster/internal/headers"
)

// DefaultFIFOPath and DefaultConfigPath are the paths servod's own
// clients expect; blasterd's -fifo and -config-file flags override them.
const (
	DefaultFIFOPath   = "/dev/servoblaster"
	DefaultConfigPath = "/dev/servoblaster-cfg"
)

// openFIFO unlinks path if present and recreates it as a mode-0666 named
// pipe, then opens it read-write non-blocking. Opening our own write end
// keeps the read end from ever seeing EOF between client writers, so the
// loop's select never has to special-case a closed pipe (§6, §4.5).
func openFIFO(path string) (*os.File, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "cmdloop: removing stale %s", path)
	}
	if err := unix.Mkfifo(path, 0666); err != nil {
		return nil, errors.Wrapf(err, "cmdloop: creating %s", path)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_NONBLOCK, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "cmdloop: opening %s", path)
	}
	return f, nil
}

// writeConfigFile rewrites the plain (non-FIFO) pin-table file the §6
// config path describes: one Header.String() line per header in the
// order given (the header name and the signal at every physical
// position, e.g. "P1pins=3V3,5V,GPIO2,..."), followed by the
// human-readable servo/header/pin/gpio table for every mapped slot. The
// -p1pins/-p5pins lists given on the command line are not written.
func writeConfigFile(path string, hdrs []headers.Header, servo2gpio [32]uint8, dmy uint8) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cmdloop: creating %s", path)
	}
	defer f.Close()

	for _, h := range hdrs {
		if _, err := f.WriteString(h.String() + "\n"); err != nil {
			return errors.Wrapf(err, "cmdloop: writing %s", path)
		}
	}
	if _, err := f.WriteString("\nServo\tHeader\tPin\tGPIO\n"); err != nil {
		return errors.Wrapf(err, "cmdloop: writing %s", path)
	}
	for s := 0; s < len(servo2gpio); s++ {
		gpio := servo2gpio[s]
		if gpio == dmy {
			continue
		}
		for _, h := range hdrs {
			if pin, ok := h.ByGPIO(int(gpio)); ok {
				if _, err := fmt.Fprintf(f, "%d\t%s\t%d\t%d\n", s, h.Name, pin, gpio); err != nil {
					return errors.Wrapf(err, "cmdloop: writing %s", path)
				}
				break
			}
		}
	}
	return nil
}
