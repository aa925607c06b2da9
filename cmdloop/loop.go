// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cmdloop

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"periph.io/x/blaster/internal/engine"
	"periph.io/x/blaster/internal/headers"
)

// maxLineLen bounds one buffered command line, matching servod's own
// fixed-size line buffer: a line that never terminates is reported and
// dropped rather than growing the buffer without limit.
const maxLineLen = 126

// servoEngine is the subset of *engine.Engine the loop needs; it exists
// so tests can dispatch commands against a fake without building a real
// DMA arena.
type servoEngine interface {
	MappedServos() []int
	GPIO(s int) (int, bool)
	ServoForGPIO(gpio int) (int, bool)
	Width(s int) int
	SetWidth(s, width int) error
	NumSamples() int
	StepTimeUs() int
	CycleTimeUs() int
	ServoMinTicks() int
	ServoMaxTicks() int
	NextIdleTimeout() time.Duration
	IsAlive() bool
	Snapshot() engine.Debug
}

// Loop owns the command FIFO and dispatches every line it reads to the
// engine, per §4.5/§6. It is built once in main and run until the
// process is signaled down.
type Loop struct {
	eng        servoEngine
	hdrs       []headers.Header
	fifoPath   string
	configPath string
	fifo       *os.File
	out        io.Writer // debug dump destination, normally os.Stdout
	line       []byte    // partial command line buffered across select cycles
}

// New creates (or recreates) the command FIFO and the config file, and
// returns a Loop ready to Run.
func New(eng servoEngine, hdrs []headers.Header, servo2gpio [32]uint8, dmy uint8, fifoPath, configPath string) (*Loop, error) {
	f, err := openFIFO(fifoPath)
	if err != nil {
		return nil, err
	}
	if err := writeConfigFile(configPath, hdrs, servo2gpio, dmy); err != nil {
		f.Close()
		return nil, err
	}
	return &Loop{eng: eng, hdrs: hdrs, fifoPath: fifoPath, configPath: configPath, fifo: f, out: os.Stdout}, nil
}

// Close unlinks the FIFO this loop created. The config file is left in
// place; it is a plain snapshot, not a pipe with reader-side state.
func (l *Loop) Close() error {
	l.fifo.Close()
	if err := os.Remove(l.fifoPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Run blocks, reading lines from the FIFO and dispatching them, waking
// early whenever the idle supervisor's next deadline requires it (§4.4,
// §5). It returns only if the FIFO's read end errors out for a reason
// other than "no data yet".
func (l *Loop) Run() error {
	fd := int(l.fifo.Fd())
	var one [1]byte

	for {
		timeout := l.eng.NextIdleTimeout()
		tv := unix.NsecToTimeval(timeout.Nanoseconds())

		var rfds unix.FdSet
		fdSet(&rfds, fd)
		n, err := unix.Select(fd+1, &rfds, nil, nil, &tv)
		if err != nil && err != unix.EINTR {
			return err
		}
		if n <= 0 {
			continue
		}

		// Drain whatever is queued one byte at a time, exactly as
		// servod does, so a line split across two select wakeups is
		// never silently dropped: the buffer persists on l.line
		// between Run iterations.
		for {
			m, err := unix.Read(fd, one[:])
			if m != 1 {
				if err != nil && err != unix.EAGAIN {
					return err
				}
				break
			}
			if one[0] == '\n' {
				l.dispatch(strings.TrimRight(string(l.line), "\r"))
				l.line = l.line[:0]
				continue
			}
			if len(l.line) >= maxLineLen {
				log.Printf("cmdloop: input too long")
				l.line = l.line[:0]
				continue
			}
			l.line = append(l.line, one[0])
		}
	}
}

func fdSet(set *unix.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

// dispatch parses and executes a single command line, logging a
// diagnostic and discarding it on any parse error per §7's command-parse
// error handling: the loop itself never stops for a bad line.
func (l *Loop) dispatch(line string) {
	switch {
	case line == "debug":
		l.debug()
	case strings.HasPrefix(line, "status "):
		l.status(strings.TrimSpace(line[len("status "):]))
	case len(line) > 0 && (line[0] == 'P' || line[0] == 'p'):
		l.dispatchHeaderPin(line[1:])
	default:
		l.dispatchServo(line)
	}
}

func (l *Loop) dispatchHeaderPin(rest string) {
	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		log.Printf("cmdloop: bad input: %s", rest)
		return
	}
	addr, widthArg := rest[:eq], rest[eq+1:]
	dash := strings.IndexByte(addr, '-')
	if dash < 0 {
		log.Printf("cmdloop: bad input: %s", rest)
		return
	}
	hdrNum, err1 := strconv.Atoi(addr[:dash])
	pin, err2 := strconv.Atoi(addr[dash+1:])
	if err1 != nil || err2 != nil {
		log.Printf("cmdloop: bad input: %s", rest)
		return
	}

	var h *headers.Header
	for i := range l.hdrs {
		if l.hdrs[i].Name == fmt.Sprintf("P%d", hdrNum) {
			h = &l.hdrs[i]
			break
		}
	}
	if h == nil {
		log.Printf("cmdloop: invalid header P%d", hdrNum)
		return
	}
	if pin < 1 || pin > len(h.Pins) {
		log.Printf("cmdloop: invalid pin number P%d-%d", hdrNum, pin)
		return
	}
	gpio := h.Pins[pin-1].GPIO
	if gpio < 0 {
		log.Printf("cmdloop: P%d-%d is not mapped to a servo", hdrNum, pin)
		return
	}
	servo, ok := l.eng.ServoForGPIO(gpio)
	if !ok {
		log.Printf("cmdloop: P%d-%d is not mapped to a servo", hdrNum, pin)
		return
	}
	l.setWidth(servo, widthArg)
}

func (l *Loop) dispatchServo(line string) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		log.Printf("cmdloop: bad input: %s", line)
		return
	}
	servo, err := strconv.Atoi(line[:eq])
	if err != nil {
		log.Printf("cmdloop: bad input: %s", line)
		return
	}
	if servo < 0 || servo >= engine.MaxServos {
		log.Printf("cmdloop: invalid servo number %d", servo)
		return
	}
	if _, ok := l.eng.GPIO(servo); !ok {
		log.Printf("cmdloop: servo %d is not mapped to a GPIO pin", servo)
		return
	}
	l.setWidth(servo, line[eq+1:])
}

func (l *Loop) setWidth(servo int, widthArg string) {
	width, err := parseWidth(widthArg, l.eng.Width(servo), l.eng.ServoMinTicks(), l.eng.ServoMaxTicks(), l.eng.StepTimeUs())
	if err != nil {
		log.Printf("cmdloop: invalid width specified")
		return
	}
	if err := l.eng.SetWidth(servo, width); err != nil {
		log.Printf("cmdloop: %s", err)
	}
}
