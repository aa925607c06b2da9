// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import (
	"reflect"
	"time"

	"github.com/pkg/errors"

	"periph.io/x/blaster/internal/bcm283x"
	"periph.io/x/blaster/internal/pmem"
)

// Engine owns every piece of state described in §3: the memory arena,
// the mapped peripheral registers, and the per-servo width/stagger/idle
// bookkeeping. It is constructed once in main and is not safe for
// concurrent use — the command loop is its only caller, by design (§5).
type Engine struct {
	cfg    Config
	mapped []int
	arena  *arena

	gpioView  *pmem.View
	gpio      *bcm283x.GPIOMap
	pwmView   *pmem.View
	pwm       *bcm283x.PWMMap
	pcmView   *pmem.View
	pcm       *bcm283x.PCMMap
	clockView *pmem.View
	pwmClock  *bcm283x.ClockMap
	pcmClock  *bcm283x.ClockMap
	dmaView   *pmem.View
	dma       *bcm283x.DMAChannelMap
	timerView *pmem.View
	timer     *bcm283x.SystemTimerMap

	pins [MaxServos]*bcm283x.Pin

	servoWidth    [MaxServos]int
	servoStart    [MaxServos]int
	servoKillTime [MaxServos]time.Time

	numCBsUsed int
}

// New brings the full engine up: maps the peripheral register blocks,
// allocates and lays out the DMA arena, captures and reprograms the
// mapped GPIO pins, builds the control-block chain and finally starts
// the pacing peripheral and the DMA channel (§4.1, §4.2). On any failure
// it unwinds whatever it already acquired before returning.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg, mapped: cfg.mappedServos()}

	base := uint64(cfg.Model.PeripheralBase())
	var err error

	if e.gpioView, err = pmem.Map(base+bcm283x.OffsetGPIO, int(reflect.TypeOf(bcm283x.GPIOMap{}).Size())); err != nil {
		return nil, errors.Wrap(err, "engine: mapping GPIO registers")
	}
	if err := e.gpioView.Slice.Struct(reflect.ValueOf(&e.gpio)); err != nil {
		e.unwindMaps()
		return nil, errors.Wrap(err, "engine: overlaying GPIO registers")
	}

	if e.pwmView, err = pmem.Map(base+bcm283x.OffsetPWM, int(reflect.TypeOf(bcm283x.PWMMap{}).Size())); err != nil {
		e.unwindMaps()
		return nil, errors.Wrap(err, "engine: mapping PWM registers")
	}
	if err := e.pwmView.Slice.Struct(reflect.ValueOf(&e.pwm)); err != nil {
		e.unwindMaps()
		return nil, errors.Wrap(err, "engine: overlaying PWM registers")
	}

	if e.pcmView, err = pmem.Map(base+bcm283x.OffsetPCM, int(reflect.TypeOf(bcm283x.PCMMap{}).Size())); err != nil {
		e.unwindMaps()
		return nil, errors.Wrap(err, "engine: mapping PCM registers")
	}
	if err := e.pcmView.Slice.Struct(reflect.ValueOf(&e.pcm)); err != nil {
		e.unwindMaps()
		return nil, errors.Wrap(err, "engine: overlaying PCM registers")
	}

	if e.clockView, err = pmem.Map(base+bcm283x.OffsetClock, bcm283x.ClockPWMCtlOffset+8); err != nil {
		e.unwindMaps()
		return nil, errors.Wrap(err, "engine: mapping clock registers")
	}
	pwmClockBytes := e.clockView.Slice[bcm283x.ClockPWMCtlOffset : bcm283x.ClockPWMCtlOffset+8]
	if err := pwmClockBytes.Struct(reflect.ValueOf(&e.pwmClock)); err != nil {
		e.unwindMaps()
		return nil, errors.Wrap(err, "engine: overlaying PWM clock registers")
	}
	pcmClockBytes := e.clockView.Slice[bcm283x.ClockPCMCtlOffset : bcm283x.ClockPCMCtlOffset+8]
	if err := pcmClockBytes.Struct(reflect.ValueOf(&e.pcmClock)); err != nil {
		e.unwindMaps()
		return nil, errors.Wrap(err, "engine: overlaying PCM clock registers")
	}

	dmaOffset := uint64(bcm283x.OffsetDMA) + uint64(bcm283x.DMAChannelOffset(cfg.DMAChannel))
	if e.dmaView, err = pmem.Map(base+dmaOffset, int(reflect.TypeOf(bcm283x.DMAChannelMap{}).Size())); err != nil {
		e.unwindMaps()
		return nil, errors.Wrap(err, "engine: mapping DMA registers")
	}
	if err := e.dmaView.Slice.Struct(reflect.ValueOf(&e.dma)); err != nil {
		e.unwindMaps()
		return nil, errors.Wrap(err, "engine: overlaying DMA registers")
	}

	if e.timerView, err = pmem.Map(base+bcm283x.OffsetSystemTimer, int(reflect.TypeOf(bcm283x.SystemTimerMap{}).Size())); err != nil {
		e.unwindMaps()
		return nil, errors.Wrap(err, "engine: mapping system timer")
	}
	if err := e.timerView.Slice.Struct(reflect.ValueOf(&e.timer)); err != nil {
		e.unwindMaps()
		return nil, errors.Wrap(err, "engine: overlaying system timer")
	}

	e.arena, err = newArena(cfg.CycleTimeUs, cfg.StepTimeUs, cfg.Model.MemFlags())
	if err != nil {
		e.unwindMaps()
		return nil, err
	}

	for _, s := range e.mapped {
		p := &bcm283x.Pin{Number: int(cfg.Servo2GPIO[s])}
		p.Capture(e.gpio)
		p.SetOutput(e.gpio, cfg.Invert)
		e.pins[s] = p
	}

	if err := e.buildControlBlocks(); err != nil {
		e.restoreGPIO()
		_ = e.arena.close()
		e.unwindMaps()
		return nil, err
	}

	e.initHardware()

	return e, nil
}

// unwindMaps closes whichever peripheral views were successfully mapped
// before a later step failed; New's error paths all funnel through here
// so a failed bring-up never leaks mmap'd pages.
func (e *Engine) unwindMaps() {
	for _, v := range []*pmem.View{e.gpioView, e.pwmView, e.pcmView, e.clockView, e.dmaView, e.timerView} {
		if v != nil {
			_ = v.Close()
		}
	}
}

// MappedServos returns the ascending list of servo indices that carry a
// GPIO mapping.
func (e *Engine) MappedServos() []int {
	return e.mapped
}

// GPIO returns the BCM GPIO number servo s drives, and whether s is
// mapped at all.
func (e *Engine) GPIO(s int) (int, bool) {
	g := e.cfg.Servo2GPIO[s]
	if g == DMY {
		return 0, false
	}
	return int(g), true
}

// Width returns servo s's current width in ticks (0 if it was set to 0 or
// is unmapped). A servo suppressed by the idle supervisor keeps its last
// width.
func (e *Engine) Width(s int) int {
	if s < 0 || s >= MaxServos {
		return 0
	}
	return e.servoWidth[s]
}

// NumSamples is the number of sample slots per cycle.
func (e *Engine) NumSamples() int {
	return e.arena.numSamples
}
