// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import "time"

// maxIdlePoll bounds how long the command loop ever blocks waiting for
// the next idle deadline when no servo has one pending; it mirrors the
// 60 second backstop the original idle scan used so the command loop
// still wakes periodically even with idle timeouts disabled.
const maxIdlePoll = 60 * time.Second

// updateIdleDeadline schedules servo s's next idle shutoff, to run
// IdleTimeout after this call. It does nothing if the timeout is disabled.
func (e *Engine) updateIdleDeadline(s int) {
	if e.cfg.IdleTimeout == 0 {
		return
	}
	e.servoKillTime[s] = time.Now().Add(e.cfg.IdleTimeout)
}

// setIdle suppresses servo s's pulse by clearing its turn-on mask entry,
// leaving the turn-off control block at the end of its current pulse to
// bring the line low. If the servo was already driving a 100% duty cycle
// there is no turn-off block to do that, so the GPIO is forced directly;
// every other width is left alone so a pulse never gets truncated mid
// cycle (§4.4).
func (e *Engine) setIdle(s int) {
	e.arena.turnonMask[s] = 0
	if e.servoWidth[s] == e.arena.numSamples {
		gpio, ok := e.GPIO(s)
		if !ok {
			return
		}
		if e.cfg.Invert {
			e.gpio.Set(gpio)
		} else {
			e.gpio.Clear(gpio)
		}
	}
}

// NextIdleTimeout applies any idle deadlines that have already elapsed
// and returns how long the caller may safely block before the next one
// needs attention. The command loop passes this straight to its FIFO
// poll timeout (§4.4, §5).
func (e *Engine) NextIdleTimeout() time.Duration {
	if e.cfg.IdleTimeout == 0 {
		return maxIdlePoll
	}
	now := time.Now()
	min := maxIdlePoll
	for _, s := range e.mapped {
		if e.servoKillTime[s].IsZero() {
			continue
		}
		if !e.servoKillTime[s].After(now) {
			e.servoKillTime[s] = time.Time{}
			e.setIdle(s)
			continue
		}
		if d := e.servoKillTime[s].Sub(now); d < min {
			min = d
		}
	}
	return min
}
