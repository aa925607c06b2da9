// Copyright 2016 The PIO Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package headers maps the physical pins on the Raspberry Pi's GPIO
// headers to BCM GPIO numbers, so the command loop and status probe can
// report servo mappings in the same "header/pin" terms the board's
// silkscreen uses instead of bare GPIO numbers.
package headers

import "fmt"

// Pin is one physical position on a header.
//
// GPIO is the BCM GPIO number this position carries, or -1 if the
// position is power, ground or not connected.
type Pin struct {
	Number int
	GPIO   int
	Name   string
}

// Header is a named, ordered set of physical pin positions, e.g. "P1".
type Header struct {
	Name string
	Pins []Pin
}

// ByGPIO returns the physical pin number on this header that carries the
// given GPIO, and whether it was found.
func (h Header) ByGPIO(gpio int) (int, bool) {
	for _, p := range h.Pins {
		if p.GPIO == gpio {
			return p.Number, true
		}
	}
	return 0, false
}

// String renders the header as the board's silkscreen groups it, useful
// for the "/dev/servoblaster-cfg" pin table dump.
func (h Header) String() string {
	s := h.Name + "pins="
	for i, p := range h.Pins {
		if i > 0 {
			s += ","
		}
		if p.GPIO >= 0 {
			s += fmt.Sprintf("GPIO%d", p.GPIO)
		} else {
			s += p.Name
		}
	}
	return s
}

// P1Rev2 is the 26 pin P1 header on Raspberry Pi 1 Model B rev2 and the
// first 26 pins of every later 40 pin P1/J8 header.
//
// Physical layout and GPIO assignment grounded on the board's published
// schematics.
func P1Rev2() Header {
	return Header{Name: "P1", Pins: []Pin{
		{1, -1, "3V3"}, {2, -1, "5V"},
		{3, 2, ""}, {4, -1, "5V"},
		{5, 3, ""}, {6, -1, "GND"},
		{7, 4, ""}, {8, 14, ""},
		{9, -1, "GND"}, {10, 15, ""},
		{11, 17, ""}, {12, 18, ""},
		{13, 27, ""}, {14, -1, "GND"},
		{15, 22, ""}, {16, 23, ""},
		{17, -1, "3V3"}, {18, 24, ""},
		{19, 10, ""}, {20, -1, "GND"},
		{21, 9, ""}, {22, 25, ""},
		{23, 11, ""}, {24, 8, ""},
		{25, -1, "GND"}, {26, 7, ""},
	}}
}

// P1Rev3 is the 40 pin P1/J8 header on the Raspberry Pi 2, 3 and later
// A+/B+ boards: P1Rev2's 26 pins plus 14 more.
func P1Rev3() Header {
	h := P1Rev2()
	h.Pins = append(h.Pins,
		Pin{27, 0, ""}, Pin{28, 1, ""},
		Pin{29, 5, ""}, Pin{30, -1, "GND"},
		Pin{31, 6, ""}, Pin{32, 12, ""},
		Pin{33, 13, ""}, Pin{34, -1, "GND"},
		Pin{35, 19, ""}, Pin{36, 16, ""},
		Pin{37, 26, ""}, Pin{38, 20, ""},
		Pin{39, -1, "GND"}, Pin{40, 21, ""},
	)
	return h
}

// P5Rev1 is the 8 pin auxiliary header present only on Raspberry Pi 1
// Model B/B+ rev2 boards.
func P5Rev1() Header {
	return Header{Name: "P5", Pins: []Pin{
		{1, -1, "5V"}, {2, -1, "3V3"},
		{3, 28, ""}, {4, 29, ""},
		{5, 30, ""}, {6, 31, ""},
		{7, -1, "GND"}, {8, -1, "GND"},
	}}
}
