// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cmdloop

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// widthSign is how a width argument's leading character (if any) relates
// the new width to the servo's current one.
type widthSign int

const (
	signAbsolute widthSign = iota
	signRelativePlus
	signRelativeMinus
)

// parseWidth implements the "<width>" grammar from §6: an optional
// leading sign, a decimal number, then an optional "us" or "%" suffix.
// current/min/max/stepTimeUs let relative and unit-suffixed forms resolve
// to a tick count without the caller knowing which form was used.
func parseWidth(raw string, current, min, max, stepTimeUs int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("cmdloop: empty width")
	}

	sign := signAbsolute
	digits := raw
	switch raw[0] {
	case '+':
		sign = signRelativePlus
		digits = raw[1:]
	case '-':
		sign = signRelativeMinus
		digits = raw[1:]
	}
	if digits == "" || digits[0] < '0' || digits[0] > '9' {
		return 0, errors.Errorf("cmdloop: invalid width %q", raw)
	}

	numeric := digits
	var unit string
	switch {
	case strings.HasSuffix(digits, "us"):
		numeric, unit = digits[:len(digits)-2], "us"
	case strings.HasSuffix(digits, "%"):
		numeric, unit = digits[:len(digits)-1], "%"
	}
	val, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "cmdloop: invalid width %q", raw)
	}

	switch unit {
	case "us":
		val /= float64(stepTimeUs)
	case "%":
		val = val*float64(max-min)/100.0 + float64(min)
	}
	val = math.Floor(val)
	width := int(val)

	switch sign {
	case signRelativePlus:
		width = current + width
		if width > max {
			width = max
		}
	case signRelativeMinus:
		width = current - width
		if width < min {
			width = min
		}
	}

	if width == 0 {
		return 0, nil
	}
	if width < min || width > max {
		return 0, errors.Errorf("cmdloop: width %d out of range [%d, %d]", width, min, max)
	}
	return width, nil
}
