// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package distro reads /proc/cpuinfo to identify which bcm283x board
// revision this process is running on, the one fact the engine needs to
// pick a PLLD frequency, a mailbox memory flag set and a header pin
// table.
package distro

import (
	"io/ioutil"
	"strings"
	"sync"
	"unicode"
)

// CPUInfo returns parsed data from /proc/cpuinfo. The "Revision" key is
// the one internal/board reads.
func CPUInfo() map[string]string {
	return makeCPUInfoLinux()
}

//

var (
	mu       sync.Mutex
	cpuInfo  map[string]string
	readFile = ioutil.ReadFile
)

func splitSemiColon(content string) map[string]string {
	// Strictly speaking this format isn't ok, there can be multiple groups.
	out := map[string]string{}
	for _, line := range strings.Split(content, "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		// This format may have space around the ':'.
		key := strings.TrimRightFunc(parts[0], unicode.IsSpace)
		if len(key) == 0 || key[0] == '#' {
			continue
		}
		if _, ok := out[key]; !ok {
			// Trim on both sides, trailing space was observed on "Features".
			out[key] = strings.TrimFunc(parts[1], unicode.IsSpace)
		}
	}
	return out
}

func makeCPUInfoLinux() map[string]string {
	mu.Lock()
	defer mu.Unlock()
	if cpuInfo == nil {
		cpuInfo = map[string]string{}
		if bytes, err := readFile("/proc/cpuinfo"); err == nil {
			cpuInfo = splitSemiColon(string(bytes))
		}
	}
	return cpuInfo
}
