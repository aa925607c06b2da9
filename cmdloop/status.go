// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cmdloop

import (
	"log"
	"os"
)

const dmaDeadMessage = "ERROR: DMA not running\n"

// status implements the "status <path>" command (§6, §7): probe the DMA
// channel and write a one-line verdict to the given file. A probe
// failure is reported via this file, never by terminating the loop —
// hardware-health errors are recoverable by definition (§7).
func (l *Loop) status(path string) {
	alive := l.eng.IsAlive()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		log.Printf("cmdloop: failed to open %s for writing: %s", path, err)
		return
	}
	defer f.Close()

	if alive {
		f.WriteString("OK\n")
	} else {
		f.WriteString(dmaDeadMessage)
	}
}
