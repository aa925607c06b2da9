// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// pcm means I2S.

package bcm283x

type pcmCS uint32

// Pages 126-129.
const (
	// 31:26 reserved
	pcmStandby      pcmCS = 1 << 25 // STBY
	pcmSync         pcmCS = 1 << 24 // SYNC
	pcmRXSignExtend pcmCS = 1 << 23 // RXSEX
	pcmRXFull       pcmCS = 1 << 22 // RXF
	pcmTXEmpty      pcmCS = 1 << 21 // TXE
	pcmRXData       pcmCS = 1 << 20 // RXD
	pcmTXData       pcmCS = 1 << 19 // TXD
	pcmRXR          pcmCS = 1 << 18 // RXR
	pcmTXW          pcmCS = 1 << 17 // TXW
	pcmRXErr        pcmCS = 1 << 16 // RXERR
	pcmTXErr        pcmCS = 1 << 15 // TXERR
	pcmRXSync       pcmCS = 1 << 14 // RXSYNC
	pcmTXSync       pcmCS = 1 << 13 // TXSYNC
	// 12:10 reserved
	pcmDMAEnable pcmCS = 1 << 9 // DMAEN
	// 8:7
	pcmRXThreshold pcmCS = 1<<8 | 1<<7 // RXTHR
	// 6:5
	pcmTXThreshold pcmCS = 1<<6 | 1<<5 // TXTHR
	pcmRXClear     pcmCS = 1 << 4      // RXCLR
	pcmTXClear     pcmCS = 1 << 3      // TXCLR
	pcmTXEnable    pcmCS = 1 << 2      // TXON
	pcmRXEnable    pcmCS = 1 << 1      // RXON
	pcmEnable      pcmCS = 1 << 0      // EN
)

// PCMMap is the PCM/I2S peripheral register block at
// PeripheralBase+OffsetPCM. It is used as an alternate DREQ source to the
// PWM peripheral; only the registers needed to drive its FIFO as a pacing
// source are exposed.
type PCMMap struct {
	CS     uint32 // 0x00 CS_A
	FifoA  uint32 // 0x04 FIFO_A
	Mode   uint32 // 0x08 MODE_A
	RXC    uint32 // 0x0C RXC_A
	TXC    uint32 // 0x10 TXC_A
	DReq   uint32 // 0x14 DREQ_A
	Inten  uint32 // 0x18 INTEN_A
	IntStC uint32 // 0x1C INTSTC_A
	Gray   uint32 // 0x20 GRAY
}

// Configure brings the PCM TX FIFO up as a 32-bit-per-frame DMA-paced
// source, clearing then enabling it in the order the datasheet requires.
func (p *PCMMap) Configure() {
	p.CS = 0
	p.CS = uint32(pcmTXClear)
	p.TXC = 1<<31 | 1<<30 // CH1 enable, 8 bit width placeholder bits cleared below
	p.DReq = 64<<24 | 64<<8
	p.CS = uint32(pcmTXEnable)
	p.CS = uint32(pcmTXEnable | pcmDMAEnable)
}

// Disable stops the PCM peripheral outright.
func (p *PCMMap) Disable() {
	p.CS = 0
}

// ConfigureFIFOPaced brings the PCM TX FIFO up as the servo engine's
// alternate pacing source: a single channel, 8 bit wide frame, the mode
// divider set so one frame is consumed every stepTimeUs microseconds.
// Tx itself is left disabled; EnableTx must be called only after the DMA
// engine has been started, per the datasheet's "DMA before Tx" ordering.
func (p *PCMMap) ConfigureFIFOPaced(stepTimeUs uint32) {
	p.TXC = 1 << 30 // CH1 enable, 8 bit width
	p.Mode = stepTimeUs - 1
	p.CS = uint32(pcmTXClear)
	p.CS = 0
	p.DReq = 64<<24 | 64<<8
	p.CS = uint32(pcmDMAEnable)
}

// EnableTx turns on the transmitter after the DMA engine is already
// running and feeding the FIFO.
func (p *PCMMap) EnableTx() {
	p.CS |= uint32(pcmTXEnable)
}
