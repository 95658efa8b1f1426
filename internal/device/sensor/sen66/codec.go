package sen66

import (
	"encoding/binary"
	"fmt"
	"time"

	"airsense_reader/internal/types"
)

// Sensirion-Wortrahmen: jedes 16-Bit-Wort wird von einer CRC-8-Prüfsumme
// (Polynom 0x31, Initialwert 0xFF) gefolgt
const (
	crcPolynomial = 0x31
	crcInit       = 0xFF

	wordSize  = 3 // 2 Datenbytes + CRC
	dataBytes = 2
)

// crc8 berechnet die Sensirion-Prüfsumme über die Datenbytes eines Worts
func crc8(data []byte) byte {
	crc := byte(crcInit)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// writeCommand sendet ein 16-Bit-Kommando an das Gerät und wartet die
// Ausführungszeit ab
func (s *SEN66Sensor) writeCommand(cmd uint16) error {
	buf := []byte{byte(cmd >> 8), byte(cmd)}
	if err := s.dev.Tx(buf, nil); err != nil {
		return &types.TransportError{Op: fmt.Sprintf("command 0x%04X", cmd), Err: err}
	}
	time.Sleep(s.cmdDelay)
	return nil
}

// readWords sendet ein Kommando und liest n CRC-gesicherte Wörter zurück
func (s *SEN66Sensor) readWords(cmd uint16, n int) ([]uint16, error) {
	if err := s.writeCommand(cmd); err != nil {
		return nil, err
	}

	buf := make([]byte, n*wordSize)
	if err := s.dev.Tx(nil, buf); err != nil {
		return nil, &types.TransportError{Op: fmt.Sprintf("read 0x%04X", cmd), Err: err}
	}

	words := make([]uint16, n)
	for i := 0; i < n; i++ {
		frame := buf[i*wordSize : i*wordSize+wordSize]
		if crc8(frame[:dataBytes]) != frame[dataBytes] {
			return nil, &types.ParseError{
				Payload: fmt.Sprintf("% X", frame),
				Reason:  fmt.Sprintf("CRC-Fehler in Wort %d", i),
			}
		}
		words[i] = binary.BigEndian.Uint16(frame[:dataBytes])
	}

	return words, nil
}
