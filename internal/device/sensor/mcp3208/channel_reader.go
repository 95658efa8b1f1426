package mcp3208

import (
	"github.com/pkg/errors"

	"airsense_reader/internal/types"
)

// ChannelReader kapselt die rohe MCP3208-Kanaltransaktion. Er wird vom
// MCP3208-Treiber selbst benutzt und dient dem MICS6814-Analog-Frontend
// als Spannungsquelle.
type ChannelReader struct {
	spi  types.SPITransport
	vref float64
}

// NewChannelReader erstellt einen ChannelReader für einen offenen SPI-Transport
func NewChannelReader(spi types.SPITransport, vref float64) *ChannelReader {
	if vref <= 0 {
		vref = DefaultVref
	}
	return &ChannelReader{spi: spi, vref: vref}
}

// ReadRaw liest den rohen 12-Bit-Zählwert (0-4095) eines Kanals.
// Die Transaktion besteht aus drei Bytes: Startbit und Single-Ended-Modus
// plus oberstes Adressbit im ersten Byte, die unteren beiden Adressbits im
// zweiten; das Ergebnis setzt sich aus den unteren vier Bits des zweiten
// und allen acht Bits des dritten Antwortbytes zusammen.
func (r *ChannelReader) ReadRaw(channel int) (int, error) {
	if channel < minChannel || channel > maxChannel {
		return 0, &types.ConfigError{Param: "channel", Reason: "muss zwischen 0 und 7 liegen"}
	}

	cmd := []byte{
		0b00000110 | byte((channel&0b100)>>2),
		byte((channel & 0b011) << 6),
		0,
	}
	resp, err := r.spi.Transfer(cmd)
	if err != nil {
		return 0, err
	}
	if len(resp) < len(cmd) {
		return 0, errors.Errorf("unvollständige SPI-Antwort: %d von %d Bytes", len(resp), len(cmd))
	}

	return (int(resp[1]&0x0F) << 8) | int(resp[2]), nil
}

// ReadVoltage liest einen Kanal und rechnet den Zählwert in Volt um
func (r *ChannelReader) ReadVoltage(channel int) (float64, error) {
	raw, err := r.ReadRaw(channel)
	if err != nil {
		return 0, err
	}
	return ADCToVoltage(raw, r.vref), nil
}

// ADCToVoltage rechnet einen rohen Zählwert in eine Spannung um.
// Monoton steigend, 0 V bei Zählwert 0 und Vref bei Zählwert 4095.
func ADCToVoltage(raw int, vref float64) float64 {
	return (float64(raw) / float64(ADCMax)) * vref
}
