package synchrophasor

import "github.com/sigurn/crc16"

// CRC-CCITT as specified by IEEE C37.118: x^16+x^12+x^5+1, initial value
// 0xFFFF, no reflection, no final XOR.
var c37118CRCParams = crc16.Params{
	Poly:   0x1021,
	Init:   0xFFFF,
	RefIn:  false,
	RefOut: false,
	XorOut: 0x0000,
	Name:   "CRC-16/IEEE-C37.118",
}

var c37118CRCTable = crc16.MakeTable(c37118CRCParams)

// CalcCRC computes the frame checksum over data. Callers pass every byte
// preceding the trailing 2-byte CRC field.
func CalcCRC(data []byte) uint16 {
	return crc16.Checksum(data, c37118CRCTable)
}
