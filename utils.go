package synchrophasor

import "strings"

// putName writes a channel or station name into a 16-byte wire slot,
// truncating long names and right-padding short ones with NUL.
func putName(data []byte, name string) {
	if len(name) > ChannelNameSize {
		name = name[:ChannelNameSize]
	}
	copy(data, name)
	for i := len(name); i < ChannelNameSize; i++ {
		data[i] = 0
	}
}

// getName reads a 16-byte wire name slot. Trailing NUL padding is stripped;
// space padding written by other vendors is preserved so frames round-trip
// byte-for-byte.
func getName(data []byte) string {
	return strings.TrimRight(string(data[:ChannelNameSize]), "\x00")
}
