package extractor

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeSource returns source as UTF-8. A byte-order mark selects UTF-8 or
// UTF-16 of either endianness. Without one, a NUL in every other byte
// marks BOM-less UTF-16 (Windows editors write it); anything else is read
// as UTF-8.
func decodeSource(source []byte) ([]byte, error) {
	fallback := unicode.UTF8.NewDecoder()
	if e, ok := bomlessUTF16(source); ok {
		fallback = unicode.UTF16(e, unicode.IgnoreBOM).NewDecoder()
	}
	decoded, _, err := transform.Bytes(unicode.BOMOverride(fallback), source)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

func bomlessUTF16(source []byte) (unicode.Endianness, bool) {
	if len(source) < 2 || len(source)%2 != 0 {
		return unicode.BigEndian, false
	}
	var highZero, lowZero int
	for i := 0; i+1 < len(source); i += 2 {
		if source[i] == 0 {
			highZero++
		}
		if source[i+1] == 0 {
			lowZero++
		}
	}
	units := len(source) / 2
	switch {
	case highZero == 0 && 2*lowZero > units:
		return unicode.LittleEndian, true
	case lowZero == 0 && 2*highZero > units:
		return unicode.BigEndian, true
	}
	return unicode.BigEndian, false
}
