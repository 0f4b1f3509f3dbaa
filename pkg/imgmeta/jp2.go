package imgmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

var (
	jp2Signature = []byte{0x00, 0x00, 0x00, 0x0C, 0x6A, 0x50, 0x20, 0x20, 0x0D, 0x0A, 0x87, 0x0A}
	j2kSOC       = []byte{0xFF, 0x4F} // start of raw codestream
)

// jp2Dimensions reads the width and height from a JPEG 2000 file, either a
// jp2 container (signature box, then an ihdr box inside the jp2h superbox)
// or a raw codestream (SIZ marker segment).
func jp2Dimensions(r io.Reader) (int, int, error) {
	// Headers sit in the first few boxes; 64KB is generous.
	head := make([]byte, 64*1024)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return 0, 0, err
	}
	head = head[:n]

	if bytes.HasPrefix(head, j2kSOC) {
		return j2kSizDimensions(head)
	}
	if !bytes.HasPrefix(head, jp2Signature) {
		return 0, 0, fmt.Errorf("not a JPEG 2000 stream")
	}

	ihdr, err := findBox(head[len(jp2Signature):], "jp2h", "ihdr")
	if err != nil {
		return 0, 0, err
	}
	if len(ihdr) < 8 {
		return 0, 0, fmt.Errorf("truncated ihdr box")
	}
	height := int(binary.BigEndian.Uint32(ihdr[0:4]))
	width := int(binary.BigEndian.Uint32(ihdr[4:8]))
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid ihdr dimensions %dx%d", width, height)
	}
	return width, height, nil
}

// findBox walks a box sequence for the superbox named outer, then returns
// the contents of the box named inner within it.
func findBox(data []byte, outer, inner string) ([]byte, error) {
	for len(data) >= 8 {
		length := int(binary.BigEndian.Uint32(data[0:4]))
		boxType := string(data[4:8])
		contentStart := 8
		switch length {
		case 0:
			length = len(data) // box extends to end of stream
		case 1:
			if len(data) < 16 {
				return nil, fmt.Errorf("truncated extended box header")
			}
			length = int(binary.BigEndian.Uint64(data[8:16]))
			contentStart = 16
		}
		if length < contentStart || length > len(data) {
			length = len(data)
		}
		content := data[contentStart:length]
		if boxType == outer {
			return findInnerBox(content, inner)
		}
		data = data[length:]
	}
	return nil, fmt.Errorf("no %s box found", outer)
}

func findInnerBox(data []byte, name string) ([]byte, error) {
	for len(data) >= 8 {
		length := int(binary.BigEndian.Uint32(data[0:4]))
		boxType := string(data[4:8])
		if length < 8 || length > len(data) {
			length = len(data)
		}
		if boxType == name {
			return data[8:length], nil
		}
		data = data[length:]
	}
	return nil, fmt.Errorf("no %s box found", name)
}

// j2kSizDimensions reads Xsiz/Ysiz from the SIZ segment that must directly
// follow the SOC marker in a raw codestream.
func j2kSizDimensions(data []byte) (int, int, error) {
	// SOC (2) + SIZ marker (2) + Lsiz (2) + Rsiz (2) + Xsiz (4) + Ysiz (4)
	// + XOsiz (4) + YOsiz (4)
	if len(data) < 24 || data[2] != 0xFF || data[3] != 0x51 {
		return 0, 0, fmt.Errorf("no SIZ segment after SOC marker")
	}
	xsiz := int(binary.BigEndian.Uint32(data[8:12]))
	ysiz := int(binary.BigEndian.Uint32(data[12:16]))
	xosiz := int(binary.BigEndian.Uint32(data[16:20]))
	yosiz := int(binary.BigEndian.Uint32(data[20:24]))
	width := xsiz - xosiz
	height := ysiz - yosiz
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid SIZ dimensions %dx%d", width, height)
	}
	return width, height, nil
}
