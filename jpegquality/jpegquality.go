// Package jpegquality estimates the quality setting a JPEG file was encoded
// with by inverting the IJG scaling of its luminance quantization table.
package jpegquality

import (
	"bytes"
	"errors"
	"io"
	"math"
)

var (
	ErrInvalidJPEG  = errors.New("invalid JPEG header")
	ErrWrongTable   = errors.New("wrong size for quantization table")
	ErrShortSegment = errors.New("short segment length")
	ErrShortDQT     = errors.New("section DQT is too short")
	ErrNoDQT        = errors.New("no quantization table found")
)

const (
	markerSOI = 0xffd8
	markerEOI = 0xffd9
	markerSOS = 0xffda
	markerDQT = 0xffdb
)

// stdLuminance is the IJG base luminance quantization table (quality 50).
var stdLuminance = [64]int{
	16, 11, 10, 16, 24, 40, 51, 61,
	12, 12, 14, 19, 26, 58, 60, 55,
	14, 13, 16, 24, 40, 57, 69, 56,
	14, 17, 22, 29, 51, 87, 80, 62,
	18, 22, 37, 56, 68, 109, 103, 77,
	24, 35, 55, 64, 81, 104, 113, 92,
	49, 64, 78, 87, 103, 121, 120, 101,
	72, 92, 95, 98, 112, 100, 103, 99,
}

type jpegReader struct {
	rs io.ReadSeeker
}

// readMarker returns the next two bytes as a marker, or 0 when the stream is
// exhausted or not positioned at a marker.
func (jr *jpegReader) readMarker() int {
	var b [2]byte
	if _, err := io.ReadFull(jr.rs, b[:]); err != nil {
		return 0
	}
	if b[0] != 0xff {
		return 0
	}
	return int(b[0])<<8 | int(b[1])
}

func (jr *jpegReader) readUint16() (int, error) {
	var b [2]byte
	if _, err := io.ReadFull(jr.rs, b[:]); err != nil {
		return 0, err
	}
	return int(b[0])<<8 | int(b[1]), nil
}

// Reader holds the detected quality of one JPEG stream.
type Reader struct {
	quality int
}

// Quality returns the estimated encoder quality in [1,100].
func (r *Reader) Quality() int {
	return r.quality
}

// New parses the JPEG from rs (rewinding it first) and estimates quality.
func New(rs io.ReadSeeker) (*Reader, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	jr := &jpegReader{rs: rs}
	if jr.readMarker() != markerSOI {
		return nil, ErrInvalidJPEG
	}

	var table []int
	for {
		m := jr.readMarker()
		switch {
		case m == 0:
			return nil, ErrInvalidJPEG
		case m == markerEOI || m == markerSOS:
			if table == nil {
				return nil, ErrNoDQT
			}
			return &Reader{quality: estimate(table)}, nil
		case m >= 0xffd0 && m <= 0xffd7: // RSTn, no payload
			continue
		}

		length, err := jr.readUint16()
		if err != nil {
			return nil, err
		}
		if length < 2 {
			return nil, ErrShortSegment
		}
		payload := length - 2

		if m != markerDQT {
			if _, err := rs.Seek(int64(payload), io.SeekCurrent); err != nil {
				return nil, err
			}
			continue
		}

		data := make([]byte, payload)
		if _, err := io.ReadFull(rs, data); err != nil {
			return nil, ErrShortDQT
		}
		t, err := parseDQT(data)
		if err != nil {
			return nil, err
		}
		if t != nil {
			table = t
		}
	}
}

// NewWithBytes estimates quality from an in-memory JPEG.
func NewWithBytes(data []byte) (*Reader, error) {
	return New(bytes.NewReader(data))
}

// parseDQT extracts the luminance (id 0) table from one DQT segment, which
// may carry several tables back to back.
func parseDQT(data []byte) ([]int, error) {
	var luminance []int
	for len(data) > 0 {
		precision := int(data[0] >> 4)
		id := int(data[0] & 0x0f)
		data = data[1:]

		var vals []int
		switch precision {
		case 0:
			if len(data) < 64 {
				return nil, ErrShortDQT
			}
			vals = make([]int, 64)
			for i := range vals {
				vals[i] = int(data[i])
			}
			data = data[64:]
		case 1:
			if len(data) < 128 {
				return nil, ErrShortDQT
			}
			vals = make([]int, 64)
			for i := range vals {
				vals[i] = int(data[2*i])<<8 | int(data[2*i+1])
			}
			data = data[128:]
		default:
			return nil, ErrWrongTable
		}
		if id == 0 {
			luminance = vals
		}
	}
	return luminance, nil
}

// estimate inverts the IJG quality scaling: the encoder derives each
// coefficient as std*sf/100 where sf is 5000/q below 50 and 200-2q above, so
// the mean observed scale factor maps straight back to a quality value.
func estimate(table []int) int {
	var sum float64
	for i, v := range table {
		if v < 1 {
			v = 1
		}
		sum += float64(v*100) / float64(stdLuminance[i])
	}
	sf := sum / float64(len(table))

	var q float64
	if sf <= 100 {
		q = (200 - sf) / 2
	} else {
		q = 5000 / sf
	}
	qi := int(math.Round(q))
	if qi < 1 {
		qi = 1
	}
	if qi > 100 {
		qi = 100
	}
	return qi
}
