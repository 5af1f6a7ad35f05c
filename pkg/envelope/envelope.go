package envelope

import (
	"bytes"
	"errors"
	"fmt"
)

const (
	// Magic opens every current-format dupe file.
	Magic = "AD2F"
	// LegacyMagic opens files written by the first-generation tool.
	LegacyMagic = "[Inf"

	// MaxRevision is the newest revision byte this package recognises.
	MaxRevision = 5

	infoOffset     = 6
	infoSeparator  = 0x01
	infoTerminator = 0x02

	CheckKey = "check"
	// CheckValue is the integrity marker of an intact file.
	CheckValue = "\r\n\t\n"
	// CheckValueASCII is what CheckValue becomes after an ASCII-mode transfer
	// rewrote its newlines.
	CheckValueASCII = "\x10\x09\x10"
)

var (
	ErrBadMagic                = errors.New("envelope: corrupted file, bad signature")
	ErrUnsupportedLegacyFormat = errors.New("envelope: legacy dupe format is not supported")
	ErrInvalidRevision         = errors.New("envelope: invalid revision")
	ErrUnsupportedRevision     = errors.New("envelope: revision is not supported")
	ErrRevisionNotImplemented  = errors.New("envelope: revision is recognised but not implemented")
	ErrMalformedInfoBlock      = errors.New("envelope: malformed info block")
	ErrTransferCorrupted       = errors.New("envelope: file corrupted in transfer (newlines homogenized); transfer dupe files in binary/image mode, not ASCII/text mode")
)

// Envelope is the parsed fixed-layout prefix of a dupe file.
type Envelope struct {
	Revision int
	Info     Info
	// Payload is the compressed remainder. It aliases the input of Parse.
	Payload []byte
	// PayloadOffset is where Payload starts in the input.
	PayloadOffset int
}

// Parse validates the signature, revision and info block of raw. Nothing is
// decompressed.
func Parse(raw []byte) (*Envelope, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadMagic, len(raw))
	}
	switch string(raw[:4]) {
	case Magic:
	case LegacyMagic:
		return nil, ErrUnsupportedLegacyFormat
	default:
		return nil, fmt.Errorf("%w: % x", ErrBadMagic, raw[:4])
	}
	if len(raw) < 5 {
		return nil, fmt.Errorf("%w: missing revision byte", ErrBadMagic)
	}

	rev := int(raw[4])
	switch {
	case rev < 1:
		return nil, fmt.Errorf("%w: %d", ErrInvalidRevision, rev)
	case rev > MaxRevision:
		return nil, fmt.Errorf("%w: %d (newest known is %d)", ErrUnsupportedRevision, rev, MaxRevision)
	case rev < 4:
		return nil, fmt.Errorf("%w: %d", ErrRevisionNotImplemented, rev)
	}

	if len(raw) <= infoOffset {
		return nil, fmt.Errorf("%w: no info block", ErrMalformedInfoBlock)
	}
	block := raw[infoOffset:]
	end := bytes.IndexByte(block, infoTerminator)
	if end < 0 {
		return nil, fmt.Errorf("%w: missing terminator", ErrMalformedInfoBlock)
	}

	info := parseInfo(block[:end])
	if err := checkIntegrity(info); err != nil {
		return nil, err
	}

	// the terminator is followed by one separator byte before the payload
	start := min(infoOffset+end+2, len(raw))
	return &Envelope{
		Revision:      rev,
		Info:          info,
		Payload:       raw[start:],
		PayloadOffset: start,
	}, nil
}

func parseInfo(block []byte) Info {
	parts := bytes.Split(block, []byte{infoSeparator})
	info := make(Info, len(parts)/2)
	for i := 0; i+1 < len(parts); i += 2 {
		info[string(parts[i])] = string(parts[i+1])
	}
	return info
}

func checkIntegrity(info Info) error {
	check, ok := info[CheckKey]
	switch {
	case !ok:
		return fmt.Errorf("%w: missing %q field", ErrMalformedInfoBlock, CheckKey)
	case check == CheckValue:
		return nil
	case check == CheckValueASCII:
		return ErrTransferCorrupted
	default:
		return fmt.Errorf("%w: unexpected %q value %q", ErrMalformedInfoBlock, CheckKey, check)
	}
}
