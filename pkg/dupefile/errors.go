package dupefile

import (
	"errors"
	"io/fs"

	"github.com/ankur-anand/dupekit/pkg/dupecodec"
	"github.com/ankur-anand/dupekit/pkg/envelope"
	"github.com/ankur-anand/dupekit/pkg/validator"
)

var ErrFileTooLarge = errors.New("dupefile: file exceeds size limit")

// KindOK is the kind of a nil error.
const KindOK = "ok"

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrFileTooLarge, "file_too_large"},
	{fs.ErrNotExist, "not_found"},
	{fs.ErrPermission, "permission_denied"},
	{envelope.ErrBadMagic, "bad_magic"},
	{envelope.ErrUnsupportedLegacyFormat, "legacy_format"},
	{validator.ErrLegacyFormat, "legacy_format"},
	{envelope.ErrInvalidRevision, "invalid_revision"},
	{envelope.ErrUnsupportedRevision, "unsupported_revision"},
	{dupecodec.ErrUnsupportedRevision, "unsupported_revision"},
	{envelope.ErrRevisionNotImplemented, "revision_not_implemented"},
	{envelope.ErrTransferCorrupted, "transfer_corrupted"},
	{envelope.ErrMalformedInfoBlock, "malformed_info_block"},
	{envelope.ErrPayloadTooLarge, "payload_too_large"},
	{envelope.ErrDecompressionFailed, "decompression_failed"},
	{dupecodec.ErrTruncatedInput, "truncated_input"},
	{dupecodec.ErrUnknownTag, "unknown_tag"},
	{dupecodec.ErrDanglingReference, "dangling_reference"},
	{dupecodec.ErrMaxDepth, "max_depth"},
}

// ErrorKind maps err to a stable snake_case name for reports and metric
// tags. Errors this package does not know about are "io_error".
func ErrorKind(err error) string {
	if err == nil {
		return KindOK
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "io_error"
}

// IsLimitKind reports whether kind comes from a configured load limit rather
// than from the file's content.
func IsLimitKind(kind string) bool {
	switch kind {
	case "file_too_large", "payload_too_large", "max_depth":
		return true
	}
	return false
}
