// Package fileid produces the compact, URL-safe identifier stored as the
// primary key for every indexed file. The identifier is handed back to the
// chat platform verbatim when a file is retrieved, so the binary layout and
// trailer constants must not change between releases.
package fileid

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidMediaReference is returned when an upstream media reference does
// not carry the four fields the identifier is built from.
var ErrInvalidMediaReference = errors.New("invalid media reference")

// Trailer constants expected by the platform retrieval layer. Appended after
// the packed fields, before compression.
const (
	trailerMinor = 22
	trailerMajor = 4
)

// MediaReference is the platform-native description of one media file.
type MediaReference struct {
	TypeTag    int32 `json:"type_tag"`
	DCID       int32 `json:"dc_id"`
	MediaID    int64 `json:"media_id"`
	AccessHash int64 `json:"access_hash"`
}

// Encode packs ref into the compact identifier: little-endian
// int32,int32,int64,int64 plus two trailer bytes, zero-run compressed, then
// base64url without padding. Encoding is deterministic; identifier equality
// is the de-duplication key at ingestion.
func Encode(ref MediaReference) (string, error) {
	if ref.TypeTag <= 0 || ref.MediaID == 0 {
		return "", ErrInvalidMediaReference
	}

	raw := make([]byte, 0, 26)
	raw = binary.LittleEndian.AppendUint32(raw, uint32(ref.TypeTag))
	raw = binary.LittleEndian.AppendUint32(raw, uint32(ref.DCID))
	raw = binary.LittleEndian.AppendUint64(raw, uint64(ref.MediaID))
	raw = binary.LittleEndian.AppendUint64(raw, uint64(ref.AccessHash))
	raw = append(raw, trailerMinor, trailerMajor)

	return base64.RawURLEncoding.EncodeToString(compressZeroRuns(raw)), nil
}

// compressZeroRuns replaces every run of zero bytes with a 0x00 marker
// followed by the run length. Runs longer than 255 split into multiple
// markers, so a run of exactly 256 becomes a 255 marker plus a 1 marker.
func compressZeroRuns(in []byte) []byte {
	out := make([]byte, 0, len(in))
	run := 0
	flush := func() {
		for run > 0 {
			n := run
			if n > 255 {
				n = 255
			}
			out = append(out, 0, byte(n))
			run -= n
		}
	}
	for _, b := range in {
		if b == 0 {
			run++
			continue
		}
		flush()
		out = append(out, b)
	}
	flush()
	return out
}

var mentionRe = regexp.MustCompile(`@\w+|[_\-.+]`)

// SanitizeName strips platform user mentions and maps filename separator
// characters to spaces, collapsing repeated whitespace. Applied to names and
// captions at ingestion before they are indexed.
func SanitizeName(raw string) string {
	cleaned := mentionRe.ReplaceAllString(raw, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}
