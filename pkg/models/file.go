package models

import "github.com/dustin/go-humanize"

// FileRecord is one media file known to the index. Records are immutable
// after creation; the ID doubles as the deep-link token handed back to the
// chat platform for retrieval.
type FileRecord struct {
	ID      string `json:"_id"`
	Name    string `json:"file_name"`
	Size    int64  `json:"file_size"`
	Caption string `json:"caption,omitempty"`
}

// HumanSize renders the byte count for display ("1.4 GB").
func (f FileRecord) HumanSize() string {
	if f.Size < 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(f.Size))
}
