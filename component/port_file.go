package component

import "fmt"

// FilePort - recorder output on the local filesystem
type FilePort struct {
	Path string `json:"path"`
}

// ResourceID keys file ports by path.
func (f FilePort) ResourceID() string {
	return fmt.Sprintf("file:%s", f.Path)
}

// IsExclusive is true: two recorders appending to one file would
// interleave lines.
func (f FilePort) IsExclusive() bool {
	return true
}

// Type returns the port type tag used in serialized port configs.
func (f FilePort) Type() string {
	return "file"
}
