package libzfs

import (
	"encoding/binary"
	"errors"
	"io/fs"

	"github.com/firefly-engineering/beadm/internal/system"
)

// ReadHostID reads a 4-byte little-endian host id file such as /etc/hostid.
// A missing or short file is reported as absent, not as an error.
func ReadHostID(fsys system.FileSystem, path string) (uint32, bool, error) {
	data, err := fsys.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if len(data) < 4 {
		return 0, false, nil
	}
	return binary.LittleEndian.Uint32(data[:4]), true, nil
}
