package navstream

import (
	"fmt"
	"io"

	"github.com/javi11/dvdnavstream/internal/nav"
)

// SeekSize is the whence value asking Seek for the stream length without
// moving.
const SeekSize = 0x10000

// Seek converts a byte offset into a sector seek. It returns the position
// held before the seek, in bytes; the engine is not queried again after
// repositioning. With SeekSize it returns the length without seeking.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if s.engine == nil {
		return 0, ErrInvalidState
	}

	pos, length, err := s.engine.Position()
	if err != nil {
		return 0, engineErr("position", ErrIOFailure, err)
	}
	size := int64(length) * nav.BlockSize

	switch whence {
	case io.SeekStart, io.SeekCurrent, io.SeekEnd:
		if whence == io.SeekEnd && pos == nav.PositionUnknown {
			return size, nil
		}

		sector := offset / nav.BlockSize
		if err := s.engine.SectorSeek(sector, whence); err != nil {
			return 0, engineErr("sector seek", ErrIOFailure, err)
		}
		s.pending = nil

		s.log.Debug("Sector seek", "sector", sector, "whence", whence, "from", pos)

		if pos == nav.PositionUnknown {
			return 0, nil
		}
		return int64(pos) * nav.BlockSize, nil

	case SeekSize:
		return size, nil

	default:
		return 0, fmt.Errorf("navstream: invalid whence %d", whence)
	}
}

// Size returns the title length in bytes.
func (s *Stream) Size() (int64, error) {
	return s.Seek(0, SeekSize)
}
