package gpu

import "fmt"

// WriteStaging maps s, hands the view to fn, and unmaps on every return path,
// including when fn fails or panics. The view must not be retained by fn.
func WriteStaging(dev Backend, s Staging, discard bool, fn func(mem []byte) error) error {
	mem, err := dev.Map(s, discard)
	if err != nil {
		return fmt.Errorf("map staging: %w", err)
	}
	defer dev.Unmap(s)
	return fn(mem)
}

// Stage creates a one-shot staging allocation holding a copy of data. The
// caller owns the returned allocation and releases it once the copy that
// reads it has been recorded.
func Stage(dev Backend, data []byte, name string) (Staging, error) {
	s, err := dev.CreateStaging(len(data), name)
	if err != nil {
		return 0, fmt.Errorf("create staging %s: %w", name, err)
	}
	err = WriteStaging(dev, s, false, func(mem []byte) error {
		if len(mem) < len(data) {
			return fmt.Errorf("staging %s: mapped %d bytes, need %d: %w", name, len(mem), len(data), ErrOutOfRange)
		}
		copy(mem, data)
		return nil
	})
	if err != nil {
		dev.ReleaseStaging(s)
		return 0, err
	}
	return s, nil
}
