package distribution

// StorageInfo is the Drive quota of the account that owns the archives folder
type StorageInfo struct {
	TotalBytes     int64
	UsedBytes      int64
	AvailableBytes int64
}

// HasSpaceFor reports whether an upload of the given size fits
func (s StorageInfo) HasSpaceFor(bytes int64) bool {
	return s.Shortfall(bytes) == 0
}

// Shortfall returns how many bytes must be freed before an upload of the given size fits
func (s StorageInfo) Shortfall(bytes int64) int64 {
	if bytes <= s.AvailableBytes {
		return 0
	}
	return bytes - s.AvailableBytes
}
