package texsync

// Stats accumulates what a Synchronizer sent to its texture cache.
type Stats struct {
	// Frames is the number of Sync calls, including idle ones.
	Frames int
	// Idle counts frames with nothing to upload.
	Idle int

	SparseFrames int
	RegionFrames int
	FullFrames   int

	// Patches counts ApplyPatch calls; full replaces are not patches.
	Patches int

	// PixelsUploaded is the total number of cells sent through ApplyPatch
	// and ApplyFull. Initial images passed to Allocate are not counted.
	PixelsUploaded int

	// Resizes counts texture reallocations.
	Resizes int
}

// Saved returns how many cell uploads the damage tracking avoided compared
// to replacing the whole texture on every non-idle frame of a canvas with
// cells cells.
func (s Stats) Saved(cells int) int {
	naive := (s.Frames - s.Idle) * cells
	return max(naive-s.PixelsUploaded, 0)
}
