package detection

import "path/filepath"

// hasNVIDIADriver reports whether NVIDIA device nodes are present.
var hasNVIDIADriver = func() bool {
	matches, _ := filepath.Glob("/dev/nvidia[0-9]*")
	return len(matches) > 0
}
