package common

// Key codes delivered by the progress window. The values match GLFW key codes,
// which use ASCII for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyP     = 80  // P key (ASCII): pause or resume the tick loop
	KeyR     = 82  // R key (ASCII): re-sync every material follower
	KeySpace = 32  // Spacebar (ASCII): run a single frame while paused
	KeyEsc   = 256 // Escape key (GLFW): close the window
)
