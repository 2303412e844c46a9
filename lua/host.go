package lua

// Host provides the bridge between Engine and the rest of the system.
// This abstraction decouples Engine from specific implementations,
// making it testable without full infrastructure.
type Host interface {
	// Print delivers script output to the user.
	Print(text string)

	// Quit asks the host loop to shut down.
	Quit()
}
