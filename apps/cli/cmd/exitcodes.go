package cmd

// Exit codes for rester CLI
const (
	// ExitSuccess indicates every executed request was valid
	ExitSuccess = 0

	// ExitFailure covers failed validations as well as load, transport,
	// timeout and interruption errors
	ExitFailure = 1
)
