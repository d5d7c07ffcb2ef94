package defaults

// Exit codes for the CLI.
const (
	ExitSuccess       = 0 // Comparison rendered, no problems
	ExitUserError     = 2 // Invalid arguments or selection (fewer than 2 ids, over the cap)
	ExitFetchError    = 3 // Reporting service unreachable or report missing
	ExitInternalError = 4 // Unexpected internal error
)
