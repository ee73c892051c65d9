package main

// Exit codes.
const (
	ExitSuccess     = 0 // No problems found
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (invalid config file or flags)
	ExitDataError   = 3 // Data error (unreadable or unparseable input)
	ExitIssuesFound = 4 // Duplicates or unverified entries were found
)
