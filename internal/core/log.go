package core

// Verbosity orders log entry severities from least to most detailed,
// matching the log contract (§6.3).
type Verbosity int

const (
	VerbosityEmpty Verbosity = iota
	VerbosityError
	VerbosityWarning
	VerbosityStatus
	VerbosityProgress
	VerbosityVerify
)

// Log is the append-only, verbosity-gated log sink a Session binds (§6.3,
// §8 Context). Concrete implementations live in internal/logctx.
type Log interface {
	// Verbosity reports the configured threshold; Append is expected to
	// be a no-op for entryType > Verbosity().
	Verbosity() Verbosity
	// Append records one entry. subtype is a free-form classifier (e.g.
	// "retry", "readonly"); template/args are formatted as with fmt.Sprintf,
	// with any argument whose textual form exceeds 255 characters
	// truncated with a middle elision.
	Append(entryType Verbosity, subtype, template string, args ...any)
	// Warning appends a VerbosityWarning entry.
	Warning(template string, args ...any)
	// Status appends a VerbosityStatus entry.
	Status(template string, args ...any)
	// Exception appends a VerbosityError entry and returns an error
	// carrying the same formatted message.
	Exception(template string, args ...any) error
}
