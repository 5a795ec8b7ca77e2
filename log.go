package memsentry

import "log"

// logInternalError reports a tracking-system bug (not a caller error) and
// continues, per SPEC_FULL.md §7. This is the only diagnostic path in the
// whole module; nothing in the retrieval pack imports a structured logging
// library for an equivalently rare event, so it stays on the standard
// library.
func logInternalError(format string, args ...any) {
	log.Printf(format, args...)
}
