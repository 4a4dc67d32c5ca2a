// Package types defines the shared error taxonomy of the memgraph library.
//
// Every error surfaced by the library is a [*Error] carrying an [ErrorCode].
// Callers branch on codes via [GetErrorCode] or [IsCode] rather than on
// message text.
package types
