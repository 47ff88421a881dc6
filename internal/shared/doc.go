// Package shared holds helpers used by more than one claimpulse package that
// carry no domain logic of their own.
//
// The testutil subpackage provides:
//
//   - a capturing slog handler for asserting on log output
//   - RawRow and workbook builders for loader and engine tests
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    // ... exercise code with logger
//	    testutil.AssertLogContains(t, logs, slog.LevelWarn, "window dropped")
//	}
package shared
