// Package procexec runs external tools from an argument vector.
//
// Commands are never composed into a shell string: the binary and each
// argument are handed to the operating system as-is, so file names with
// spaces, quotes, or shell metacharacters cannot change what runs. Command
// lines are rendered with shell quoting only for diagnostics.
//
// Runner is the seam the pipeline depends on; tests substitute a fake runner
// that records invocations and fabricates the files a real tool would write.
package procexec
