//go:build !unix

package generate

import "os/exec"

// killGroup is a no-op where process groups are unavailable; WaitDelay
// still bounds the wait for inherited pipes.
func killGroup(cmd *exec.Cmd) {}
