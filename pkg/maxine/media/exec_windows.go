//go:build windows

package media

import "os/exec"

func setProcessGroup(*exec.Cmd) {}
