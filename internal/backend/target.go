package backend

import (
	"fmt"
	"runtime"
	"strings"
)

// Target names the operating system and architecture a backend generates
// code for.
type Target struct {
	OS   string
	Arch string
}

func (t Target) String() string {
	return t.OS + "/" + t.Arch
}

// NativeTarget is the target of the machine the compiler itself runs on.
func NativeTarget() Target {
	return Target{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// ParseTarget reads an os/arch pair such as "linux/amd64".
func ParseTarget(s string) (Target, error) {
	osName, arch, ok := strings.Cut(s, "/")
	if !ok || osName == "" || arch == "" {
		return Target{}, fmt.Errorf("backend: malformed target %q, want os/arch", s)
	}
	return Target{OS: osName, Arch: arch}, nil
}
