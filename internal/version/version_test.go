package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	origVersion, origSHA := Version, GitSHA
	defer func() { Version, GitSHA = origVersion, origSHA }()

	Version = "1.2.3"
	GitSHA = "abc123"
	s := String()
	if !strings.Contains(s, "1.2.3") || !strings.Contains(s, "abc123") {
		t.Errorf("String() = %q, missing version or sha", s)
	}
}
