package version

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^\d+\.\d+\.\d+`), Get())
}

func TestString(t *testing.T) {
	orig := Commit
	t.Cleanup(func() { Commit = orig })

	Commit = ""
	assert.Equal(t, Get(), String())

	Commit = "0123456789abcdef"
	assert.Equal(t, Get()+" (0123456)", String())
}
