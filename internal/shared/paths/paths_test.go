package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectPath(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		app    string
		want   string
	}{
		{"simple", "/org/appswitch/apps", "Reader", "/org/appswitch/apps/reader"},
		{"spaces and dashes", "/apps", "Sketch Pad-2", "/apps/sketch_pad_2"},
		{"trailing slash prefix", "/apps/", "xochitl", "/apps/xochitl"},
		{"empty prefix", "", "Reader", DefaultPrefix + "/reader"},
		{"empty name", "/apps", "", "/apps/_"},
		{"path traversal", "/apps", "../../etc", "/apps/______etc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ObjectPath(tt.prefix, tt.app)
			assert.Equal(t, tt.want, got)
			assert.True(t, IsValid(got))
		})
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("/"))
	assert.True(t, IsValid("/org/appswitch/apps/reader_1"))
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("relative/path"))
	assert.False(t, IsValid("/trailing/"))
	assert.False(t, IsValid("/double//slash"))
	assert.False(t, IsValid("/has-dash"))
}
