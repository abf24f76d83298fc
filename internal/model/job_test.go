package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobIDFromObjectName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"imports/companies.json", "companies"},
		{"imports/nested/dir/export.csv", "export"},
		{"companies.json", "companies"},
		{"archive.tar.gz", "archive.tar"},
		{"noextension", "noextension"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, JobIDFromObjectName(tt.name))
		})
	}
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusProcessing.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
}
