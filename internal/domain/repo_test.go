package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoURL(t *testing.T) {
	testCases := []struct {
		name          string
		url           string
		expectedOwner string
		expectedName  string
		expectError   bool
	}{
		{
			name:          "plain repository URL",
			url:           "https://github.com/acme/widgets",
			expectedOwner: "acme",
			expectedName:  "widgets",
		},
		{
			name:          "trailing slash",
			url:           "https://github.com/acme/widgets/",
			expectedOwner: "acme",
			expectedName:  "widgets",
		},
		{
			name:        "missing repository name",
			url:         "https://github.com/acme",
			expectError: true,
		},
		{
			name:        "no path at all",
			url:         "https://github.com",
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			owner, name, err := ParseRepoURL(tc.url)

			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedOwner, owner)
			assert.Equal(t, tc.expectedName, name)
		})
	}
}
