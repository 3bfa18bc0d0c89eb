package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCommunityName(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateCommunityName("Green Acres"))
	assert.Error(t, ValidateCommunityName("ab"))
	assert.Error(t, ValidateCommunityName("  a  "))
}

func TestValidateZipCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		zip     string
		wantErr bool
	}{
		{"600001", false},
		{"SW1A 1AA", false},
		{"12345-6789", false},
		{"12345", true},
		{"", true},
		{"60@001", true},
	}
	for _, tt := range tests {
		t.Run(tt.zip, func(t *testing.T) {
			err := ValidateZipCode(tt.zip)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeCommunityCode(t *testing.T) {
	t.Parallel()
	code := NormalizeCommunityCode("  ab12cd ")
	assert.Equal(t, "AB12CD", code)
	assert.NoError(t, ValidateCommunityCode(code))

	assert.Error(t, ValidateCommunityCode("ab12cd"))
	assert.Error(t, ValidateCommunityCode("AB12C"))
	assert.Error(t, ValidateCommunityCode("AB-2CD"))
}
