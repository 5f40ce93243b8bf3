package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveEncryptionStatus(t *testing.T) {
	tests := []struct {
		name        string
		encrypted   int
		unencrypted int
		expected    EncryptionStatus
	}{
		{name: "no entries", encrypted: 0, unencrypted: 0, expected: EncryptionNone},
		{name: "all plain", encrypted: 0, unencrypted: 7, expected: EncryptionNone},
		{name: "all encrypted", encrypted: 3, unencrypted: 0, expected: EncryptionAll},
		{name: "mixed", encrypted: 2, unencrypted: 5, expected: EncryptionPartial},
		{name: "single encrypted", encrypted: 1, unencrypted: 0, expected: EncryptionAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveEncryptionStatus(tt.encrypted, tt.unencrypted))
		})
	}
}
