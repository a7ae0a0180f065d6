package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"crlf and runs", "  ACME\r\nCo.\t\tLtd  \r\n\r\n\r\n\r\nTotal   10 ", "ACME\nCo. Ltd\n\nTotal 10"},
		{"bare cr", "a\rb", "a\nb"},
		{"nbsp", "Total\u00a0100.00", "Total 100.00"},
		{"full width digits", "Total １０７.００", "Total 107.00"},
		{"single blank kept", "a\n\nb", "a\n\nb"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNewDocument_DropsBlankLines(t *testing.T) {
	doc := NewDocument("ACME\n\n  \nTotal 10")

	assert.Equal(t, []string{"ACME", "Total 10"}, doc.Lines)
	assert.Equal(t, 2, doc.Len())
	assert.Equal(t, "total 10", doc.lowerAt(1))
}
