package logx_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"arbscan/pkg/logx"
)

func TestSensitiveDataMasker(t *testing.T) {
	rq := require.New(t)

	masker := logx.NewSensitiveDataMasker()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Access key in query string",
			input:    "GET /product?key=s3cr3t-t0ken&domain=1&code=0123456789 HTTP/1.1",
			expected: "GET /product?key=[MASKED]&domain=1&code=0123456789 HTTP/1.1",
		},
		{
			name:     "Access key in JSON payload",
			input:    `{"key":"s3cr3t","domain":1}`,
			expected: `{"key":"[MASKED]","domain":1}`,
		},
		{
			name:     "Nothing sensitive",
			input:    `{"code":"0123456789","domain":3}`,
			expected: `{"code":"0123456789","domain":3}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			rq.Equal(tc.expected, string(masker.Mask([]byte(tc.input))))
		})
	}
}

func TestNopSensitiveDataMasker(t *testing.T) {
	rq := require.New(t)

	masker := logx.NewNopSensitiveDataMasker()

	input := `{"key":"s3cr3t"}`
	rq.Equal(input, string(masker.Mask([]byte(input))))
}
