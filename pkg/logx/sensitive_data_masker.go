package logx

import (
	"regexp"
)

type SensitiveDataMaskerInterface interface {
	Mask(input []byte) []byte
}

// Patterns cover the pricing-API access key, which travels both as a query
// parameter and as a JSON field in error payloads.
//
//nolint:gochecknoglobals
var sensitiveDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)(key=)[^&\s]+()`),
	regexp.MustCompile(`(?s)("key":\s?").+?(")`),
	regexp.MustCompile(`(?s)("accessKey":\s?").+?(")`),
	regexp.MustCompile(`(?s)(Authorization: Bearer ).+?(\r)`),
}

type SensitiveDataMasker struct{}

func NewSensitiveDataMasker() SensitiveDataMasker {
	return SensitiveDataMasker{}
}

func (s SensitiveDataMasker) Mask(input []byte) []byte {
	for _, pattern := range sensitiveDataPatterns {
		input = pattern.ReplaceAll(input, []byte("${1}[MASKED]${2}"))
	}

	return input
}
