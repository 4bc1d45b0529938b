package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "plain tags removed",
			html:     "<p>hello <b>world</b></p>",
			expected: "hello world",
		},
		{
			name:     "script and style dropped",
			html:     "<style>.a{color:red}</style><script>alert(1)</script><p>body</p>",
			expected: "body",
		},
		{
			name:     "block closers become line breaks",
			html:     "<div>first</div><div>second</div>",
			expected: "first\nsecond",
		},
		{
			name:     "entities decoded",
			html:     "Tom &amp; Jerry&nbsp;&mdash;&nbsp;classic",
			expected: "Tom & Jerry — classic",
		},
		{
			name:     "empty input",
			html:     "",
			expected: "",
		},
		{
			name:     "excess blank lines collapsed",
			html:     "<p>a</p><br><br><br><p>b</p>",
			expected: "a\n\nb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripHTML(tt.html))
		})
	}
}
