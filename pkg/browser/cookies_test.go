package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCookieHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   []Cookie
	}{
		{
			name:   "values containing equals and empty pairs",
			header: "a=1; b=x=y=z; ;c=2",
			want: []Cookie{
				{Name: "a", Value: "1", Domain: ".example.test", Path: "/"},
				{Name: "b", Value: "x=y=z", Domain: ".example.test", Path: "/"},
				{Name: "c", Value: "2", Domain: ".example.test", Path: "/"},
			},
		},
		{
			name:   "pairs without equals are dropped",
			header: "flag; session = abc ",
			want: []Cookie{
				{Name: "session", Value: "abc", Domain: ".example.test", Path: "/"},
			},
		},
		{
			name:   "empty name is dropped, empty value kept",
			header: "=orphan; empty=",
			want: []Cookie{
				{Name: "empty", Value: "", Domain: ".example.test", Path: "/"},
			},
		},
		{
			name:   "empty header",
			header: "",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCookieHeader(tt.header, ".example.test"))
		})
	}
}

func TestLaunchArgs(t *testing.T) {
	args := launchArgs([]string{"--lang=en-AU", "--no-sandbox", ""})

	assert.Equal(t, []string{
		"--no-sandbox",
		"--disable-setuid-sandbox",
		"--disable-blink-features=AutomationControlled",
		"--lang=en-AU",
	}, args)
	assert.NotEmpty(t, stealthScript)
}
