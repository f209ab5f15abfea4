package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-c", "conf.json", "-a", "http://localhost:5000/api"},
			allowed: []string{"-c"},
			want:    []string{"-c", "conf.json"},
		},
		{
			name:    "equals form",
			args:    []string{"--config=alt.json", "-a", "x"},
			allowed: []string{"--config"},
			want:    []string{"--config=alt.json"},
		},
		{
			name:    "unknown flags and positionals dropped",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "dangling flag kept",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "next flag is not a value",
			args:    []string{"-c", "-d", "db.sqlite"},
			allowed: []string{"-c", "-d"},
			want:    []string{"-c", "-d", "db.sqlite"},
		},
		{
			name:    "repeated flag preserved in order",
			args:    []string{"-i", "5", "-i", "10"},
			allowed: []string{"-i"},
			want:    []string{"-i", "5", "-i", "10"},
		},
		{
			name:    "empty",
			args:    nil,
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/gatelog.json", ConfigPath([]string{"-c", "/etc/gatelog.json"}))
	assert.Equal(t, "long.json", ConfigPath([]string{"-a", "x", "-config", "long.json"}))
	assert.Equal(t, "eq.json", ConfigPath([]string{"--config=eq.json"}))
	assert.Equal(t, "2.json", ConfigPath([]string{"-c", "1.json", "-config", "2.json"}))
	assert.Empty(t, ConfigPath([]string{"-x", "1"}))
}
