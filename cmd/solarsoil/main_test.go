package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTiles_StrideExceedsTile(t *testing.T) {
	tests := map[string]struct {
		args []string
		want string
	}{
		"default stride over small tile": {
			args: []string{"tiles", "--tile", "64", "panel.jpg"},
			want: "stride 112 exceeds tile size 64",
		},
		"explicit stride over tile": {
			args: []string{"tiles", "--tile", "32", "--stride", "48", "panel.jpg"},
			want: "stride 48 exceeds tile size 32",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := run(context.Background(), tc.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"polish"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "polish"`)
}
