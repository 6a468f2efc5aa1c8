package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorLoader_Load_EmbeddedOnly(t *testing.T) {
	loader := newColorLoader(defaultsFS)
	colors, err := loader.Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "180,180,180", colors.Setup, "setup color should be light gray (#b4b4b4)")
	assert.Equal(t, "0,255,255", colors.Case, "case color should be cyan (#00ffff)")
	assert.Equal(t, "0,255,0", colors.Pass, "pass color should be green (#00ff00)")
	assert.Equal(t, "255,0,0", colors.Fail, "fail color should be red (#ff0000)")
	assert.Equal(t, "208,150,217", colors.Summary, "summary color should be light magenta (#d096d9)")
	assert.Equal(t, "255,197,109", colors.Warn, "warn color should be orange (#ffc56d)")
	assert.Equal(t, "255,0,0", colors.Error, "error color should be red (#ff0000)")
	assert.Equal(t, "138,138,138", colors.Timestamp, "timestamp color should be gray (#8a8a8a)")
}

func TestColorLoader_Load_LocalOverridesGlobal(t *testing.T) {
	tmpDir := t.TempDir()
	globalConfig := filepath.Join(tmpDir, "global-config")
	localConfig := filepath.Join(tmpDir, "local-config")

	require.NoError(t, os.WriteFile(globalConfig, []byte("color_pass = #ff0000\ncolor_error = #00ff00\n"), 0o600))
	require.NoError(t, os.WriteFile(localConfig, []byte("color_pass = #0000ff\n"), 0o600))

	loader := newColorLoader(defaultsFS)
	colors, err := loader.Load(localConfig, globalConfig)
	require.NoError(t, err)

	assert.Equal(t, "0,0,255", colors.Pass, "local overrides global")
	assert.Equal(t, "0,255,0", colors.Error, "global preserved when not overridden")
	assert.Equal(t, "0,255,255", colors.Case, "embedded default for unset color")
}

func TestColorLoader_Load_NonExistentFiles(t *testing.T) {
	loader := newColorLoader(defaultsFS)
	colors, err := loader.Load("/nonexistent/local", "/nonexistent/global")
	require.NoError(t, err)
	assert.Equal(t, "0,255,0", colors.Pass)
	assert.Equal(t, "255,0,0", colors.Fail)
}

func TestColorLoader_Load_InvalidColor(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		errPart string
	}{
		{name: "missing hash", config: "color_pass = ff0000", errPart: "color_pass"},
		{name: "wrong length", config: "color_case = #fff", errPart: "color_case"},
		{name: "invalid chars", config: "color_summary = #gggggg", errPart: "color_summary"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config")
			require.NoError(t, os.WriteFile(configPath, []byte(tc.config), 0o600))

			_, err := newColorLoader(defaultsFS).Load("", configPath)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errPart)
		})
	}
}

func TestColorLoader_parseColorsFromBytes(t *testing.T) {
	cl := &colorLoader{embedFS: defaultsFS}

	colors, err := cl.parseColorsFromBytes([]byte(`
color_setup = #010203
color_case = #040506
color_pass = #070809
color_fail = #0a0b0c
color_summary = #0d0e0f
color_warn = #101112
color_error = #131415
color_timestamp = #161718
`))
	require.NoError(t, err)
	assert.Equal(t, ColorConfig{
		Setup: "1,2,3", Case: "4,5,6", Pass: "7,8,9", Fail: "10,11,12",
		Summary: "13,14,15", Warn: "16,17,18", Error: "19,20,21", Timestamp: "22,23,24",
	}, colors)

	colors, err = cl.parseColorsFromBytes([]byte("color_pass =\n# color_fail = #ff0000\n"))
	require.NoError(t, err)
	assert.Equal(t, ColorConfig{}, colors, "empty and commented keys are ignored")
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name    string
		hex     string
		wantR   int
		wantG   int
		wantB   int
		wantErr bool
		errMsg  string
	}{
		{name: "valid red", hex: "#ff0000", wantR: 255, wantG: 0, wantB: 0},
		{name: "valid mixed case", hex: "#AaBbCc", wantR: 170, wantG: 187, wantB: 204},
		{name: "valid gray", hex: "#8a8a8a", wantR: 138, wantG: 138, wantB: 138},
		{name: "missing # prefix", hex: "ff0000", wantErr: true, errMsg: "must start with #"},
		{name: "wrong length short", hex: "#fff", wantErr: true, errMsg: "must be 7 characters"},
		{name: "wrong length long", hex: "#ff00ff00", wantErr: true, errMsg: "must be 7 characters"},
		{name: "empty string", hex: "", wantErr: true, errMsg: "must start with #"},
		{name: "invalid hex char", hex: "#zz0000", wantErr: true, errMsg: "invalid hex"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, g, b, err := parseHexColor(tc.hex)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []int{tc.wantR, tc.wantG, tc.wantB}, []int{r, g, b})
		})
	}
}

func TestColorConfig_mergeFrom(t *testing.T) {
	dst := &ColorConfig{Pass: "1,1,1", Error: "2,2,2"}
	dst.mergeFrom(&ColorConfig{Pass: "3,3,3", Case: "4,4,4", Error: ""})

	assert.Equal(t, "3,3,3", dst.Pass, "pass should be overwritten")
	assert.Equal(t, "4,4,4", dst.Case, "case should be set")
	assert.Equal(t, "2,2,2", dst.Error, "error should be preserved")
}

func TestColorLoader_parseColorsFromFile_PermissionDenied(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	configPath := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(configPath, []byte("color_pass = #ff0000"), 0o600))
	require.NoError(t, os.Chmod(configPath, 0o000))
	t.Cleanup(func() { _ = os.Chmod(configPath, 0o600) })

	_, err := (&colorLoader{embedFS: defaultsFS}).parseColorsFromFile(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
