package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	stamped := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}

	tests := []struct {
		name string
		in   Info
		bi   *debug.BuildInfo
		want Info
	}{
		{
			name: "ldflags win",
			in:   Info{Version: "v1.0.0", Commit: "deadbeef", Date: "2026-10-01"},
			bi:   stamped,
			want: Info{Version: "v1.0.0", Commit: "deadbeef", Date: "2026-10-01"},
		},
		{
			name: "toolchain fills unset",
			in:   Info{Version: "dev", Commit: "none", Date: "unknown"},
			bi:   stamped,
			want: Info{Version: "v0.3.1", Commit: "abc123", Date: "2026-01-02T03:04:05Z"},
		},
		{
			name: "devel module version ignored",
			in:   Info{Version: "dev", Commit: "none", Date: "unknown"},
			bi:   &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			want: Info{Version: "dev", Commit: "none", Date: "unknown"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fromBuildInfo(tt.in, tt.bi); got != tt.want {
				t.Errorf("fromBuildInfo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTemplate(t *testing.T) {
	i := Get()
	if !strings.HasPrefix(Template(), "{{.Name}} version "+i.Version) {
		t.Errorf("Template() = %q", Template())
	}
	if !strings.Contains(String(), "go: "+i.Go) {
		t.Errorf("String() = %q", String())
	}
}
