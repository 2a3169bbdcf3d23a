package scheduler

import (
	"testing"
	"time"
)

func staticLookup(values map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		value, ok := values[name]
		return value, ok
	}
}

func TestDryRunEnabled(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"YES", true},
		{"on", true},
		{"false", false},
		{"0", false},
		{"", false},
	}
	for _, tc := range cases {
		got := dryRunEnabled(staticLookup(map[string]string{settingDryRun: tc.value}))
		if got != tc.want {
			t.Fatalf("value %q: got %v, want %v", tc.value, got, tc.want)
		}
	}
	if dryRunEnabled(nil) {
		t.Fatal("nil lookup must disable dry run")
	}
}

func TestPollInterval(t *testing.T) {
	if got := pollInterval(nil); got != 120*time.Second {
		t.Fatalf("default interval: %v", got)
	}
	if got := pollInterval(staticLookup(map[string]string{settingPollInterval: "30"})); got != 30*time.Second {
		t.Fatalf("explicit interval: %v", got)
	}
	if got := pollInterval(staticLookup(map[string]string{settingPollInterval: "not-a-number"})); got != 120*time.Second {
		t.Fatalf("invalid interval must fall back: %v", got)
	}
	if got := pollInterval(staticLookup(map[string]string{settingPollInterval: "-5"})); got != 120*time.Second {
		t.Fatalf("negative interval must fall back: %v", got)
	}
}
