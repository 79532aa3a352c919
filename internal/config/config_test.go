package config

import (
	"testing"
)

func TestNormalizeDirArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no trailing slash", "/media/library", "/media/library"},
		{"single trailing slash", "/media/library/", "/media/library"},
		{"multiple trailing slashes", "/media/library///", "/media/library"},
		{"root path", "/", "/"},
		{"relative path", "normalized", "normalized"},
		{"relative with slash", "normalized/", "normalized"},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDirArg(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeDirArg(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate_Mode(t *testing.T) {
	tests := []struct {
		name    string
		mode    NormMode
		wantErr bool
	}{
		{"single is valid", ModeSingle, false},
		{"two-pass is valid", ModeTwoPass, false},
		{"empty is invalid", "", true},
		{"unknown is invalid", "three-pass", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CheckOnly = true // skip input requirement
			cfg.Mode = tt.mode
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ColorMode(t *testing.T) {
	tests := []struct {
		name    string
		mode    ColorMode
		wantErr bool
	}{
		{"auto is valid", ColorAuto, false},
		{"always is valid", ColorAlways, false},
		{"never is valid", ColorNever, false},
		{"unknown is invalid", "sometimes", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CheckOnly = true
			cfg.ColorMode = tt.mode
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_LoudnessRanges(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(*Config) {}, false},
		{"target I too loud", func(c *Config) { c.TargetI = -4 }, true},
		{"target I too quiet", func(c *Config) { c.TargetI = -71 }, true},
		{"streaming target", func(c *Config) { c.TargetI = -14 }, false},
		{"true peak positive", func(c *Config) { c.TargetTP = 0.5 }, true},
		{"true peak too low", func(c *Config) { c.TargetTP = -10 }, true},
		{"LRA zero", func(c *Config) { c.TargetLRA = 0 }, true},
		{"LRA too wide", func(c *Config) { c.TargetLRA = 51 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CheckOnly = true
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Jobs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = true
	cfg.Jobs = 0
	if err := cfg.Validate(); err == nil {
		t.Error("jobs below 1 should be rejected")
	}
}

func TestValidate_AudioBitrate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain number", "256", "256k", false},
		{"k suffix", "256k", "256k", false},
		{"uppercase K", "192K", "192k", false},
		{"kbps suffix", "128kbps", "128k", false},
		{"padded", " 320k ", "320k", false},
		{"empty", "", "", true},
		{"zero", "0", "", true},
		{"garbage", "lots", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CheckOnly = true
			cfg.AudioBitrate = tt.in
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && cfg.AudioBitrate != tt.want {
				t.Errorf("bitrate normalized to %q, want %q", cfg.AudioBitrate, tt.want)
			}
		})
	}
}

func TestValidate_RequiresInputs(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("no inputs should be rejected outside check mode")
	}

	cfg.Inputs = []string{"/media/in"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with inputs: %v", err)
	}
}
