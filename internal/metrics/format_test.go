package metrics

import "testing"

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{61, "00:01:01"},
		{3600, "01:00:00"},
		{86399, "23:59:59"},
		{360000, "100:00:00"},
		{-3, "00:00:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "00 b/s"},
		{-1, "00 b/s"},
		{512, "512 B/s"},
		{1536, "1.5 KiB/s"},
		{1048576, "1.0 MiB/s"},
	}
	for _, tt := range tests {
		if got := FormatRate(tt.in); got != tt.want {
			t.Errorf("FormatRate(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDirection(t *testing.T) {
	if got := FormatDownload(0); got != "↓ 00 b/s" {
		t.Errorf("FormatDownload(0) = %q", got)
	}
	if got := FormatUpload(0); got != "↑ 00 b/s" {
		t.Errorf("FormatUpload(0) = %q", got)
	}
	if got := FormatDownload(1536); got != "↓ 1.5 KiB/s" {
		t.Errorf("FormatDownload(1536) = %q", got)
	}
}
