package storage

import (
	"testing"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Location
	}{
		{
			name: "relative path",
			raw:  "./data",
			want: Location{Scheme: "file", Path: "./data"},
		},
		{
			name: "absolute path",
			raw:  "/tmp/data",
			want: Location{Scheme: "file", Path: "/tmp/data"},
		},
		{
			name: "file URL",
			raw:  "file:///app/data",
			want: Location{Scheme: "file", Path: "/app/data"},
		},
		{
			name: "s3 with prefix",
			raw:  "s3://bucket/prefix/path",
			want: Location{Scheme: "s3", Bucket: "bucket", Prefix: "prefix/path"},
		},
		{
			name: "s3 without prefix",
			raw:  "s3://bucket",
			want: Location{Scheme: "s3", Bucket: "bucket", Prefix: ""},
		},
		{
			name: "unknown scheme is not rejected by the resolver",
			raw:  "ftp://example.com/data",
			want: Location{Scheme: "ftp", Bucket: "example.com", Prefix: "data"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLocation(tt.raw)
			if got != tt.want {
				t.Errorf("ParseLocation(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"./data", "file://./data"},
		{"/tmp/data", "file:///tmp/data"},
		{"file:///tmp/data", "file:///tmp/data"},
		{"s3://bucket/prefix", "s3://bucket/prefix"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
