package utils

import "testing"

func TestFormatFileSize(t *testing.T) {
	cases := map[int64]string{
		0:                "0 B",
		1023:             "1023 B",
		1024:             "1.0 KiB",
		100000:           "97.7 KiB",
		64 * 1024 * 1024: "64.0 MiB",
		3 << 30:          "3.0 GiB",
	}
	for size, want := range cases {
		if got := FormatFileSize(size); got != want {
			t.Fatalf("FormatFileSize(%d) = %q, want %q", size, got, want)
		}
	}
}
