package utils

import "testing"

func TestSanitizeFilename(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"manual.pdf", "manual.pdf"},
		{"my manual v2.pdf", "my_manual_v2.pdf"},
		{"../../etc/passwd", "passwd"},
		{"héllo wörld.pdf", "hllo_wrld.pdf"},
		{"", "file.pdf"},
		{"..", "file.pdf"},
	}

	for _, tc := range testCases {
		if got := SanitizeFilename(tc.input); got != tc.expected {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	testCases := []struct {
		size     int64
		expected string
	}{
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{2 * 1024 * 1024 * 1024, "2.00 GB"},
	}

	for _, tc := range testCases {
		if got := FormatFileSize(tc.size); got != tc.expected {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tc.size, got, tc.expected)
		}
	}
}

func TestIsPDF(t *testing.T) {
	testCases := []struct {
		filename    string
		contentType string
		expected    bool
	}{
		{"manual.pdf", "application/pdf", true},
		{"manual.pdf", "application/octet-stream", true},
		{"manual.bin", "application/pdf", true},
		{"manual.PDF", "", true},
		{"photo.png", "image/png", false},
		{"manual", "", false},
	}

	for _, tc := range testCases {
		if got := IsPDF(tc.filename, tc.contentType); got != tc.expected {
			t.Errorf("IsPDF(%q, %q) = %v, want %v", tc.filename, tc.contentType, got, tc.expected)
		}
	}
}
