package db

import "testing"

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"url form untouched",
			"postgres://u:p@localhost:5432/invoices?sslmode=disable",
			"postgres://u:p@localhost:5432/invoices?sslmode=disable",
		},
		{
			"quoted url",
			`"postgresql://u:p@localhost/invoices"`,
			"postgresql://u:p@localhost/invoices",
		},
		{
			"key value gains sslmode",
			"host=localhost user=u dbname=invoices",
			"host=localhost user=u dbname=invoices sslmode=disable",
		},
		{
			"key value keeps sslmode",
			"host=localhost sslmode=require",
			"host=localhost sslmode=require",
		},
		{
			"collapses whitespace",
			"  host=localhost    user=u  ",
			"host=localhost user=u sslmode=disable",
		},
		{
			"unrecognized passthrough",
			"mysql://whatever",
			"mysql://whatever",
		},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDSN(tt.raw); got != tt.want {
				t.Errorf("NormalizeDSN(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
