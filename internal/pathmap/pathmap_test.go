package pathmap

import "testing"

func TestNewRuleValidation(t *testing.T) {
	if _, err := NewRule("etc/letsencrypt", "/host"); err == nil {
		t.Error("relative container prefix accepted")
	}
	if _, err := NewRule("/etc/letsencrypt", "host"); err == nil {
		t.Error("relative host prefix accepted")
	}
	if _, err := NewRule("/etc/letsencrypt", "/host"); err != nil {
		t.Errorf("valid rule rejected: %v", err)
	}
}

func TestTranslate(t *testing.T) {
	rule, err := NewRule("/etc/letsencrypt", "/var/lib/docker/volumes/npm_letsencrypt/_data")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{
			name: "lineage under prefix",
			in:   "/etc/letsencrypt/live/npm-2",
			want: "/var/lib/docker/volumes/npm_letsencrypt/_data/live/npm-2",
		},
		{
			name: "prefix itself",
			in:   "/etc/letsencrypt",
			want: "/var/lib/docker/volumes/npm_letsencrypt/_data",
		},
		{
			name: "trailing slash and dots are cleaned",
			in:   "/etc/letsencrypt/live/../live/npm-2/",
			want: "/var/lib/docker/volumes/npm_letsencrypt/_data/live/npm-2",
		},
		{name: "outside prefix", in: "/data/nginx", wantErr: true},
		{name: "escapes via dotdot", in: "/etc/letsencrypt/../shadow", wantErr: true},
		{name: "relative path", in: "live/npm-2", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rule.Translate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Translate(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Translate(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Translate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
