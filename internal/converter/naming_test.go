package converter

import "testing"

func TestVCFName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"numbers.txt", "numbers.vcf"},
		{"a.b.txt", "a.b.vcf"},
		{"noext", "noext.vcf"},
		{"C:\\Users\\me\\list.txt", "list.vcf"},
		{"dir/list.TXT", "list.vcf"},
		{"", ".vcf"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := VCFName(tt.in); got != tt.want {
				t.Errorf("VCFName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDownloadName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"list.vcf", "list.vcf"},
		{"list.vcf.vcf", "list.vcf"},
		{"LIST.VCF.VCF", "LIST.VCF"},
		{"list.VCF", "list.VCF"},
		{"list", "list.vcf"},
		{"list.txt", "list.txt.vcf"},
		{"", ".vcf"},
		{"../../etc/evil.vcf", "evil.vcf"},
		{`..\..\evil`, "evil.vcf"},
		{"/abs/path/x.vcf.vcf", "x.vcf"},
		{"..", ".vcf"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := DownloadName(tt.in)
			if got != tt.want {
				t.Errorf("DownloadName(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := DownloadName(got); again != got {
				t.Errorf("DownloadName not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"list.vcf", "list.vcf"},
		{" dir/list.vcf ", "list.vcf"},
		{`C:\tmp\list.vcf`, "list.vcf"},
		{"../../etc/passwd", "passwd"},
		{"..", ""},
		{"/", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := BaseName(tt.in); got != tt.want {
				t.Errorf("BaseName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUniqueName(t *testing.T) {
	seen := make(map[string]int)
	var got []string
	for _, name := range []string{"list.vcf", "list", "LIST.VCF", "list (2).vcf", "../other.vcf"} {
		got = append(got, UniqueName(name, seen))
	}

	want := []string{"list.vcf", "list (2).vcf", "LIST (3).vcf", "list (2) (2).vcf", "other.vcf"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("UniqueName #%d = %q, want %q", i, got[i], want[i])
		}
	}
}
