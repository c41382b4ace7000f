package annotation

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bold wrapper",
			in:   "**[AI ($N1)]** is **[smart ($H, $N1, $N2)]**",
			want: "[AI ($N1)] is [smart ($H, $N1, $N2)]",
		},
		{
			name: "dollar paren typo",
			in:   "[Researchers ($N7)] [working on $($L, $N1, $N7)] [HCI ($N1)]",
			want: "[Researchers ($N7)] [working on ($L, $N1, $N7)] [HCI ($N1)]",
		},
		{
			name: "space after dollar",
			in:   "[AI ($ N1)] [is ($ H, $N1, $N2)]",
			want: "[AI ($N1)] [is ($H, $N1, $N2)]",
		},
		{
			name: "space inside number",
			in:   "[AI ($N 1)]",
			want: "[AI ($N1)]",
		},
		{
			name: "lower case ids",
			in:   "[AI ($n1)] [is ($h, $n1, $n2)]",
			want: "[AI ($N1)] [is ($H, $N1, $N2)]",
		},
		{
			name: "repeated relationship",
			in:   "[A ($N1)] [is ($H, $N1, $N2)] [is ($H, $N1, $N2)]  [B ($N2)]",
			want: "[A ($N1)] [is ($H, $N1, $N2)]  [B ($N2)]",
		},
		{
			name: "different relationships kept",
			in:   "[is ($H, $N1, $N2)] [is ($H, $N1, $N3)]",
			want: "[is ($H, $N1, $N2)] [is ($H, $N1, $N3)]",
		},
		{
			name: "plain text untouched",
			in:   "It costs $ 5 and **bold** text.",
			want: "It costs $ 5 and **bold** text.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			if got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if again := Normalize(got); again != got {
				t.Fatalf("Normalize is not idempotent: %q -> %q", got, again)
			}
		})
	}
}
