package checkpoint

import "testing"

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "default namespace",
			key:  Key{JobID: "abc"},
			want: "posts-sync:checkpoint:abc",
		},
		{
			name: "custom namespace",
			key:  Key{Namespace: "staging", JobID: "abc"},
			want: "staging:checkpoint:abc",
		},
		{
			name: "namespace colons trimmed",
			key:  Key{Namespace: ":staging:", JobID: "abc"},
			want: "staging:checkpoint:abc",
		},
		{
			name: "job id whitespace trimmed",
			key:  Key{JobID: " abc\n"},
			want: "posts-sync:checkpoint:abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_Deterministic(t *testing.T) {
	key := Key{JobID: "job-1"}
	first := key.String()
	for i := 0; i < 10; i++ {
		if got := key.String(); got != first {
			t.Fatalf("String() not deterministic: %q vs %q", got, first)
		}
	}
}
