package device

import (
	"fmt"
	"testing"
)

// setupBenchRegistry creates a registry pre-populated with n devices.
func setupBenchRegistry(b *testing.B, n int) *Registry {
	b.Helper()
	reg := NewRegistry()
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("dev-%04d", i)
		if _, err := reg.Put(name, &fakeMotor{name: name}); err != nil {
			b.Fatalf("registering device %d: %v", i, err)
		}
	}
	return reg
}

func BenchmarkRegistryGet(b *testing.B) {
	reg := setupBenchRegistry(b, 500)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.Get("dev-0250")
	}
}

func BenchmarkRegistryEntries(b *testing.B) {
	reg := setupBenchRegistry(b, 500)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = reg.Entries()
	}
}
