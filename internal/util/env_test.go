package util

import (
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("ANNOGRAPH_TEST_NUM", "12")
	t.Setenv("ANNOGRAPH_TEST_BAD", "x")
	t.Setenv("ANNOGRAPH_TEST_BOOL", "true")
	t.Setenv("ANNOGRAPH_TEST_DUR", "250ms")
	t.Setenv("ANNOGRAPH_TEST_EMPTY", "")

	if got := GetEnvInt("ANNOGRAPH_TEST_NUM", 1); got != 12 {
		t.Fatalf("GetEnvInt() = %d", got)
	}
	if got := GetEnvNumeric("ANNOGRAPH_TEST_BAD", 3); got != 3 {
		t.Fatalf("GetEnvNumeric() of invalid value = %v", got)
	}
	if !GetEnvBool("ANNOGRAPH_TEST_BOOL", false) || GetEnvBool("ANNOGRAPH_TEST_BAD", false) {
		t.Fatalf("GetEnvBool() mismatch")
	}
	if got := GetEnvDuration("ANNOGRAPH_TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Fatalf("GetEnvDuration() = %v", got)
	}
	if got := GetEnvDuration("ANNOGRAPH_TEST_BAD", time.Second); got != time.Second {
		t.Fatalf("GetEnvDuration() of invalid value = %v", got)
	}
	if got := GetEnvString("ANNOGRAPH_TEST_EMPTY", "fallback"); got != "fallback" {
		t.Fatalf("GetEnvString() of empty value = %q", got)
	}
	if got := GetEnv("ANNOGRAPH_TEST_MISSING"); got != "" {
		t.Fatalf("GetEnv() of missing key = %q", got)
	}
}
