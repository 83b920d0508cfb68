package txguard

import "testing"

func TestRunReturnsTrueOnSuccess(t *testing.T) {
	ran := false
	ok := Run(func() { ran = true })
	if !ok || !ran {
		t.Fatalf("Run() = %v, want true with fn executed", ok)
	}
}

func TestRunSwallowsClosedPanic(t *testing.T) {
	ok := Run(func() { panic(ClosedPanicMessage) })
	if ok {
		t.Fatal("Run() = true, want false after closed panic")
	}
}

func TestRunPropagatesOtherPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic to propagate")
		}
	}()
	Run(func() { panic("boom") })
}

func TestValueReturnsZeroOnClosedPanic(t *testing.T) {
	v, ok := Value(func() int {
		panic(ClosedPanicMessage)
	})
	if ok || v != 0 {
		t.Fatalf("Value() = (%d, %v), want (0, false)", v, ok)
	}
}

func TestValueReturnsResultOnSuccess(t *testing.T) {
	v, ok := Value(func() int { return 7 })
	if !ok || v != 7 {
		t.Fatalf("Value() = (%d, %v), want (7, true)", v, ok)
	}
}
