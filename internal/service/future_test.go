package service

import (
	"errors"
	"testing"
	"time"

	"github.com/openvitals/healthstore/pkg/types"
)

func TestFutureGetBlocksUntilResolved(t *testing.T) {
	release := make(chan struct{})
	f := run(func() (int, error) {
		<-release
		return 7, nil
	})
	close(release)
	v, err := f.Get()
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if v != 7 {
		t.Errorf("Get() = %d, want 7", v)
	}
}

func TestFutureCarriesError(t *testing.T) {
	want := errors.New("boom")
	f := run(func() (int, error) { return 0, want })
	_, err := f.Get()
	if !errors.Is(err, want) {
		t.Errorf("Get() error = %v, want %v", err, want)
	}
}

func TestFutureWaitTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	f := run(func() (int, error) {
		<-release
		return 1, nil
	})

	_, err := f.Wait(10 * time.Millisecond)
	if !errors.Is(err, types.ErrWaitTimeout) {
		t.Fatalf("Wait() = %v, want ErrWaitTimeout", err)
	}
}

func TestFutureWaitThenGet(t *testing.T) {
	release := make(chan struct{})
	f := run(func() (int, error) {
		<-release
		return 9, nil
	})

	if _, err := f.Wait(time.Millisecond); !errors.Is(err, types.ErrWaitTimeout) {
		t.Fatalf("Wait() = %v, want ErrWaitTimeout", err)
	}

	// A timed-out wait abandons that wait only; the future still resolves.
	close(release)
	v, err := f.Get()
	if err != nil {
		t.Fatalf("Get() after timeout: %v", err)
	}
	if v != 9 {
		t.Errorf("Get() = %d, want 9", v)
	}
}

func TestFutureGetIsRepeatable(t *testing.T) {
	f := run(func() (string, error) { return "x", nil })
	for i := 0; i < 3; i++ {
		v, err := f.Get()
		if err != nil || v != "x" {
			t.Fatalf("Get() #%d = %q, %v", i, v, err)
		}
	}
}
