package rnp

import "testing"

// TestPortPickerSequenceWrapsAndCountsWarmup exercises the port picker
// property spec.md §8 describes: with range [p0,p1], warmup w, total t,
// the produced sequence has length t, the first w entries have
// is_warmup=true, and successive port values wrap p0, p0+1, ..., p1, p0...
func TestPortPickerSequenceWrapsAndCountsWarmup(t *testing.T) {
	const minPort, maxPort = 5000, 5002 // 3 ports in range
	const warmup = 2
	const total = 7

	picker := NewPortPicker(minPort, maxPort, warmup, total)

	wantPorts := []uint16{5000, 5001, 5002, 5000, 5001, 5002, 5000}
	wantWarmup := []bool{true, true, false, false, false, false, false}

	for i := 0; i < total; i++ {
		port, isWarmup, ok := picker.Next()
		if !ok {
			t.Fatalf("call %d: expected ok=true, got false", i)
		}
		if port != wantPorts[i] {
			t.Errorf("call %d: port = %d, want %d", i, port, wantPorts[i])
		}
		if isWarmup != wantWarmup[i] {
			t.Errorf("call %d: isWarmup = %v, want %v", i, isWarmup, wantWarmup[i])
		}
	}

	if _, _, ok := picker.Next(); ok {
		t.Error("expected picker to be exhausted after issuing `total` entries")
	}
	if _, _, ok := picker.Next(); ok {
		t.Error("expected picker to remain exhausted on subsequent calls")
	}
}

func TestPortPickerUnboundedTotalNeverExhausts(t *testing.T) {
	picker := NewPortPicker(6000, 6000, 0, -1)
	for i := 0; i < 50; i++ {
		if _, _, ok := picker.Next(); !ok {
			t.Fatalf("call %d: unbounded picker reported exhaustion", i)
		}
	}
}

func TestPortPickerRefundRestoresBudget(t *testing.T) {
	picker := NewPortPicker(7000, 7001, 0, 1)

	if _, _, ok := picker.Next(); !ok {
		t.Fatal("expected first Next() to succeed")
	}
	if _, _, ok := picker.Next(); ok {
		t.Fatal("expected picker to be exhausted after consuming the single budgeted slot")
	}

	picker.Refund()

	if _, _, ok := picker.Next(); !ok {
		t.Error("expected Next() to succeed again after Refund()")
	}
}

func TestPortPickerConcurrentNextIsSerialized(t *testing.T) {
	const total = 500
	picker := NewPortPicker(8000, 8099, 0, total)

	seen := make(chan uint16, total)
	done := make(chan struct{})
	const workers = 10
	for w := 0; w < workers; w++ {
		go func() {
			for {
				port, _, ok := picker.Next()
				if !ok {
					done <- struct{}{}
					return
				}
				seen <- port
			}
		}()
	}

	for w := 0; w < workers; w++ {
		<-done
	}
	close(seen)

	count := 0
	for range seen {
		count++
	}
	if count != total {
		t.Errorf("expected exactly %d issued ports across all workers, got %d", total, count)
	}
}
