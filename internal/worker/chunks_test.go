package worker

import (
	"context"
	"errors"
	"testing"
)

func TestSplitRange(t *testing.T) {
	tests := []struct {
		name      string
		from, to  uint64
		chunkSize uint64
		want      []BlockRange
	}{
		{"single chunk", 100, 109, 50, []BlockRange{{100, 109}}},
		{"exact chunks", 100, 119, 10, []BlockRange{{100, 109}, {110, 119}}},
		{"ragged tail", 100, 124, 10, []BlockRange{{100, 109}, {110, 119}, {120, 124}}},
		{"one block", 100, 100, 10, []BlockRange{{100, 100}}},
		{"zero chunk size", 100, 200, 0, []BlockRange{{100, 200}}},
		{"inverted", 200, 100, 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitRange(tt.from, tt.to, tt.chunkSize)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d chunks, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScanChunks_MergesInBlockOrder(t *testing.T) {
	// Each chunk reports its own block numbers; the merged slice must be
	// monotonic regardless of completion order.
	fn := func(ctx context.Context, from, to uint64) ([]uint64, error) {
		var out []uint64
		for b := from; b <= to; b++ {
			out = append(out, b)
		}
		return out, nil
	}

	got, err := ScanChunks(context.Background(), 100, 199, 10, 4, fn)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(got) != 100 {
		t.Fatalf("got %d blocks, want 100", len(got))
	}
	for i, b := range got {
		if b != 100+uint64(i) {
			t.Fatalf("block %d = %d, out of order", i, b)
		}
	}
}

func TestScanChunks_JoinsChunkErrors(t *testing.T) {
	sentinel := errors.New("rate limited")
	fn := func(ctx context.Context, from, to uint64) ([]uint64, error) {
		if from >= 120 {
			return nil, sentinel
		}
		return []uint64{from}, nil
	}

	_, err := ScanChunks(context.Background(), 100, 139, 10, 2, fn)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("joined error does not wrap chunk error: %v", err)
	}
}

func TestScanChunks_InvertedRange(t *testing.T) {
	fn := func(ctx context.Context, from, to uint64) ([]uint64, error) { return nil, nil }
	if _, err := ScanChunks(context.Background(), 200, 100, 10, 2, fn); err == nil {
		t.Errorf("expected error for inverted range")
	}
}

func TestScanChunks_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fn := func(ctx context.Context, from, to uint64) ([]uint64, error) {
		return []uint64{from}, ctx.Err()
	}
	if _, err := ScanChunks(ctx, 100, 199, 10, 2, fn); err == nil {
		t.Errorf("expected error for cancelled context")
	}
}
