package predictive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/raffaeleberzoini/llamazip/model"
)

// failingModel wraps Fixture's tokenizer/sentinels but fails Generate, to
// exercise that model.ErrBackendFailure survives predictive's own error
// wrapping via errors.Is.
type failingModel struct {
	*model.Fixture
}

func (failingModel) Generate(ctx context.Context, prefix []model.Token) (model.Generator, error) {
	return nil, fmt.Errorf("%w: simulated load failure", model.ErrBackendFailure)
}

func TestCompressBackendFailureIsWrappedSentinel(t *testing.T) {
	m := failingModel{model.NewFixture(32)}
	_, err := Compress(context.Background(), m, "hello", 8, CompressOptions{})
	if err == nil {
		t.Fatal("expected an error from a failing backend")
	}
	if !errors.Is(err, model.ErrBackendFailure) {
		t.Fatalf("errors.Is(err, model.ErrBackendFailure) = false for err: %v", err)
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	texts := []string{
		"hello, world!",
		"",
		"a",
		strings.Repeat("the quick brown fox jumps over the lazy dog. ", 20),
	}
	for _, text := range texts {
		m := model.NewFixture(64)
		ciphertext, err := Compress(context.Background(), m, text, 8, CompressOptions{})
		if err != nil {
			t.Fatalf("Compress(%q): %v", text, err)
		}

		m2 := model.NewFixture(64)
		got, err := Decompress(context.Background(), m2, ciphertext, 8, DecompressOptions{})
		if err != nil {
			t.Fatalf("Decompress(%q): %v", text, err)
		}
		if got != text {
			t.Fatalf("round trip mismatch: got %q, want %q", got, text)
		}
	}
}

func TestCompressSmallWindowForcesRestart(t *testing.T) {
	text := strings.Repeat("abcdefgh", 30)
	m := model.NewFixture(16)
	ciphertext, err := Compress(context.Background(), m, text, 4, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	m2 := model.NewFixture(16)
	got, err := Decompress(context.Background(), m2, ciphertext, 4, DecompressOptions{})
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if got != text {
		t.Fatalf("round trip mismatch with small window: got %q, want %q", got, text)
	}
}

func TestCompressProgressCallback(t *testing.T) {
	text := "progress check"
	m := model.NewFixture(32)
	var calls int
	var lastDone, lastTotal int
	_, err := Compress(context.Background(), m, text, 8, CompressOptions{
		OnProgress: func(done, total int) {
			calls++
			lastDone, lastTotal = done, total
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls == 0 {
		t.Fatal("expected OnProgress to be called")
	}
	if lastDone != lastTotal {
		t.Fatalf("final progress call should report done==total, got %d/%d", lastDone, lastTotal)
	}
}

func TestCompressInterruptStillDecodable(t *testing.T) {
	text := strings.Repeat("interrupt me please ", 50)
	m := model.NewFixture(64)

	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	ciphertext, err := Compress(ctx, m, text, 8, CompressOptions{
		OnProgress: func(done, total int) {
			calls++
			if calls == 3 {
				cancel()
			}
		},
	})
	if err != nil {
		t.Fatalf("Compress with mid-stream cancellation should not error: %v", err)
	}

	m2 := model.NewFixture(64)
	got, err := Decompress(context.Background(), m2, ciphertext, 8, DecompressOptions{})
	if err != nil {
		t.Fatalf("Decompress of interrupted stream: %v", err)
	}
	if got == text {
		t.Fatal("expected a truncated decode after interrupt, got the full text back")
	}
	if !strings.HasPrefix(text, got) {
		t.Fatalf("decoded output %q is not a prefix of the original text", got)
	}
}

func TestDecompressCancelledContextAborts(t *testing.T) {
	m := model.NewFixture(32)
	ciphertext, err := Compress(context.Background(), m, "cancel me", 8, CompressOptions{})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m2 := model.NewFixture(32)
	_, err = Decompress(ctx, m2, ciphertext, 8, DecompressOptions{})
	if err == nil {
		t.Fatal("expected Decompress to abort on an already-cancelled context")
	}
}

func TestDecompressInvalidCiphertext(t *testing.T) {
	m := model.NewFixture(32)
	if _, err := Decompress(context.Background(), m, "not-base64-!@#", 8, DecompressOptions{}); err == nil {
		t.Fatal("expected an error for an invalid ciphertext alphabet")
	}
}

func TestCompressIsDeterministic(t *testing.T) {
	text := "determinism matters for this codec"
	m1 := model.NewFixture(32)
	c1, err := Compress(context.Background(), m1, text, 8, CompressOptions{})
	if err != nil {
		t.Fatal(err)
	}
	m2 := model.NewFixture(32)
	c2, err := Compress(context.Background(), m2, text, 8, CompressOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if c1 != c2 {
		t.Fatalf("two compress runs over identical input diverged: %q != %q", c1, c2)
	}
}

func TestOnTokenStreamsDecodedBytes(t *testing.T) {
	text := "stream me"
	m := model.NewFixture(32)
	ciphertext, err := Compress(context.Background(), m, text, 8, CompressOptions{})
	if err != nil {
		t.Fatal(err)
	}

	m2 := model.NewFixture(32)
	var streamed []byte
	got, err := Decompress(context.Background(), m2, ciphertext, 8, DecompressOptions{
		OnToken: func(b []byte) { streamed = append(streamed, b...) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(streamed) != got {
		t.Fatalf("streamed bytes %q do not match final output %q", streamed, got)
	}
}

func TestCompressWithGenerousTimeoutDoesNotInterrupt(t *testing.T) {
	// Sanity check that a generous timeout does not itself trigger the
	// interrupt path for a short compression.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m := model.NewFixture(32)
	if _, err := Compress(ctx, m, "short text", 8, CompressOptions{}); err != nil {
		t.Fatal(err)
	}
}
