package bridge

import (
	"errors"
	"testing"
)

func TestTokenWriteOnceConsumeOnce(t *testing.T) {
	tok := newToken[string](KindCallback, "x")
	if _, _, ok := tok.consume(); ok {
		t.Fatalf("consume before write must fail")
	}
	if !tok.write("a", nil) {
		t.Fatalf("first write failed")
	}
	if tok.write("b", errors.New("late")) {
		t.Fatalf("second write must be rejected")
	}
	v, err, ok := tok.consume()
	if !ok || v != "a" || err != nil {
		t.Fatalf("consume = %q, %v, %v", v, err, ok)
	}
	if _, _, ok := tok.consume(); ok {
		t.Fatalf("second consume must fail")
	}
}

func TestTokenAbandon(t *testing.T) {
	tok := newToken[int](KindPromise, "x")
	tok.abandon()
	if tok.write(1, nil) {
		t.Fatalf("write after abandon must fail")
	}
	tok.abandon()
}
