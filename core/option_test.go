package core

import "testing"

type dummyTarget struct {
	n int
}

func withN(n int) Option {
	return OptionFunc(func(target any) {
		target.(*dummyTarget).n = n
	})
}

func TestApplyOptions(t *testing.T) {
	d := &dummyTarget{}
	ApplyOptions(d, withN(3), withN(5))
	if d.n != 5 {
		t.Errorf("n = %d, want 5", d.n)
	}
}
