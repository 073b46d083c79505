package util_test

import (
	"fmt"
	"testing"

	"github.com/hamlab/gorotor/util"
)

func ExampleLimiter_Clamp() {
	l := util.Limiter{Min: 0, Max: 360}
	fmt.Println(l.Clamp(400))
	fmt.Println(l.Clamp(-10))
	fmt.Println(l.Clamp(180))
	// Output:
	// 360
	// 0
	// 180
}

func TestLimiterCheck(t *testing.T) {
	l := util.Limiter{Min: 0, Max: 70}
	cases := []struct {
		v    float64
		want bool
	}{
		{-1, false},
		{0, true},
		{35, true},
		{70, true},
		{71, false},
	}
	for _, tc := range cases {
		if got := l.Check(tc.v); got != tc.want {
			t.Errorf("Check(%v) = %v, want %v", tc.v, got, tc.want)
		}
	}
}

func TestLimiterClampInt(t *testing.T) {
	l := util.Limiter{Min: 0, Max: 360}
	cases := []struct {
		in, want int
	}{
		{-100, 0},
		{0, 0},
		{180, 180},
		{360, 360},
		{400, 360},
	}
	for _, tc := range cases {
		if got := l.ClampInt(tc.in); got != tc.want {
			t.Errorf("ClampInt(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
