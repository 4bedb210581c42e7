package model

import (
	"errors"
	"testing"
)

func TestConcurrency_IsValid(t *testing.T) {
	for _, tc := range []struct {
		c    Concurrency
		want bool
	}{
		{ConcurrencyLow, true},
		{ConcurrencyMedium, true},
		{ConcurrencyHigh, true},
		{Concurrency(0), false},
		{Concurrency(4), false},
	} {
		if got := tc.c.IsValid(); got != tc.want {
			t.Errorf("Concurrency(%d).IsValid() = %v, want %v", tc.c, got, tc.want)
		}
	}
}

func TestConcurrency_String(t *testing.T) {
	for _, tc := range []struct {
		c    Concurrency
		want string
	}{
		{ConcurrencyLow, "low"},
		{ConcurrencyMedium, "medium"},
		{ConcurrencyHigh, "high"},
		{Concurrency(9), "unknown"},
	} {
		if got := tc.c.String(); got != tc.want {
			t.Errorf("Concurrency(%d).String() = %q, want %q", tc.c, got, tc.want)
		}
	}
}

func TestCriterion(t *testing.T) {
	if !CriterionDistance.IsValid() || !CriterionCost.IsValid() {
		t.Fatal("known criteria should be valid")
	}
	if Criterion("time").IsValid() {
		t.Fatal("unknown criterion should be invalid")
	}
	if got := AlgorithmFor(CriterionDistance); got != AlgorithmDijkstra {
		t.Errorf("AlgorithmFor(distance) = %q", got)
	}
	if got := AlgorithmFor(CriterionCost); got != AlgorithmBellmanFord {
		t.Errorf("AlgorithmFor(cost) = %q", got)
	}
}

func TestStopCount(t *testing.T) {
	for _, tc := range []struct {
		path []int64
		want int
	}{
		{nil, 0},
		{[]int64{1}, 0},
		{[]int64{1, 2}, 0},
		{[]int64{1, 2, 3}, 1},
		{[]int64{1, 2, 3, 4, 5}, 3},
	} {
		if got := StopCount(tc.path); got != tc.want {
			t.Errorf("StopCount(%v) = %d, want %d", tc.path, got, tc.want)
		}
	}
}

func TestRoundMoney(t *testing.T) {
	for _, tc := range []struct {
		in   float64
		want float64
	}{
		{650, 650},
		{650.004, 650},
		{0.125, 0.13},
		{1.005, 1.00}, // binary value is just below 1.005
		{-0.125, -0.13},
		{0, 0},
	} {
		if got := RoundMoney(tc.in); got != tc.want {
			t.Errorf("RoundMoney(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewPair(t *testing.T) {
	if p := NewPair(7, 3); p.A != 3 || p.B != 7 {
		t.Fatalf("NewPair(7, 3) = %+v", p)
	}
	c := &Connection{AirportA: 9, AirportB: 2}
	c.Normalize()
	if c.AirportA != 2 || c.AirportB != 9 {
		t.Fatalf("Normalize: got %d-%d", c.AirportA, c.AirportB)
	}
	if c.Other(2) != 9 || c.Other(9) != 2 {
		t.Fatal("Other returned the wrong endpoint")
	}
}

func TestValidateAirport(t *testing.T) {
	if err := ValidateAirport(&Airport{ID: 1, Name: "Lima", Lat: -12.02, Lon: -77.11}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := ValidateAirport(&Airport{ID: 0, Name: " ", Lat: 91, Lon: -181, Concurrency: 4})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Errors) != 5 {
		t.Fatalf("expected 5 field errors, got %d: %v", len(ve.Errors), ve)
	}
}

func TestValidateConnection(t *testing.T) {
	ok := &Connection{AirportA: 1, AirportB: 2, DistanceKM: 100, CongestionFactor: 1.3, Cost: 650}
	if err := ValidateConnection(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := &Connection{AirportA: 1, AirportB: 1, DistanceKM: 0, CongestionFactor: 2, Cost: 0}
	var ve *ValidationError
	if !errors.As(ValidateConnection(bad), &ve) {
		t.Fatal("expected *ValidationError")
	}
	if len(ve.Errors) != 4 {
		t.Fatalf("expected 4 field errors, got %d", len(ve.Errors))
	}
}

func TestComputeTopologyStats(t *testing.T) {
	airports := []*Airport{{ID: 1}, {ID: 2}, {ID: 3}}
	conns := []*Connection{{AirportA: 1, AirportB: 2}, {AirportA: 1, AirportB: 3}}
	stats := ComputeTopologyStats(airports, conns)
	if stats.MinDegree != 1 || stats.MaxDegree != 2 {
		t.Fatalf("min/max = %d/%d, want 1/2", stats.MinDegree, stats.MaxDegree)
	}
	if stats.AvgDegree < 1.33 || stats.AvgDegree > 1.34 {
		t.Fatalf("avg = %v", stats.AvgDegree)
	}
}
