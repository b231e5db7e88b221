package models

import "testing"

func TestMoveBeats(t *testing.T) {
	cases := []struct {
		a, b Move
		want bool
	}{
		{MoveRock, MoveScissors, true},
		{MoveScissors, MovePaper, true},
		{MovePaper, MoveRock, true},
		{MoveScissors, MoveRock, false},
		{MovePaper, MoveScissors, false},
		{MoveRock, MovePaper, false},
		{MoveRock, MoveRock, false},
		{MoveNone, MoveRock, false},
		{MoveRock, MoveNone, false},
	}
	for _, tc := range cases {
		if got := tc.a.Beats(tc.b); got != tc.want {
			t.Fatalf("%s beats %s = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestMoveValid(t *testing.T) {
	for _, m := range Moves {
		if !m.Valid() {
			t.Fatalf("expected %s to be playable", m)
		}
	}
	if MoveNone.Valid() {
		t.Fatal("none is not a playable hand")
	}
	if Move("lizard").Valid() {
		t.Fatal("unknown hands are not playable")
	}
}
