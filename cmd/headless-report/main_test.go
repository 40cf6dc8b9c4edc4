package main

import (
	"strings"
	"testing"

	"github.com/Garsondee/jab/internal/game"
	"github.com/Garsondee/jab/internal/replay"
)

func TestFirstTickIsMatchRelative(t *testing.T) {
	entries := []game.EventLogEntry{
		{Tick: 510, Kind: game.EventAttack},
		{Tick: 530, Kind: game.EventParry},
		{Tick: 560, Kind: game.EventAttack},
	}
	if got := firstTick(entries, game.EventAttack, 500); got != 10 {
		t.Errorf("first attack = %d, want 10", got)
	}
	if got := firstTick(entries, game.EventKilled, 500); got != -1 {
		t.Errorf("missing kind = %d, want -1", got)
	}
}

func TestSummarizeSkipsUndecided(t *testing.T) {
	all := []runStats{
		{decided: true, firstKillTick: 200, report: game.MatchReport{Outcome: game.OutcomeLeftWins, Rounds: 7, Parries: 3, EndTick: 1000}},
		{decided: true, firstKillTick: 400, report: game.MatchReport{Outcome: game.OutcomeDraw, Rounds: 9, DoubleKOs: 2, EndTick: 2000}},
		{decided: false, firstKillTick: 50, report: game.MatchReport{Rounds: 3}},
	}
	agg := summarize(all)
	if agg.runs != 3 || agg.undecided != 1 || agg.leftWins != 1 || agg.draws != 1 || agg.rightWins != 0 {
		t.Fatalf("counts = %+v", agg)
	}
	if agg.rounds != 16 || agg.doubleKOs != 2 || agg.parries != 3 || agg.ticks != 3000 {
		t.Errorf("totals = %+v", agg)
	}
	if avgTickString(agg.killTicks) != "300.0" {
		t.Errorf("kill tick avg = %s, want 300.0", avgTickString(agg.killTicks))
	}
}

func TestDetectSideBias_TrueWhenOneSideDominates(t *testing.T) {
	biased, reason := detectSideBias(aggregate{leftWins: 17, rightWins: 3})
	if !biased {
		t.Fatalf("expected bias=true, got false (reason=%s)", reason)
	}
	if !strings.Contains(reason, "left_bias") {
		t.Fatalf("expected reason to mention left_bias, got: %s", reason)
	}
}

func TestDetectSideBias_FalseWhenBalanced(t *testing.T) {
	biased, reason := detectSideBias(aggregate{leftWins: 11, rightWins: 9})
	if biased {
		t.Fatalf("expected bias=false (reason=%s)", reason)
	}
}

func TestDetectSideBias_FalseWithFewRuns(t *testing.T) {
	biased, reason := detectSideBias(aggregate{leftWins: 4, rightWins: 0})
	if biased {
		t.Fatalf("expected bias=false with too few runs (reason=%s)", reason)
	}
	if !strings.Contains(reason, "too_few") {
		t.Fatalf("unexpected reason: %s", reason)
	}
}

func TestFuzzRunReplaysIdentically(t *testing.T) {
	tuning := game.DefaultTuning()
	tuning.MaxRounds = 3
	rs := runFuzzMatch(1, 99, tuning, 0.2, 30000)
	if !rs.decided {
		t.Fatalf("seed 99 undecided:\n%s", rs.report.Format())
	}
	if rs.inputs == 0 || rs.recording.Report == nil {
		t.Fatalf("inputs=%d report=%v", rs.inputs, rs.recording.Report)
	}

	tm, err := replay.Play(rs.recording, 1000)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if got := tm.Match.Report(); !rs.recording.Reproduces(got) || got != rs.report {
		t.Errorf("replayed report differs:\n%s\nwant:\n%s", got.Format(), rs.report.Format())
	}
}
