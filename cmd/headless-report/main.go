package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Garsondee/jab/internal/config"
	"github.com/Garsondee/jab/internal/game"
	"github.com/Garsondee/jab/internal/logging"
	"github.com/Garsondee/jab/internal/replay"
	"github.com/Garsondee/jab/internal/storage"
)

type runStats struct {
	runIndex int
	seed     int64
	decided  bool

	firstAttackTick int64
	firstParryTick  int64
	firstHeadOnTick int64
	firstKillTick   int64

	kills     [2]int
	wallHits  [2]int
	inputs    int
	report    game.MatchReport
	recording replay.Recording
}

type options struct {
	runs      int
	maxTicks  int
	seedBase  int64
	seedStep  int64
	density   float64
	maxRounds int
	replay    string
	saveDir   string
	dbPath    string
}

func main() {
	var opts options
	flag.IntVar(&opts.runs, "runs", 5, "number of seeded input-fuzz matches")
	flag.IntVar(&opts.maxTicks, "ticks", 36000, "tick limit per match")
	flag.Int64Var(&opts.seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&opts.seedStep, "seed-step", 1, "seed increment between runs")
	flag.Float64Var(&opts.density, "density", 0.15, "chance per side per tick of a random command")
	flag.IntVar(&opts.maxRounds, "max-rounds", 0, "override max rounds (0 keeps the configured value)")
	flag.StringVar(&opts.replay, "replay", "", "re-simulate this replay file instead of fuzzing")
	flag.StringVar(&opts.saveDir, "save-dir", "", "write a replay file for every fuzz run")
	flag.StringVar(&opts.dbPath, "db", "", "store every decided match in this history database")
	flag.Parse()

	settings, err := config.Load("")
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	tuning := settings.Tuning
	if opts.maxRounds != 0 {
		tuning.MaxRounds = opts.maxRounds
	}
	if err := config.Validate(tuning); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}

	if opts.replay != "" {
		if err := runReplayFile(opts.replay); err != nil {
			fmt.Printf("error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if opts.runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if opts.maxTicks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		return
	}
	if opts.density <= 0 || opts.density > 1 {
		fmt.Println("error: -density must be in (0, 1]")
		return
	}

	var repo storage.Repository
	if opts.dbPath != "" {
		db, err := storage.OpenAndMigrate(opts.dbPath)
		if err != nil {
			logging.Fatal("Failed to initialize database", err, logging.Fields{"db_path": opts.dbPath})
		}
		repo = storage.NewSQLiteRepository(db)
	}

	fmt.Printf("=== Headless Match Report ===\n")
	fmt.Printf("runs=%d ticks=%d seed_base=%d seed_step=%d density=%.2f max_rounds=%d\n\n",
		opts.runs, opts.maxTicks, opts.seedBase, opts.seedStep, opts.density, tuning.MaxRounds)

	all := make([]runStats, 0, opts.runs)
	for i := 0; i < opts.runs; i++ {
		seed := opts.seedBase + int64(i)*opts.seedStep
		rs := runFuzzMatch(i+1, seed, tuning, opts.density, opts.maxTicks)
		all = append(all, rs)
		printRun(rs)
		archiveRun(rs, opts.saveDir, repo)
	}

	printAggregate(all)
}

func runFuzzMatch(runIndex int, seed int64, tuning game.Tuning, density float64, maxTicks int) runStats {
	tm := game.NewTestMatch(
		game.WithTuning(tuning),
		game.WithRandomInputs(seed, density),
	)
	rec := replay.NewRecorder(tm.Match)
	decided := tm.RunToMatchOver(maxTicks) >= 0
	rs := statsFrom(runIndex, seed, tm, decided)
	rs.recording = rec.Recording()
	rs.inputs = len(rs.recording.Inputs)
	return rs
}

func statsFrom(runIndex int, seed int64, tm *game.TestMatch, decided bool) runStats {
	entries := tm.Log.Entries()
	start := tm.Match.StartedAt()
	rs := runStats{
		runIndex:        runIndex,
		seed:            seed,
		decided:         decided,
		firstAttackTick: firstTick(entries, game.EventAttack, start),
		firstParryTick:  firstTick(entries, game.EventParry, start),
		firstHeadOnTick: firstTick(entries, game.EventHeadOn, start),
		firstKillTick:   firstTick(entries, game.EventKilled, start),
		report:          tm.Match.Report(),
	}
	for _, side := range []game.Side{game.SideLeft, game.SideRight} {
		rs.kills[side] = tm.Log.CountSide(game.EventKilled, side)
		rs.wallHits[side] = tm.Log.CountSide(game.EventWallCrash, side)
	}
	return rs
}

// firstTick is the match-relative tick of the first entry of kind, or -1.
func firstTick(entries []game.EventLogEntry, kind game.EventKind, start int64) int64 {
	for _, e := range entries {
		if e.Kind == kind {
			return e.Tick - start
		}
	}
	return -1
}

func runReplayFile(path string) error {
	rec, err := replay.LoadFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("=== Replay %s ===\n", path)
	fmt.Printf("inputs=%d last_tick=%d max_rounds=%d\n\n", len(rec.Inputs), rec.LastTick(), rec.Tuning.MaxRounds)

	tm, err := replay.Play(rec, 60*rec.Tuning.TicksPerSecond)
	if err != nil {
		return err
	}
	rs := statsFrom(1, 0, tm, true)
	rs.inputs = len(rec.Inputs)
	printRun(rs)

	if rec.Report != nil {
		if rec.Reproduces(rs.report) {
			fmt.Println("replay_check: identical to the recorded report")
		} else {
			fmt.Println("replay_check: MISMATCH, recorded report was:")
			fmt.Print(rec.Report.Format())
			return fmt.Errorf("replay %s diverged", path)
		}
	}
	return nil
}

func archiveRun(rs runStats, saveDir string, repo storage.Repository) {
	if !rs.decided {
		return
	}
	path := ""
	if saveDir != "" {
		p, err := replay.SaveFile(saveDir, rs.recording)
		if err != nil {
			logging.Error("save replay", err, logging.Fields{"seed": rs.seed})
		} else {
			path = p
		}
	}
	if repo != nil {
		rec := storage.RecordFromReport(rs.report, storage.SourceHeadless)
		rec.ReplayPath = path
		if err := repo.SaveMatch(rec); err != nil {
			logging.Error("save match", err, logging.Fields{"seed": rs.seed})
		}
	}
}

func printRun(rs runStats) {
	fmt.Printf("--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	if !rs.decided {
		fmt.Println("status: UNDECIDED within the tick limit")
	}
	fmt.Printf("phase_markers: first_attack=%d first_parry=%d first_head_on=%d first_kill=%d\n",
		rs.firstAttackTick, rs.firstParryTick, rs.firstHeadOnTick, rs.firstKillTick)
	fmt.Printf("side_totals: kills=%d/%d wall_hits=%d/%d attacks=%d/%d inputs=%d\n",
		rs.kills[game.SideLeft], rs.kills[game.SideRight],
		rs.wallHits[game.SideLeft], rs.wallHits[game.SideRight],
		rs.report.Attacks[game.SideLeft], rs.report.Attacks[game.SideRight], rs.inputs)
	fmt.Print(rs.report.Format())
	fmt.Println()
}

type aggregate struct {
	runs      int
	leftWins  int
	rightWins int
	draws     int
	undecided int
	rounds    int
	doubleKOs int
	parries   int
	headOns   int
	ticks     int64

	killTicks []int64
}

func summarize(all []runStats) aggregate {
	agg := aggregate{runs: len(all)}
	for _, rs := range all {
		if !rs.decided {
			agg.undecided++
			continue
		}
		switch rs.report.Outcome {
		case game.OutcomeLeftWins:
			agg.leftWins++
		case game.OutcomeRightWins:
			agg.rightWins++
		case game.OutcomeDraw:
			agg.draws++
		}
		agg.rounds += rs.report.Rounds
		agg.doubleKOs += rs.report.DoubleKOs
		agg.parries += rs.report.Parries
		agg.headOns += rs.report.HeadOns
		agg.ticks += rs.report.Ticks()
		if rs.firstKillTick >= 0 {
			agg.killTicks = append(agg.killTicks, rs.firstKillTick)
		}
	}
	return agg
}

// detectSideBias flags a run set whose decided outcomes lean heavily to one
// side. Both sides receive inputs from the same distribution, so a strong
// lean points at an asymmetry in the rules.
func detectSideBias(agg aggregate) (bool, string) {
	decided := agg.leftWins + agg.rightWins
	if decided < 10 {
		return false, fmt.Sprintf("too_few_decided_runs=%d", decided)
	}
	share := float64(agg.leftWins) / float64(decided)
	switch {
	case share >= 0.8:
		return true, fmt.Sprintf("left_bias share=%.2f", share)
	case share <= 0.2:
		return true, fmt.Sprintf("right_bias share=%.2f", share)
	}
	return false, fmt.Sprintf("balanced share=%.2f", share)
}

func printAggregate(all []runStats) {
	agg := summarize(all)
	decided := agg.runs - agg.undecided

	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d decided=%d undecided=%d\n", agg.runs, decided, agg.undecided)
	fmt.Printf("outcomes: left=%d right=%d draw=%d\n", agg.leftWins, agg.rightWins, agg.draws)
	fmt.Printf("avg_per_match: rounds=%.1f double_kos=%.1f parries=%.1f head_ons=%.1f ticks=%.1f\n",
		avg(agg.rounds, decided), avg(agg.doubleKOs, decided), avg(agg.parries, decided),
		avg(agg.headOns, decided), avg(int(agg.ticks), decided))
	fmt.Printf("first_kill_avg_tick=%s\n", avgTickString(agg.killTicks))
	biased, reason := detectSideBias(agg)
	fmt.Printf("side_bias=%v (%s)\n", biased, reason)
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int64) string {
	if len(vals) == 0 {
		return "n/a"
	}
	var sum int64
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}
