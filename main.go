// Program rbnspots is the command-line collaborator of the analysis core: it
// validates input, loads the prefix database, runs one orchestration pass
// (with rate-limit auto-retry) and prints per-slot summaries plus
// continent-grouped spotter rankings.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/s53zo/RBN-spots-analysis-tool/aggregate"
	"github.com/s53zo/RBN-spots-analysis-tool/compare"
	"github.com/s53zo/RBN-spots-analysis-tool/config"
	"github.com/s53zo/RBN-spots-analysis-tool/cty"
	"github.com/s53zo/RBN-spots-analysis-tool/orchestrator"
	"github.com/s53zo/RBN-spots-analysis-tool/rbnapi"
	"github.com/s53zo/RBN-spots-analysis-tool/stats"
	"github.com/s53zo/RBN-spots-analysis-tool/validate"
	"github.com/s53zo/RBN-spots-analysis-tool/window"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config.yaml (optional)")
		call       = flag.String("call", "", "primary callsign")
		compareArg = flag.String("compare", "", "comma-separated comparison callsigns (max 3)")
		mode       = flag.String("mode", "dates", "query mode: dates, live or skimmer")
		dates      = flag.String("dates", "", "comma-separated UTC dates (YYYY-MM-DD, max 2)")
		hours      = flag.Int("hours", 24, "live window size in hours (1, 6, 12, 24, 48)")
		fromArg    = flag.String("from", "", "skimmer range start (RFC 3339)")
		toArg      = flag.String("to", "", "skimmer range end (RFC 3339)")
		areaType   = flag.String("area", "global", "skimmer scope: global, continent, dxcc, cq, itu or call")
		areaValue  = flag.String("area-value", "", "skimmer scope value (e.g. EU, 14, DL1ABC)")
		band       = flag.String("band", "", "restrict rankings to one band (e.g. 40m)")
		metric     = flag.String("metric", "count", "ranking metric: count or p75")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("main: %v", err)
		}
		cfg = loaded
	}

	comparisons := splitList(*compareArg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver := loadResolver(ctx, cfg)
	client := rbnapi.NewClient(cfg.RBN.Endpoint, cfg.RBN.Timeout())
	tracker := stats.NewTracker()
	orch := orchestrator.New(client)
	orch.SetStats(tracker)
	engine := compare.NewEngine(resolver)

	var (
		win   window.Window
		scope aggregate.Scope
	)
	switch *mode {
	case "dates":
		res := validate.Analysis(validate.AnalysisInput{
			Dates:       splitList(*dates),
			Primary:     *call,
			Comparisons: comparisons,
		})
		exitUnlessValid(res)
		win = window.FixedDates(splitList(*dates))
	case "live":
		res := validate.Live(validate.LiveInput{
			Primary:     *call,
			Comparisons: comparisons,
			WindowHours: *hours,
		})
		exitUnlessValid(res)
		win = window.Live(*hours, time.Now())
	case "skimmer":
		from, to := parseInstant(*fromArg), parseInstant(*toArg)
		res := validate.Skimmer(validate.SkimmerInput{
			Primary:     *call,
			Comparisons: comparisons,
			FromMs:      from.UnixMilli(),
			ToMs:        to.UnixMilli(),
			AreaType:    *areaType,
			AreaValue:   *areaValue,
		})
		exitUnlessValid(res)
		win = window.Skimmer(from, to)
		scope = aggregate.Scope{
			Kind:  aggregate.ScopeKind(strings.ToLower(*areaType)),
			Value: *areaValue,
		}
	default:
		log.Fatalf("main: unknown mode %q", *mode)
	}

	req := orchestrator.Request{
		Calls:  append([]string{*call}, comparisons...),
		Window: win,
		PerDay: *mode != "dates",
	}
	result, err := orch.RunWithRetry(ctx, req, orchestrator.RetryPolicy{
		Budget: cfg.Retry.Budget,
		Floor:  cfg.Retry.Floor(),
	})
	if err != nil {
		log.Fatalf("main: %v", err)
	}

	printRun(result)
	if *mode == "skimmer" {
		printTargets(result, scope, resolver)
	}
	printRankings(engine, result, *band, *metric == "p75", cfg.Ranking.MinSamples)

	fmt.Println()
	for _, line := range tracker.SnapshotLines() {
		fmt.Println(line)
	}
}

func loadResolver(ctx context.Context, cfg *config.Config) *cty.Resolver {
	loader := cty.NewLoader(cfg.CTY.Sources, cfg.CTY.CacheDir, cfg.CTY.Timeout())
	resolver, err := loader.Load(ctx)
	if err != nil {
		// Rankings degrade to the regex continent fallback.
		log.Printf("main: prefix database unavailable: %v", err)
		return cty.NewResolver(nil)
	}
	log.Printf("main: prefix database ready (%s entries)",
		humanize.Comma(int64(resolver.EntryCount())))
	return resolver
}

func exitUnlessValid(res validate.Result) {
	for _, w := range res.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	if !res.OK {
		fmt.Fprintln(os.Stderr, res.Reason)
		os.Exit(2)
	}
}

func printRun(result *orchestrator.RunResult) {
	fmt.Printf("Run #%d: days %s (%s)\n", result.Token,
		strings.Join(result.RequestedDays, ", "),
		result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	for _, s := range result.Slots {
		switch s.Status {
		case orchestrator.StatusReady:
			fmt.Printf("  [%s] %s (%s): %s heard by others, %s heard by us (%s scanned)\n",
				s.Slot, s.Call, s.Label,
				humanize.Comma(int64(s.TotalOfUs)),
				humanize.Comma(int64(s.TotalByUs)),
				humanize.Comma(int64(s.ScannedTotal)))
			if s.TruncatedOfUs || s.TruncatedByUs {
				fmt.Printf("      note: upstream truncated the result at %s spots per side\n",
					humanize.Comma(int64(s.CapPerSide)))
			}
			for _, day := range s.FailedDays {
				fmt.Printf("      missing day %s\n", day)
			}
		case orchestrator.StatusRateLimited:
			fmt.Printf("  [%s] %s (%s): rate limited, retry in %s\n", s.Slot, s.Call, s.Label, s.RetryAfter)
		default:
			fmt.Printf("  [%s] %s (%s): failed: %s\n", s.Slot, s.Call, s.Label, s.Error)
		}
	}
}

func printRankings(engine *compare.Engine, result *orchestrator.RunResult, band string, p75 bool, minSamples int) {
	for _, s := range result.Slots {
		var ranking *compare.Ranking
		if p75 {
			ranking = engine.RankByP75(s, band, minSamples)
		} else {
			ranking = engine.RankByCount(s, band)
		}
		if ranking == nil {
			continue
		}
		label := "all bands"
		if ranking.Band != "" {
			label = ranking.Band
		}
		fmt.Printf("\nTop spotters of %s (%s):\n", s.Call, label)
		for _, continent := range ranking.Continents() {
			fmt.Printf("  %s:\n", compare.ContinentLabel(continent))
			entries := ranking.ByContinent[continent]
			for i, e := range entries {
				if i == 10 {
					fmt.Printf("    ... and %d more\n", len(entries)-i)
					break
				}
				if e.HasP75 {
					fmt.Printf("    %-12s %6s spots  P75 %g dB\n",
						e.Spotter, humanize.Comma(int64(e.Count)), e.P75SNR)
				} else {
					fmt.Printf("    %-12s %6s spots\n", e.Spotter, humanize.Comma(int64(e.Count)))
				}
			}
		}
	}
}

func printTargets(result *orchestrator.RunResult, scope aggregate.Scope, resolver *cty.Resolver) {
	targets := aggregate.Targets(result.Slots, scope, resolver)
	fmt.Printf("\nStations heard (%d targets in scope):\n", len(targets))
	for i, t := range targets {
		if i == 25 {
			fmt.Printf("  ... and %d more\n", len(targets)-i)
			break
		}
		where := t.Continent
		if t.DXCC != "" {
			where = fmt.Sprintf("%s, %s", t.DXCC, t.Continent)
		}
		fmt.Printf("  %-12s %6s detections by slots %s (%s)\n",
			t.Call, humanize.Comma(int64(t.Total)),
			strings.Join(t.SlotsHeard(), ","), where)
	}
}

func parseInstant(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
