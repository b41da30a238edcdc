// Command nightsim plays seeded nights offline with scripted players and
// prints how each strategy fared. It is the balancing bench for tuning files.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/MRamiBalles/VeilleElectrique/internal/engine"
	"github.com/MRamiBalles/VeilleElectrique/internal/platform/config"
	"github.com/MRamiBalles/VeilleElectrique/internal/sim"
)

// simConfig is read from the environment first; flags override it.
type simConfig struct {
	TuningPath string  `env:"VEILLE_TUNING_PATH" envDefault:"config/tuning.yaml"`
	Strategies string  `env:"NIGHTSIM_STRATEGIES" envDefault:"idle,doors,lights,turtle,watcher"`
	Nights     string  `env:"NIGHTSIM_NIGHTS"`
	Runs       int     `env:"NIGHTSIM_RUNS" envDefault:"20"`
	Seed       uint    `env:"NIGHTSIM_SEED" envDefault:"1"`
	Step       float64 `env:"NIGHTSIM_STEP" envDefault:"0.0333333"`
	NightLen   float64 `env:"NIGHTSIM_NIGHT_LENGTH" envDefault:"360"`
	Parallel   int     `env:"NIGHTSIM_PARALLEL" envDefault:"0"`
	JSON       bool    `env:"NIGHTSIM_JSON" envDefault:"false"`
	DumpTuning string
}

var (
	title  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fbbf24"))
	header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	cell   = lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Padding(0, 1)
	border = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "nightsim:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	var cfg simConfig
	if err := config.ParseEnv(&cfg); err != nil {
		return err
	}

	fs := flag.NewFlagSet("nightsim", flag.ContinueOnError)
	fs.StringVar(&cfg.TuningPath, "tuning", cfg.TuningPath, "tuning YAML file (defaults when missing)")
	fs.StringVar(&cfg.Strategies, "strategies", cfg.Strategies, "comma-separated strategies: "+strings.Join(sim.Names(), ", "))
	fs.StringVar(&cfg.Nights, "nights", cfg.Nights, "comma-separated nights (default: whole campaign)")
	fs.IntVar(&cfg.Runs, "runs", cfg.Runs, "seeds per night")
	fs.UintVar(&cfg.Seed, "seed", cfg.Seed, "first seed")
	fs.Float64Var(&cfg.Step, "step", cfg.Step, "frame length in seconds")
	fs.Float64Var(&cfg.NightLen, "night-length", cfg.NightLen, "night length in seconds")
	fs.IntVar(&cfg.Parallel, "parallel", cfg.Parallel, "strategies simulated at once (0 = all)")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "print raw results as JSON")
	fs.StringVar(&cfg.DumpTuning, "dump-tuning", "", "write the effective tuning to this path and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		return err
	}
	if err := tuning.Validate(); err != nil {
		return fmt.Errorf("invalid tuning: %w", err)
	}
	if cfg.DumpTuning != "" {
		if err := config.WriteTuning(cfg.DumpTuning, tuning); err != nil {
			return err
		}
		fmt.Println("tuning written to", cfg.DumpTuning)
		return nil
	}

	nights, err := parseNights(cfg.Nights)
	if err != nil {
		return err
	}
	strategies := splitList(cfg.Strategies)

	results, err := sim.Run(ctx, sim.Options{
		Engine:   tuning.EngineConfig(cfg.NightLen, engine.FixedEntropy(0), nil),
		Nights:   nights,
		Runs:     cfg.Runs,
		BaseSeed: uint32(cfg.Seed),
		Step:     cfg.Step,
		Parallel: cfg.Parallel,
	}, strategies)
	if err != nil {
		return err
	}

	if cfg.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	fmt.Println(title.Render(fmt.Sprintf("VEILLE ÉLECTRIQUE · %d nights × %d seeds", len(distinctNights(results)), cfg.Runs)))
	fmt.Println(summaryTable(sim.Summarize(results)))
	fmt.Println(nightTable(results))
	return nil
}

func summaryTable(summaries []sim.Summary) string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Strategy,
			strconv.Itoa(s.Played),
			fmt.Sprintf("%.0f%%", s.WinRate()*100),
			strconv.Itoa(s.Blackouts),
			fmt.Sprintf("%.1fs", s.MeanElapsed),
			fmt.Sprintf("%.1f", s.MeanEnergy),
			topCulprit(s.Culprits),
		})
	}
	return render([]string{"Strategy", "Nights", "Won", "Blackouts", "Mean time", "Mean energy", "Main culprit"}, rows)
}

func nightTable(results []sim.Result) string {
	type key struct {
		strategy string
		night    int
	}
	won := map[key]int{}
	played := map[key]int{}
	for _, r := range results {
		k := key{r.Strategy, r.Night}
		played[k]++
		if r.Won() {
			won[k]++
		}
	}

	nights := distinctNights(results)
	headers := []string{"Strategy"}
	for _, n := range nights {
		headers = append(headers, "N"+strconv.Itoa(n))
	}

	var names []string
	seen := map[string]bool{}
	for _, r := range results {
		if !seen[r.Strategy] {
			seen[r.Strategy] = true
			names = append(names, r.Strategy)
		}
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		row := []string{name}
		for _, n := range nights {
			k := key{name, n}
			row = append(row, fmt.Sprintf("%d/%d", won[k], played[k]))
		}
		rows = append(rows, row)
	}
	return render(headers, rows)
}

func render(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(border).
		BorderHeader(true).
		BorderRow(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header.Padding(0, 1)
			}
			return cell
		}).
		Render()
}

func topCulprit(c map[string]int) string {
	best, count := "-", 0
	for name, n := range c {
		if n > count || (n == count && name < best) {
			best, count = name, n
		}
	}
	if count == 0 {
		return "-"
	}
	return fmt.Sprintf("%s (%d)", best, count)
}

func distinctNights(results []sim.Result) []int {
	seen := map[int]bool{}
	var out []int
	for _, r := range results {
		if !seen[r.Night] {
			seen[r.Night] = true
			out = append(out, r.Night)
		}
	}
	sort.Ints(out)
	return out
}

func parseNights(s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad night %q: %w", part, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
