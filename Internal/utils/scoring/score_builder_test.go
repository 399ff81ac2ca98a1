package scoring

import (
	"errors"
	"reflect"
	"testing"

	"github.com/fazecat/eodscanner/Internal/strategy/detection"
	"github.com/fazecat/eodscanner/Internal/strategy/sector"
	"github.com/fazecat/eodscanner/Internal/types"
	"github.com/fazecat/eodscanner/Internal/utils/config"
)

func defaultRules(t *testing.T) []Rule {
	t.Helper()
	rules, err := BuildRules(config.Default().Weights)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return rules
}

func flagsOf(active ...detection.Flag) detection.SetupFlags {
	flags := detection.SetupFlags{}
	for _, f := range detection.Flags() {
		flags[f] = false
	}
	for _, f := range active {
		flags[f] = true
	}
	return flags
}

func TestScore_NeutralIsZero(t *testing.T) {
	in := Input{
		Flags:    flagsOf(),
		Strength: sector.RelativeStrength{Rating: sector.Neutral, Classified: true},
	}
	res := Score("NEUTRAL", in, defaultRules(t))
	if res.ScoreLong != 0 || res.ScoreShort != 0 || len(res.Contributing) != 0 {
		t.Errorf("Expected zero scores, got %+v", res)
	}
}

func TestScore_Weights(t *testing.T) {
	rules := defaultRules(t)

	tests := []struct {
		name      string
		in        Input
		wantLong  int
		wantShort int
	}{
		{
			"full long stack",
			Input{
				Flags: flagsOf(detection.TrendLong, detection.BreakoutHigh, detection.BullishMACDCross,
					detection.MomentumLong, detection.VolumeConfirmLong, detection.NarrowCPR, detection.IBSOversold),
				Strength: sector.RelativeStrength{Classified: true, Rating: sector.Strong, SymbolReturn: 4, SectorAvgReturn: 2},
			},
			3 + 3 + 2 + 2 + 2 + 2 + 1 + 1, 0,
		},
		{
			"full short stack",
			Input{
				Flags: flagsOf(detection.TrendShort, detection.BreakoutLow, detection.BearishMACDCross,
					detection.MomentumShort, detection.VolumeConfirmShort, detection.NarrowCPR, detection.IBSOverbought),
				Strength: sector.RelativeStrength{Classified: true, Rating: sector.Weak, SymbolReturn: -4, SectorAvgReturn: -1},
			},
			0, 16,
		},
		{
			"narrow cpr without trend adds nothing",
			Input{Flags: flagsOf(detection.NarrowCPR, detection.IBSExtreme)},
			0, 0,
		},
		{
			"unclassified strong gets no sector points",
			Input{
				Flags:    flagsOf(detection.BreakoutHigh),
				Strength: sector.RelativeStrength{Classified: false, Rating: sector.Strong, SymbolReturn: 9},
			},
			3, 0,
		},
		{
			"informational flags are unweighted",
			Input{Flags: flagsOf(detection.BullishDivergence, detection.Hammer, detection.NR7, detection.VolSurge)},
			0, 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Score("SYM", tt.in, rules)
			if res.ScoreLong != tt.wantLong || res.ScoreShort != tt.wantShort {
				t.Errorf("Expected %d/%d, got %d/%d", tt.wantLong, tt.wantShort, res.ScoreLong, res.ScoreShort)
			}
			sum := 0
			for _, c := range res.Contributing {
				sum += c.Weight
			}
			if sum != res.ScoreLong+res.ScoreShort {
				t.Errorf("Contributions sum %d, scores sum %d", sum, res.ScoreLong+res.ScoreShort)
			}
		})
	}
}

func TestScore_ContributingNames(t *testing.T) {
	in := Input{Flags: flagsOf(detection.TrendLong, detection.BreakoutLow)}
	res := Score("MIX", in, defaultRules(t))

	if got := res.Names(types.Long); !reflect.DeepEqual(got, []string{"trend_long"}) {
		t.Errorf("Unexpected long names %v", got)
	}
	if got := res.Names(types.Short); !reflect.DeepEqual(got, []string{"breakout_low"}) {
		t.Errorf("Unexpected short names %v", got)
	}
	if res.Score(types.Long) != 3 || res.Score(types.Short) != 3 {
		t.Errorf("Expected 3/3, got %d/%d", res.ScoreLong, res.ScoreShort)
	}
}

func TestBuildRules_CustomAndNegativeWeights(t *testing.T) {
	w := config.Default().Weights
	w.Trend = 0
	rules, err := BuildRules(w)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	res := Score("SYM", Input{Flags: flagsOf(detection.TrendLong)}, rules)
	if res.ScoreLong != 0 || len(res.Contributing) != 0 {
		t.Errorf("Zero weight should not contribute, got %+v", res)
	}

	w.Volume = -2
	_, err = BuildRules(w)
	var cfgErr *config.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigurationError for a negative weight, got %v", err)
	}
}

func TestBuildRules_OneDirectionPerRule(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range defaultRules(t) {
		if r.Direction != types.Long && r.Direction != types.Short {
			t.Errorf("Rule %s has no direction", r.Name)
		}
		if seen[r.Name] {
			t.Errorf("Duplicate rule %s", r.Name)
		}
		seen[r.Name] = true
	}
}
