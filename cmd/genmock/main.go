// Command genmock writes a synthetic LINC calibrator tree for demos and test
// fixtures. Each observation gets an L<id>/ directory holding one
// <calibrator>_L<id>_calibrator_summary.json file. Output is reproducible for a
// given -seed.
//
// Usage:
//
//	go run ./cmd/genmock -out data/cal_json -observations 200 -seed 7
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/couchcryptid/cal-flagging-metrics/internal/domain"
	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var calibrators = []string{"3C196", "3C48", "3C147", "3C295"}

// internationalStations are the non-Dutch LOFAR stations.
var internationalStations = []string{
	"DE601HBA", "DE602HBA", "DE603HBA", "DE604HBA", "DE605HBA", "DE609HBA",
	"FR606HBA", "SE607HBA", "UK608HBA", "PL610HBA", "PL611HBA", "PL612HBA",
	"IE613HBA", "LV614HBA",
}

var remoteStations = []string{
	"RS106HBA", "RS205HBA", "RS208HBA", "RS210HBA", "RS305HBA", "RS306HBA",
	"RS307HBA", "RS310HBA", "RS406HBA", "RS407HBA", "RS409HBA", "RS503HBA",
	"RS508HBA", "RS509HBA",
}

type genStation struct {
	Station           string `json:"station"`
	PercentageFlagged struct {
		Initial float64 `json:"initial"`
		Final   float64 `json:"final"`
	} `json:"percentage_flagged"`
}

type genSummary struct {
	ObsID   string `json:"obsid"`
	Metrics struct {
		LINC struct {
			FieldName string       `json:"field_name"`
			Stations  []genStation `json:"stations"`
		} `json:"LINC"`
	} `json:"metrics"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "directory to write the calibrator tree into")
	n := flag.Int("observations", 50, "number of observations to generate")
	seed := flag.Uint64("seed", 1, "random seed")
	badFrac := flag.Float64("bad-fraction", 0.2, "fraction of observations with heavy flagging")
	flag.Parse()

	if *out == "" || *n <= 0 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out, -observations > 0")
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	summarizer := domain.NewSummarizer(domain.DefaultPolicy())
	stationCount := 0

	for i := range *n {
		obsID := fmt.Sprintf("L%06d", 700000+i*137)
		cal := calibrators[rng.IntN(len(calibrators))]
		doc := generate(rng, obsID, cal, rng.Float64() < *badFrac)

		path := filepath.Join(*out, obsID, fmt.Sprintf("%s_%s_calibrator_summary.json", cal, obsID))
		if err := writeJSON(path, doc); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}

		records := make([]domain.StationRecord, len(doc.Metrics.LINC.Stations))
		for j, s := range doc.Metrics.LINC.Stations {
			records[j] = domain.StationRecord{StationID: s.Station, FlaggedPercentage: s.PercentageFlagged.Final}
		}
		stationCount += len(records)
		summarizer.Add(domain.ComputeMetrics(obsID, cal, records, domain.DefaultPolicy().FlagThreshold))
	}

	log.Printf("wrote %s observations (%s stations) to %s", humanize.Comma(int64(*n)), humanize.Comma(int64(stationCount)), *out)
	printStats(summarizer.Finalize())
	return nil
}

// generate builds one observation. Heavy observations push most stations
// above the default threshold.
func generate(rng *rand.Rand, obsID, cal string, heavy bool) genSummary {
	var doc genSummary
	doc.ObsID = obsID
	doc.Metrics.LINC.FieldName = cal

	flagged := func() float64 {
		base := rng.ExpFloat64() * 8
		if heavy && rng.Float64() < 0.7 {
			base = 70 + rng.Float64()*30
		}
		return min(base, 100)
	}

	add := func(name string) {
		var s genStation
		s.Station = name
		s.PercentageFlagged.Final = round2(flagged())
		s.PercentageFlagged.Initial = round2(s.PercentageFlagged.Final * rng.Float64())
		doc.Metrics.LINC.Stations = append(doc.Metrics.LINC.Stations, s)
	}

	// Core stations appear as two HBA sub-fields each; a few are missing per run.
	for i := 1; i <= 24; i++ {
		if rng.Float64() < 0.05 {
			continue
		}
		add(fmt.Sprintf("CS%03dHBA0", i))
		add(fmt.Sprintf("CS%03dHBA1", i))
	}
	for _, s := range remoteStations {
		if rng.Float64() < 0.1 {
			continue
		}
		add(s)
	}
	// Some observations run without the international stations.
	if rng.Float64() < 0.8 {
		for _, s := range internationalStations {
			add(s)
		}
	}
	return doc
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(sum domain.PopulationSummary) {
	fmt.Println("\n=== Expected results at default thresholds ===")
	for _, c := range domain.Classes() {
		fmt.Printf("%-13s %s (%d with stations)\n", c.String()+":", sum.PassTotal(c), sum.WithData[c])
	}
	fmt.Println("Calibrators:")
	for _, cc := range sum.Calibrators() {
		fmt.Printf("  %s=%d\n", cc.Name, cc.Count)
	}
}
