// Package export writes aggregated telemetry as a pprof profile so it can be
// opened with `go tool pprof`.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/pprof/profile"

	"github.com/wiredtiger/wttrace/internal/telemetry"
)

// ErrEmpty is returned when there is no telemetry to export.
var ErrEmpty = errors.New("no telemetry to export")

// Build converts a snapshot into a profile with one sample per traced
// function. The sample values are the function's total calls and the
// number of latency observations in its last histogram.
func Build(snap telemetry.Snapshot, lib string, at time.Time) (*profile.Profile, error) {
	if len(snap.Functions) == 0 {
		return nil, ErrEmpty
	}

	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "calls", Unit: "count"},
			{Type: "latency_samples", Unit: "count"},
		},
		TimeNanos: at.UnixNano(),
	}
	if lib != "" {
		prof.Mapping = []*profile.Mapping{{ID: 1, File: lib}}
	}

	for i, fs := range snap.Functions {
		id := uint64(i + 1)
		fn := &profile.Function{
			ID:         id,
			Name:       fs.Name,
			SystemName: fs.Name,
			Filename:   lib,
		}
		loc := &profile.Location{
			ID:   id,
			Line: []profile.Line{{Function: fn}},
		}
		if len(prof.Mapping) > 0 {
			loc.Mapping = prof.Mapping[0]
		}
		prof.Function = append(prof.Function, fn)
		prof.Location = append(prof.Location, loc)

		var observed int64
		for _, b := range fs.Latencies {
			observed += int64(b.Count)
		}
		prof.Sample = append(prof.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{int64(fs.Calls), observed},
		})
	}

	if err := prof.CheckValid(); err != nil {
		return nil, fmt.Errorf("build profile: %w", err)
	}
	return prof, nil
}

// WriteProfile writes the gzipped profile for snap to w.
func WriteProfile(w io.Writer, snap telemetry.Snapshot, lib string, at time.Time) error {
	prof, err := Build(snap, lib, at)
	if err != nil {
		return err
	}
	return prof.Write(w)
}

// SaveFile writes the profile to dir as wttrace-<unix seconds>.pb.gz and
// returns the path.
func SaveFile(dir string, snap telemetry.Snapshot, lib string, at time.Time) (string, error) {
	prof, err := Build(snap, lib, at)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("wttrace-%d.pb.gz", at.Unix()))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := prof.Write(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
