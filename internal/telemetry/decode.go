package telemetry

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Report is one structured measurement sent by a probe. Frequency probes
// fill Frequency with per-function running call totals; latency
// probes fill Function and Latencies with a bucket histogram.
type Report struct {
	Version   string
	LocalTime string
	Function  string
	Frequency map[string]uint64
	Latencies map[string]uint64
}

type wireReport struct {
	Version   string `json:"version"`
	LocalTime string `json:"localTime"`
	EBPF      *struct {
		Frequency     map[string]uint64 `json:"frequency"`
		FuncName      string            `json:"funcName"`
		FuncLatencies map[string]uint64 `json:"funcLatencies"`
	} `json:"wiredTigerEBPF"`
}

// Decode parses every JSON report in payload. Probes may pack several
// objects into one datagram back to back. A payload that is not JSON, or
// JSON without a probe section, yields no reports and no error; a payload
// that starts as JSON and then breaks yields the reports before the break
// and the error.
func Decode(payload []byte) ([]Report, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var out []Report
	for dec.More() {
		var w wireReport
		if err := dec.Decode(&w); err != nil {
			return out, fmt.Errorf("decode report %d: %w", len(out), err)
		}
		if w.EBPF == nil {
			continue
		}
		out = append(out, Report{
			Version:   w.Version,
			LocalTime: w.LocalTime,
			Function:  w.EBPF.FuncName,
			Frequency: w.EBPF.Frequency,
			Latencies: w.EBPF.FuncLatencies,
		})
	}
	return out, nil
}

// Bucket is one latency histogram bucket. Keys look like "0-1", "2-3" or
// "524288+"; Bound is the lower bound parsed from the key. Keys without a
// numeric lower bound sort last with Bound -1.
type Bucket struct {
	Key   string
	Bound int64
	Count uint64
}

// SortedBuckets returns the histogram in ascending bucket order.
func SortedBuckets(h map[string]uint64) []Bucket {
	out := make([]Bucket, 0, len(h))
	for k, c := range h {
		b := Bucket{Key: k, Bound: -1, Count: c}
		b.Bound = lowerBound(k)
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		bi, bj := out[i].Bound, out[j].Bound
		if (bi < 0) != (bj < 0) {
			return bj < 0
		}
		if bi != bj {
			return bi < bj
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func lowerBound(key string) int64 {
	lo := key
	if i := strings.IndexAny(key, "-+"); i > 0 {
		lo = key[:i]
	}
	v, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
	if err != nil || v < 0 {
		return -1
	}
	return v
}
