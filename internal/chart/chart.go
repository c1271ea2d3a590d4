// Package chart describes charts for the front-end renderer. A Chart is pure
// data; drawing it is the renderer's job.
package chart

import "fmt"

// Kind selects how the renderer draws a chart.
type Kind string

const (
	Line       Kind = "line"
	Bar        Kind = "bar"
	StackedBar Kind = "stackedBar"
	Scatter    Kind = "scatter"
	Pie        Kind = "pie"
)

// Record is one labelled data point. Values are keyed by series key.
type Record struct {
	Label  string           `json:"label"`
	Values map[string]int64 `json:"values"`
	// Color overrides the series color for this record (per-bar colors, pie
	// slices).
	Color string `json:"color,omitempty"`
	// Annotation is drawn on or above the record, empty for none.
	Annotation string `json:"annotation,omitempty"`
}

// Series maps a value key to its legend name and color.
type Series struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Axes is the axis key mapping. YMax of 0 lets the renderer scale.
type Axes struct {
	X        string   `json:"x"`
	Y        []Series `json:"y"`
	YMax     int64    `json:"y_max,omitempty"`
	ZeroLine bool     `json:"zero_line,omitempty"`
	Ticks    string   `json:"ticks,omitempty"` // "thousands" or "grouped"
}

// Chart is the declarative description handed to the renderer.
type Chart struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	Kind     Kind     `json:"kind"`
	Data     []Record `json:"data"`
	Axes     Axes     `json:"axes"`
}

// Validate checks that every record carries a value for every series.
func (c Chart) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("chart without id")
	}
	if len(c.Axes.Y) == 0 {
		return fmt.Errorf("chart %s: no series", c.ID)
	}
	for _, r := range c.Data {
		for _, s := range c.Axes.Y {
			if _, ok := r.Values[s.Key]; !ok {
				return fmt.Errorf("chart %s: record %q has no value for %s", c.ID, r.Label, s.Key)
			}
		}
	}
	return nil
}

// Sum adds a series over all records.
func (c Chart) Sum(key string) int64 {
	var total int64
	for _, r := range c.Data {
		total += r.Values[key]
	}
	return total
}

// Stack returns a record's stacked total over all series.
func (c Chart) Stack(label string) (int64, bool) {
	for _, r := range c.Data {
		if r.Label != label {
			continue
		}
		var total int64
		for _, s := range c.Axes.Y {
			total += r.Values[s.Key]
		}
		return total, true
	}
	return 0, false
}
