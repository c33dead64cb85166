package scenario

import (
	"fmt"
	"math"
	"time"
)

// BuiltIn returns the predefined scenarios.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"single-pass": {
			Name:        "single-pass",
			Description: "One aircraft crosses the scope from west to east through the radar site.",
			Waves: []Wave{{
				Name:    "inbound",
				Targets: []Target{{Callsign: "SOLO01", Bearing: 180, Range: 0.9, Heading: 0, Speed: 30}},
			}},
		},
		"crossing": {
			Name:        "crossing",
			Description: "Two aircraft on perpendicular tracks converge near the site, a third joins later.",
			Waves: []Wave{
				{
					Name: "pair",
					Targets: []Target{
						{Callsign: "XING01", Bearing: 180, Range: 0.8, Heading: 0, Speed: 25},
						{Callsign: "XING02", Bearing: 90, Range: 0.8, Heading: 270, Speed: 25},
					},
				},
				{
					Name:    "late",
					At:      10 * time.Second,
					Targets: []Target{{Callsign: "XING03", Bearing: 45, Range: 0.95, Heading: 225, Speed: 35}},
				},
			},
		},
		"saturation": {
			Name:        "saturation",
			Description: "Rings of inbound aircraft arrive every five seconds until the tracker is busy.",
			Waves:       saturationWaves(4, 8, 5*time.Second),
		},
	}
}

// saturationWaves builds n waves of k targets evenly spaced around the edge
// of the scope, all heading for the site.
func saturationWaves(n, k int, every time.Duration) []Wave {
	waves := make([]Wave, n)
	for i := range waves {
		// Each ring is rotated so that successive waves do not overlap.
		offset := float64(i) * 360 / float64(k*n)
		targets := make([]Target, k)
		for j := range targets {
			bearing := math.Mod(offset+float64(j)*360/float64(k), 360)
			targets[j] = Target{
				Callsign: fmt.Sprintf("SAT%d%02d", i+1, j+1),
				Bearing:  bearing,
				Range:    0.95,
				Heading:  math.Mod(bearing+180, 360),
				Speed:    15 + 5*float64(i),
			}
		}
		waves[i] = Wave{
			Name:    fmt.Sprintf("ring-%d", i+1),
			At:      time.Duration(i) * every,
			Targets: targets,
		}
	}
	return waves
}
