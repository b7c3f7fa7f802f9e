// Package export renders recorded runs as standalone SVG charts.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/reactorlab/pwrsim/internal/storage"
)

const (
	panelWidth   = 900
	panelHeight  = 220
	marginLeft   = 64
	marginRight  = 16
	marginTop    = 24
	marginBottom = 16
)

// Trace colors, cycled in column order
var traceColors = []string{"#00ff88", "#00ccff", "#ffcc00", "#ff6688", "#cc88ff", "#88ffcc"}

// ChartSVG renders the named columns as stacked line panels sharing the
// time axis. Non-finite samples are dropped from the trace.
func ChartSVG(series *storage.Series, columns []string) (string, error) {
	if series == nil || len(series.Times) < 2 {
		return "", fmt.Errorf("export: need at least two samples")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("export: no columns selected")
	}

	t0 := series.Times[0]
	span := series.Times[len(series.Times)-1] - t0
	if span <= 0 {
		return "", fmt.Errorf("export: time axis has no span")
	}

	totalH := len(columns) * panelHeight

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, panelWidth, totalH, panelWidth, totalH))

	for i, col := range columns {
		data, ok := series.Column(col)
		if !ok {
			return "", fmt.Errorf("export: unknown column %s", col)
		}
		writePanel(&sb, col, traceColors[i%len(traceColors)], data, series.Times, t0, span, i*panelHeight)
	}

	sb.WriteString("</svg>\n")
	return sb.String(), nil
}

func writePanel(sb *strings.Builder, name, color string, data, times []float64, t0, span float64, top int) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo > hi {
		lo, hi = 0, 1
	}
	if hi == lo {
		// flat traces draw along the panel middle
		lo -= 0.5
		hi += 0.5
	}

	plotW := float64(panelWidth - marginLeft - marginRight)
	plotH := float64(panelHeight - marginTop - marginBottom)
	plotTop := float64(top + marginTop)

	var pts strings.Builder
	for j, v := range data {
		if j >= len(times) || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		x := float64(marginLeft) + (times[j]-t0)/span*plotW
		y := plotTop + (1-(v-lo)/(hi-lo))*plotH
		if pts.Len() > 0 {
			pts.WriteByte(' ')
		}
		pts.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
	}

	sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%.0f" width="%.0f" height="%.0f" fill="none" stroke="#333344"/>
`, marginLeft, plotTop, plotW, plotH))
	sb.WriteString(fmt.Sprintf(`<polyline points="%s" fill="none" stroke="%s" stroke-width="1.5"/>
`, pts.String(), color))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.0f" fill="#aaaabb" font-family="monospace" font-size="12">%s</text>
`, marginLeft, plotTop-8, name))
	sb.WriteString(fmt.Sprintf(`<text x="4" y="%.0f" fill="#666677" font-family="monospace" font-size="10">%.4g</text>
`, plotTop+10, hi))
	sb.WriteString(fmt.Sprintf(`<text x="4" y="%.0f" fill="#666677" font-family="monospace" font-size="10">%.4g</text>
`, plotTop+plotH, lo))
}
