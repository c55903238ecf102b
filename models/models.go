package models

import (
	"github.com/golang-jwt/jwt/v4"
)

// --- JWT & Auth ---

type JwtClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// --- Charts ---

// Chart kinds understood by the display layer.
const (
	ChartBar       = "bar"
	ChartLine      = "line"
	ChartHistogram = "histogram"
	ChartScatter   = "scatter"
	ChartGauge     = "gauge"
)

// ChartPoint is a single labelled or numeric data point.
type ChartPoint struct {
	Label string  `json:"label,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// HistogramBin counts values in [Lower, Upper). The last bin is closed.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// GaugeStep is a colored range on a gauge axis.
type GaugeStep struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Color string  `json:"color"`
}

// Gauge describes a single-value indicator.
type Gauge struct {
	Value float64     `json:"value"`
	Min   float64     `json:"min"`
	Max   float64     `json:"max"`
	Steps []GaugeStep `json:"steps"`
}

// ChartSpec carries the data for one chart. Rendering is left to the client.
type ChartSpec struct {
	ID     string         `json:"id"`
	Kind   string         `json:"kind"`
	Title  string         `json:"title"`
	XLabel string         `json:"x_label,omitempty"`
	YLabel string         `json:"y_label,omitempty"`
	Points []ChartPoint   `json:"points,omitempty"`
	Bins   []HistogramBin `json:"bins,omitempty"`
	Gauge  *Gauge         `json:"gauge,omitempty"`
}

// --- Roles ---

const (
	RoleAdmin     = "admin"
	RoleAnalyst   = "analyst"
	RoleExecutive = "executive"
)
