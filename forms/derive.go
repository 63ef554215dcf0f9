package forms

import (
	"math"
	"strings"

	"github.com/lvillar/formpdf/formdoc"
)

// Verdict and status labels written by derivations.
const (
	Approved     = "APROBADO"
	Rejected     = "RECHAZADO"
	Conforming   = "CONFORME"
	Nonconform   = "NO CONFORME"
	Pass         = "PASA"
	Fail         = "FALLA"
	Admitted     = "ADMITIDO"
	Produced     = "PRODUCIDO"
	PressureHigh = "ALTA"
	PressureOK   = "NORMAL"
)

var builtinDerivations = map[string]DeriveFunc{
	"accumulator-test":       deriveAccumulator,
	"bump-test":              deriveBumpTest,
	"torque-register":        deriveTorque,
	"tower-pressure-log":     deriveTowerPressure,
	"inertia-test":           deriveInertia,
	"fluid-balance":          deriveFluidBalance,
	"performance-evaluation": derivePerformance,
}

// UsableVolume is the fluid an accumulator bottle of nominal volume vt,
// precharged to precharge, delivers while falling from maxP to minP
// (Boyle's law, absolute pressures assumed).
func UsableVolume(vt, precharge, minP, maxP float64) float64 {
	if vt <= 0 || precharge <= 0 || minP <= 0 || maxP <= minP {
		return 0
	}
	return vt * (precharge/minP - precharge/maxP)
}

// SafetyMargin is (rated - measured) / rated as a percentage.
func SafetyMargin(rated, measured float64) float64 {
	if rated == 0 {
		return 0
	}
	return (rated - measured) / rated * 100
}

// Deviation is (measured - target) / target as a percentage.
func Deviation(target, measured float64) float64 {
	if target == 0 {
		return 0
	}
	return (measured - target) / target * 100
}

// Rating is the performance band for an average 1-5 score.
func Rating(avg float64) string {
	switch {
	case avg >= 4.5:
		return "EXCELENTE"
	case avg >= 3.5:
		return "BUENO"
	case avg >= 2.5:
		return "REGULAR"
	}
	return "DEFICIENTE"
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func num(v any) (float64, bool) {
	return formdoc.Float(v)
}

func blank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// fill stores v under key when the row leaves it blank.
func fill(row formdoc.Row, key string, v any) {
	if blank(row[key]) {
		row[key] = v
	}
}

// fillNumber is fill for computed numbers. It returns the value in effect:
// the row's own number when it has one, v otherwise.
func fillNumber(row formdoc.Row, key string, v float64) float64 {
	if blank(row[key]) {
		row[key] = v
		return v
	}
	if cur, ok := num(row[key]); ok {
		return cur
	}
	return v
}

func fillField(r *formdoc.Report, key string, v any) {
	if blank(r.Field(key)) {
		r.SetField(key, v)
	}
}

func fillFieldNumber(r *formdoc.Report, key string, v float64) float64 {
	if blank(r.Field(key)) {
		r.SetField(key, v)
		return v
	}
	if cur, ok := num(r.Field(key)); ok {
		return cur
	}
	return v
}

func deriveAccumulator(r *formdoc.Report) {
	pp, okP := num(r.Field("precharge"))
	minP, okMin := num(r.Field("min_pressure"))
	maxP, okMax := num(r.Field("max_pressure"))

	total, counted := 0.0, 0
	for _, row := range r.Tables["bottles"] {
		vt, okV := num(row["volume"])
		if !okV || !okMin || !okMax {
			continue
		}
		measured, okM := num(row["precharge"])
		if !okM {
			measured, okM = pp, okP
		}
		if !okM {
			continue
		}
		total += fillNumber(row, "usable", round2(UsableVolume(vt, measured, minP, maxP)))
		counted++

		if okP {
			result := Nonconform
			if math.Abs(measured-pp) <= pp*0.1 {
				result = Conforming
			}
			fill(row, "result", result)
		}
	}

	for _, row := range r.Tables["closing_times"] {
		secs, ok1 := num(row["seconds"])
		limit, ok2 := num(row["max_seconds"])
		if ok1 && ok2 {
			result := Nonconform
			if secs <= limit {
				result = Conforming
			}
			fill(row, "result", result)
		}
	}

	if counted == 0 {
		return
	}
	total = fillFieldNumber(r, "total_usable", round2(total))
	if req, ok := num(r.Field("required_volume")); ok {
		verdict := Rejected
		if total >= req {
			verdict = Approved
		}
		fillField(r, "verdict", verdict)
	}
}

func deriveBumpTest(r *formdoc.Report) {
	expected, ok := num(r.Field("gas_concentration"))
	if !ok || expected == 0 {
		return
	}
	tol, ok := num(r.Field("tolerance"))
	if !ok {
		tol = 10
	}
	for _, row := range r.Tables["detectors"] {
		reading, ok := num(row["reading"])
		if !ok {
			continue
		}
		result := Fail
		if math.Abs(Deviation(expected, reading)) <= tol {
			result = Pass
		}
		fill(row, "result", result)
	}
}

func deriveTorque(r *formdoc.Report) {
	tol, ok := num(r.Field("tolerance"))
	if !ok {
		tol = 5
	}
	for _, row := range r.Tables["connections"] {
		target, ok1 := num(row["target"])
		measured, ok2 := num(row["measured"])
		if !ok1 || !ok2 || target == 0 {
			continue
		}
		dev := fillNumber(row, "deviation", round2(Deviation(target, measured)))
		result := Nonconform
		if math.Abs(dev) <= tol {
			result = Conforming
		}
		fill(row, "result", result)
	}
}

func deriveTowerPressure(r *formdoc.Report) {
	limit, ok := num(r.Field("max_pressure"))
	if !ok {
		return
	}
	for _, row := range r.Tables["readings"] {
		casing, okC := num(row["casing"])
		tubing, okT := num(row["tubing"])
		if !okC && !okT {
			continue
		}
		status := PressureOK
		if (okC && casing > limit) || (okT && tubing > limit) {
			status = PressureHigh
		}
		fill(row, "status", status)
	}
}

func deriveInertia(r *formdoc.Report) {
	rated, ok := num(r.Field("rated_load"))
	if !ok || rated == 0 {
		return
	}
	minMargin, ok := num(r.Field("min_margin"))
	if !ok {
		minMargin = 20
	}
	verdict := func(margin float64) string {
		if margin >= minMargin {
			return Approved
		}
		return Rejected
	}

	peak, found := 0.0, false
	for _, row := range r.Tables["trials"] {
		m, ok := num(row["measured"])
		if !ok {
			continue
		}
		margin := fillNumber(row, "margin", round2(SafetyMargin(rated, m)))
		fill(row, "result", verdict(margin))
		if !found || m > peak {
			peak, found = m, true
		}
	}

	if m, ok := num(r.Field("measured_load")); ok {
		peak, found = m, true
	}
	if !found {
		return
	}
	fillField(r, "measured_load", peak)
	margin := fillFieldNumber(r, "margin", round2(SafetyMargin(rated, peak)))
	fillField(r, "verdict", verdict(margin))
}

func deriveFluidBalance(r *formdoc.Report) {
	defaultFactor, hasDefault := num(r.Field("tank_factor"))

	admitted, produced, counted := 0.0, 0.0, false
	for _, row := range r.Tables["movements"] {
		initial, ok1 := num(row["initial"])
		final, ok2 := num(row["final"])
		if !ok1 || !ok2 {
			continue
		}
		factor, ok := num(row["factor"])
		if !ok {
			if !hasDefault {
				continue
			}
			factor = defaultFactor
			row["factor"] = factor
		}

		vol := fillNumber(row, "volume", round2((final-initial)*factor))
		switch {
		case vol > 0:
			fill(row, "type", Admitted)
			admitted += vol
		case vol < 0:
			fill(row, "type", Produced)
			produced += -vol
		}
		counted = true
	}

	if !counted {
		return
	}
	admitted = fillFieldNumber(r, "total_admitted", round2(admitted))
	produced = fillFieldNumber(r, "total_produced", round2(produced))
	fillFieldNumber(r, "net", round2(admitted-produced))
}

func derivePerformance(r *formdoc.Report) {
	sum, n := 0.0, 0
	for _, row := range r.Tables["criteria"] {
		s, ok := num(row["score"])
		if !ok {
			continue
		}
		sum += s
		n++
	}
	if n == 0 {
		return
	}
	avg := fillFieldNumber(r, "average", round2(sum/float64(n)))
	fillField(r, "rating", Rating(avg))
}
