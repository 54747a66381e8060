package heat

import (
	"math"

	"github.com/okian/heatcheck/internal/domain/archetype"
	"github.com/okian/heatcheck/internal/domain/model"
)

// Fixed physiological and environmental constants of the model.
const (
	barometricKPa      = 101.9 // no stage reads it
	movementAirSpeed   = 1.5   // m/s added for player movement
	respiratoryRatio   = 0.95
	clothingTempC      = 36.0
	skinTempC          = 36.0
	emissivity         = 0.95
	radiatingArea      = 0.35
	clothingClo        = 0.4
	clothingEvapResist = 0.012
	stefanBoltzmann    = 5.67e-8
	stillAirHc         = 3.16006
	stillAirSpeed      = 0.2
	expiredAirVP       = 5.86618428 // kPa at the expired-air reference temperature
	latentHeatJPerG    = 2427.0
	saturatedEff       = 0.6

	// minEvapCapacity is the per-kg evaporative capacity (W/kg) below which
	// wettedness is treated as undefined.
	minEvapCapacity = 1e-6
)

// Breakdown holds every intermediate value of one archetype's heat balance.
type Breakdown struct {
	Player string

	MeanRadiantC   float64 // Tr
	AirVelocity    float64 // effective, m/s
	BSA            float64 // m²
	VO2            float64 // L/min
	VapourKPa      float64 // Pa
	Metabolic      float64 // W
	MetabolicM2    float64 // W/m²
	ClothingFactor float64 // fcl
	Hc             float64
	Hr             float64
	H              float64
	OperativeC     float64 // To
	ClothingResist float64 // Rcl
	Dry            float64 // W/m²
	Resp           float64 // W/m²
	Ereq           float64 // W/m²
	EskMax         float64 // W/m²
	EreqKg         float64 // W/kg
	EskMaxKg       float64 // W/kg
	Wettedness     float64
	Efficiency     float64
	HLE            float64 // W/m²
	SweatGHr       float64

	HSI          float64 // rounded
	SweatRateLHr float64 // rounded
	Degenerate   bool
}

// Stage is one named intermediate value.
type Stage struct {
	Name  string
	Value float64
}

// Stages lists the intermediate values in pipeline order.
func (b Breakdown) Stages() []Stage {
	return []Stage{
		{"mean_radiant_temp", b.MeanRadiantC},
		{"air_velocity", b.AirVelocity},
		{"bsa", b.BSA},
		{"vo2", b.VO2},
		{"vapour_pressure", b.VapourKPa},
		{"metabolic_rate", b.Metabolic},
		{"metabolic_rate_m2", b.MetabolicM2},
		{"clothing_area_factor", b.ClothingFactor},
		{"hc", b.Hc},
		{"hr", b.Hr},
		{"h", b.H},
		{"operative_temp", b.OperativeC},
		{"clothing_resistance", b.ClothingResist},
		{"dry_heat", b.Dry},
		{"respiratory_heat", b.Resp},
		{"ereq", b.Ereq},
		{"esk_max", b.EskMax},
		{"ereq_kg", b.EreqKg},
		{"esk_max_kg", b.EskMaxKg},
		{"wettedness", b.Wettedness},
		{"efficiency", b.Efficiency},
		{"heat_loss_equivalent", b.HLE},
		{"sweat_g_hr", b.SweatGHr},
	}
}

// saturationVP approximates saturation vapour pressure (kPa) at t °C.
func saturationVP(t float64) float64 {
	return math.Exp(18.956-4030.18/(t+235)) / 10
}

// meanRadiant derives Tr from the globe reading corrected for air movement.
func meanRadiant(ta, tg, v float64) float64 {
	k := tg + 273
	return math.Pow(k*k*k*k+2.5e8*math.Pow(v, 0.6)*(tg-ta), 0.25) - 273
}

// duBois returns body surface area in m².
func duBois(weightKg, heightM float64) float64 {
	return 0.202 * math.Pow(weightKg, 0.425) * math.Pow(heightM, 0.725)
}

func metabolicRate(vo2 float64) float64 {
	if respiratoryRatio < 1 {
		return vo2 * (0.23*respiratoryRatio + 0.77) * 5.88 * 60
	}
	return vo2 * 5.88 * 60
}

func convectiveCoefficient(velocity float64) float64 {
	if velocity < stillAirSpeed {
		return stillAirHc
	}
	return 0.7 * 8.3 * math.Pow(velocity, 0.6)
}

func radiativeCoefficient(tr float64) float64 {
	t := 273.2 + (clothingTempC+tr)/2
	return 4 * emissivity * stefanBoltzmann * radiatingArea * t * t * t
}

func sweatingEfficiency(w float64) float64 {
	if w < 1 {
		return 1 - w*w/2
	}
	return saturatedEff
}

// balance runs the full pipeline for one archetype. Rounding and the
// degenerate check are applied by the caller.
func balance(p archetype.PlayerArchetype, env model.EnvironmentInput) Breakdown {
	ta := env.AirTempC
	b := Breakdown{Player: p.Name}

	b.MeanRadiantC = meanRadiant(ta, env.GlobeTempC, env.AirSpeedMS)
	b.AirVelocity = env.AirSpeedMS + movementAirSpeed
	b.BSA = duBois(p.WeightKg, p.HeightM)
	b.VO2 = p.VO2Rate * p.WeightKg / 1000
	b.VapourKPa = saturationVP(ta) * env.HumidityPct / 100

	b.Metabolic = metabolicRate(b.VO2)
	b.MetabolicM2 = b.Metabolic / b.BSA

	b.ClothingFactor = 1 + 0.31*clothingClo
	b.Hc = convectiveCoefficient(b.AirVelocity)
	b.Hr = radiativeCoefficient(b.MeanRadiantC)
	b.H = b.Hc + b.Hr
	b.OperativeC = (b.Hr*b.MeanRadiantC + b.Hc*ta) / b.H
	b.ClothingResist = 0.155 * clothingClo
	b.Dry = (skinTempC - b.OperativeC) / (b.ClothingResist + 1/(b.ClothingFactor*b.H))

	b.Resp = 0.0014*b.MetabolicM2*(34-ta) + 0.0173*b.MetabolicM2*(expiredAirVP-b.VapourKPa)
	b.Ereq = b.MetabolicM2 - b.Dry - b.Resp
	b.EskMax = (saturationVP(skinTempC) - b.VapourKPa) /
		(clothingEvapResist + 1/(b.ClothingFactor*16.5*b.Hc))

	b.EreqKg = b.Ereq * b.BSA / p.WeightKg
	b.EskMaxKg = b.EskMax * b.BSA / p.WeightKg

	b.Wettedness = b.EreqKg / b.EskMaxKg
	b.Efficiency = sweatingEfficiency(b.Wettedness)
	b.HLE = b.Ereq / b.Efficiency
	b.SweatGHr = b.HLE * b.BSA * 3600 / latentHeatJPerG
	return b
}
