package dataset

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultSamples = 1000
	DefaultSeed    = 42
)

// Feature ranges and noise levels of the synthetic process.
const (
	TemperatureMin, TemperatureMax = 200.0, 1000.0
	PressureMin, PressureMax       = 1.0, 10.0
	TimeMin, TimeMax               = 1.0, 100.0

	TensileNoiseStd      = 50.0
	ConductivityNoiseStd = 30.0
)

// TensileStrength is the noiseless tensile strength for the given process parameters.
func TensileStrength(temperature, pressure, time float64) float64 {
	return 0.5*temperature + 2.3*pressure + 1.1*time
}

// Conductivity is the noiseless conductivity for the given process parameters.
func Conductivity(temperature, pressure, time float64) float64 {
	return 0.3*temperature - 1.2*pressure + 0.8*time
}

// Generate draws n samples from a source seeded with seed. Columns are drawn
// one after another (all temperatures, then all pressures, ...) so the result
// depends only on n and seed.
func Generate(n int, seed uint64) Dataset {
	if n <= 0 {
		return Dataset{}
	}
	src := rand.NewSource(seed)

	temperature := draw(n, distuv.Uniform{Min: TemperatureMin, Max: TemperatureMax, Src: src})
	pressure := draw(n, distuv.Uniform{Min: PressureMin, Max: PressureMax, Src: src})
	time := draw(n, distuv.Uniform{Min: TimeMin, Max: TimeMax, Src: src})
	tensileNoise := draw(n, distuv.Normal{Mu: 0, Sigma: TensileNoiseStd, Src: src})
	conductivityNoise := draw(n, distuv.Normal{Mu: 0, Sigma: ConductivityNoiseStd, Src: src})

	ds := make(Dataset, n)
	for i := range ds {
		ds[i] = Sample{
			Temperature:     temperature[i],
			Pressure:        pressure[i],
			Time:            time[i],
			TensileStrength: TensileStrength(temperature[i], pressure[i], time[i]) + tensileNoise[i],
			Conductivity:    Conductivity(temperature[i], pressure[i], time[i]) + conductivityNoise[i],
		}
	}
	return ds
}

func draw(n int, dist distuv.Rander) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}
