//go:build !rp2040

package paramstore

import "github.com/andreyvit/tinyjson"

// embeddedDefaultsJSON is the host/simulation build's initial parameter
// snapshot, in the same embedded-raw-JSON-string style this codebase
// keeps its per-device configuration in.
const embeddedDefaultsJSON = `{
	"plungerInPos": 50,
	"plungerOutPos": -50,
	"posPerMl": 117,
	"mlToPump": 2000,
	"motorPwm": 100,
	"tempCalOffset": -266,
	"rebootInterval": 1440
}`

// LoadDefaults decodes the embedded default snapshot via tinyjson.
// Any field missing or mistyped in the blob falls back to
// ReferenceDefaults rather than failing the boot.
func LoadDefaults() Defaults {
	r := tinyjson.Raw(embeddedDefaultsJSON)
	val := r.Value()
	r.EnsureEOF()

	m, ok := val.(map[string]any)
	if !ok {
		return ReferenceDefaults
	}
	return Defaults{
		PlungerInPos:   int16(numberField(m, "plungerInPos", float64(ReferenceDefaults.PlungerInPos))),
		PlungerOutPos:  int16(numberField(m, "plungerOutPos", float64(ReferenceDefaults.PlungerOutPos))),
		PosPerMl:       uint16(numberField(m, "posPerMl", float64(ReferenceDefaults.PosPerMl))),
		MlToPump:       uint16(numberField(m, "mlToPump", float64(ReferenceDefaults.MlToPump))),
		MotorPwm:       uint8(numberField(m, "motorPwm", float64(ReferenceDefaults.MotorPwm))),
		TempCalOffset:  int16(numberField(m, "tempCalOffset", float64(ReferenceDefaults.TempCalOffset))),
		RebootInterval: uint16(numberField(m, "rebootInterval", float64(ReferenceDefaults.RebootInterval))),
	}
}

func numberField(m map[string]any, key string, fallback float64) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return fallback
}
