// Package tariff estimates per-product tariff cost from purchase-order data.
package tariff

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rates holds ad valorem tariff rates as fractions (0.25 = 25%).
type Rates struct {
	Default   float64            `yaml:"default" mapstructure:"default"`
	Countries map[string]float64 `yaml:"countries" mapstructure:"countries"`
	HTS       map[string]float64 `yaml:"hts" mapstructure:"hts"` // HTS prefix, digits only
}

// LoadRates reads a rates file:
//
//	default: 0.02
//	countries:
//	  CN: 0.25
//	hts:
//	  "8471": 0.0
func LoadRates(path string) (Rates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rates{}, eris.Wrapf(err, "tariff: read rates %s", path)
	}
	var r Rates
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rates{}, eris.Wrapf(err, "tariff: parse rates %s", path)
	}
	return r.normalized(), nil
}

// Merge returns r with the entries of over layered on top.
func (r Rates) Merge(over Rates) Rates {
	out := Rates{
		Default:   r.Default,
		Countries: make(map[string]float64, len(r.Countries)+len(over.Countries)),
		HTS:       make(map[string]float64, len(r.HTS)+len(over.HTS)),
	}
	if over.Default != 0 {
		out.Default = over.Default
	}
	for k, v := range r.Countries {
		out.Countries[k] = v
	}
	for k, v := range over.Countries {
		out.Countries[k] = v
	}
	for k, v := range r.HTS {
		out.HTS[k] = v
	}
	for k, v := range over.HTS {
		out.HTS[k] = v
	}
	return out.normalized()
}

func (r Rates) normalized() Rates {
	countries := make(map[string]float64, len(r.Countries))
	for k, v := range r.Countries {
		countries[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	hts := make(map[string]float64, len(r.HTS))
	for k, v := range r.HTS {
		hts[strings.ReplaceAll(strings.TrimSpace(k), ".", "")] = v
	}
	r.Countries = countries
	r.HTS = hts
	return r
}

func (r Rates) validate() error {
	check := func(what string, v float64) error {
		if v < 0 || v > 5 {
			return eris.Errorf("tariff: %s rate %.4f out of range", what, v)
		}
		return nil
	}
	if err := check("default", r.Default); err != nil {
		return err
	}
	for k, v := range r.Countries {
		if err := check("country "+k, v); err != nil {
			return err
		}
	}
	for k, v := range r.HTS {
		if err := check("hts "+k, v); err != nil {
			return err
		}
	}
	return nil
}
