// Package config loads the inspection configuration: the product
// parameters, the sampling plan and the table schema, from one YAML
// file. Configuration defects are reported loudly and together at
// load time.
package config

import (
	"os"

	"github.com/ansel1/merry"
	"github.com/fpawel/netmass/aql"
	"github.com/fpawel/netmass/calc"
	"github.com/fpawel/netmass/report"
	"github.com/fpawel/netmass/schema"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Product Product      `yaml:"product"`
	Plan    aql.Plan     `yaml:"plan,omitempty"`
	Table   schema.Table `yaml:"table"`
}

// Product is the inspected product: its nominal net weight, the AQL
// parameters and the table column holding the weighed net mass.
type Product struct {
	Name          string  `yaml:"name"`
	NominalWeight float64 `yaml:"nominal_weight"`
	SampleSize    int     `yaml:"sample_size"`
	QualityLevel  string  `yaml:"quality_level"`
	NetColumn     string  `yaml:"net_column"`
}

func (x Product) Validate() error {
	if x.Name == "" {
		return merry.New("product name not set")
	}
	if !(x.NominalWeight > 0) {
		return merry.Errorf("nominal weight %v: must be positive", x.NominalWeight)
	}
	if x.SampleSize < 1 {
		return merry.Errorf("sample size %d: must be positive", x.SampleSize)
	}
	if x.QualityLevel == "" {
		return merry.New("quality level not set")
	}
	if x.NetColumn == "" {
		return merry.New("net column not set")
	}
	return nil
}

func (x Config) Validate() error {
	var errs *multierror.Error
	if err := x.Product.Validate(); err != nil {
		errs = multierror.Append(errs, merry.Prepend(err, "product"))
	}
	if err := x.Plan.Validate(); err != nil {
		errs = multierror.Append(errs, merry.Prepend(err, "plan"))
	}
	if err := x.Table.Validate(); err != nil {
		errs = multierror.Append(errs, merry.Prepend(err, "table"))
	}
	if x.Product.NetColumn != "" {
		c, ok := x.Table.ColumnByKey(x.Product.NetColumn)
		switch {
		case !ok:
			errs = multierror.Append(errs,
				merry.Errorf("net column %q is not in the table", x.Product.NetColumn))
		case c.Type != schema.TypeNumber:
			errs = multierror.Append(errs,
				merry.Errorf("net column %q must be numeric, not %s", c.Key, c.Type))
		}
	}
	return errs.ErrorOrNil()
}

// Load reads and validates the configuration file. An omitted sampling
// plan means the stock plan.
func Load(filename string) (Config, error) {
	var x Config
	data, err := os.ReadFile(filename)
	if err != nil {
		return x, merry.Wrap(err)
	}
	if err := yaml.Unmarshal(data, &x); err != nil {
		return x, merry.Prepend(err, filename)
	}
	if len(x.Plan) == 0 {
		x.Plan = aql.DefaultPlan
	}
	if err := x.Validate(); err != nil {
		return x, merry.Prepend(err, filename)
	}
	return x, nil
}

// NetValues extracts the weighed net masses from evaluated rows: the
// net column's numeric cells, zero for the unfilled ones.
func (x Config) NetValues(results []calc.Result) []float64 {
	values := make([]float64, len(results))
	for i, r := range results {
		if v, ok := r.Values[x.Product.NetColumn].(float64); ok {
			values[i] = v
		}
	}
	return values
}

// Sample assembles the report input for the weighed net masses.
func (x Config) Sample(values []float64) report.Sample {
	return report.Sample{
		Product:      x.Product.Name,
		Nominal:      x.Product.NominalWeight,
		SampleSize:   x.Product.SampleSize,
		QualityLevel: x.Product.QualityLevel,
		Values:       values,
	}
}
