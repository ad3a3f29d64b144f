package config

// RuntimeConfig is the part of Config that may change while sampling. The
// hardware and console sections are fixed once the platform is started.
type RuntimeConfig struct {
	Sampling SamplingConfig `yaml:"Sampling" json:"Sampling"`
}
