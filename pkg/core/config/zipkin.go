package config

type ZipkinConfig struct {
	Url string `yaml:"url"`
}

func (z ZipkinConfig) Enabled() bool {
	return z.Url != ""
}
