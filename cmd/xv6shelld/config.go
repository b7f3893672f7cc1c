package main

import "github.com/milicatosic02/xv6-Shared-Memory-Support/kernel"

// Config is the flag/viper-bindable surface over kernel.Limits. It
// mirrors gcsfuse's cfg.Config in spirit: a plain struct shaped for
// viper.Unmarshal, with a conversion step into the type the rest of the
// program actually uses.
type Config struct {
	NOFILE       int `mapstructure:"nofile"`
	NOSYSSHM     int `mapstructure:"nosysshm"`
	NOPROCESSSHM int `mapstructure:"noprocessshm"`
	SHMMAXPAGES  int `mapstructure:"shmmaxpages"`
	MAXARG       int `mapstructure:"maxarg"`
	DIRSIZ       int `mapstructure:"dirsiz"`
	PGSIZE       int `mapstructure:"pgsize"`
}

func defaultConfig() Config {
	d := kernel.DefaultLimits()
	return Config{
		NOFILE:       d.NOFILE,
		NOSYSSHM:     d.NOSYSSHM,
		NOPROCESSSHM: d.NOPROCESSSHM,
		SHMMAXPAGES:  d.SHMMAXPAGES,
		MAXARG:       d.MAXARG,
		DIRSIZ:       d.DIRSIZ,
		PGSIZE:       d.PGSIZE,
	}
}

func (c Config) limits() kernel.Limits {
	return kernel.Limits{
		NOFILE:       c.NOFILE,
		NOSYSSHM:     c.NOSYSSHM,
		NOPROCESSSHM: c.NOPROCESSSHM,
		SHMMAXPAGES:  c.SHMMAXPAGES,
		MAXARG:       c.MAXARG,
		DIRSIZ:       c.DIRSIZ,
		PGSIZE:       c.PGSIZE,
	}
}
