package cmd

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var replacer = strings.NewReplacer(".", "_", "-", "_")

type argType interface {
	string | bool | int | time.Duration
}

// envName returns the explicit environment variable of cfg, or one derived from its flag name.
func envName[T argType](cfg boundEnvVar[T]) string {
	if cfg.Env != nil {
		return *cfg.Env
	}
	return strings.ToUpper(replacer.Replace(cfg.Name))
}

// bindEnvMap registers a persistent flag per entry. The current value of the bound variable is the flag
// default, unless the entry's explicit environment variable is set.
func bindEnvMap[T argType](cmd *cobra.Command, m map[*T]boundEnvVar[T]) {
	flags := cmd.PersistentFlags()
	for v, cfg := range m {
		env := envName(cfg)
		desc := fmt.Sprintf("[%s] %s", env, cfg.Description)
		short := ""
		if cfg.Short != nil {
			short = *cfg.Short
		}
		_, fromEnv := os.LookupEnv(env)
		fromEnv = fromEnv && cfg.Env != nil

		switch vt := any(v).(type) {
		case *string:
			def := *vt
			if fromEnv {
				def = os.Getenv(env)
			}
			flags.StringVarP(vt, cfg.Name, short, def, desc)
		case *bool:
			def := *vt
			if fromEnv {
				def = viper.GetBool(env)
			}
			flags.BoolVarP(vt, cfg.Name, short, def, desc)
		case *int:
			def := *vt
			flags.CountVarP(vt, cfg.Name, short, desc)
			_ = flags.Lookup(cfg.Name).Value.Set(strconv.Itoa(def))
		case *time.Duration:
			def := *vt
			if fromEnv {
				def = viper.GetDuration(env)
			}
			flags.DurationVarP(vt, cfg.Name, short, def, desc)
		default:
			log.Panicf("command-args parsing error: unhandled default case for type %T", vt)
		}

		_ = viper.BindPFlag(cfg.Name, flags.Lookup(cfg.Name))
		_ = viper.BindEnv(cfg.Name, env)

		if cfg.Hidden {
			_ = flags.MarkHidden(cfg.Name)
		}
	}
}
