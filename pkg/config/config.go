package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Strum355/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"stevedore/pkg/backoff"
	"stevedore/pkg/deploy"
	"stevedore/pkg/service"
)

// Load wires defaults, an optional config file and the environment into
// viper. Keys map to environment variables with dots replaced by
// underscores, so stevedore.service.message becomes STEVEDORE_SERVICE_MESSAGE.
func Load(cfgFile string) error {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	loadDefaults()
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}

	viper.SetConfigName("stevedore")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		// No file in the working directory is fine, defaults and the
		// environment carry the run.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func loadDefaults() {
	viper.SetDefault("stevedore.service.name", "hello-web")
	viper.SetDefault("stevedore.service.context", "./app")
	viper.SetDefault("stevedore.service.container_port", 5000)
	viper.SetDefault("stevedore.service.published_port", 8080)
	viper.SetDefault("stevedore.service.message", "Hello, this is my simple web app deployed with Stevedore and Docker!")
	viper.SetDefault("stevedore.engine.host", "")
	viper.SetDefault("stevedore.engine.start_command", []string{"systemctl", "start", "docker"})
	viper.SetDefault("stevedore.engine.wait_timeout", 15*time.Second)
	viper.SetDefault("stevedore.engine.poll_interval", time.Second)
	viper.SetDefault("stevedore.verify.timeout", 10*time.Second)
	viper.SetDefault("stevedore.verify.interval", 500*time.Millisecond)
}

// Service assembles the deployable service's spec from the loaded settings.
func Service() service.Spec {
	return service.Spec{
		SrvName:       viper.GetString("stevedore.service.name"),
		ContextPath:   viper.GetString("stevedore.service.context"),
		ContainerPort: viper.GetInt("stevedore.service.container_port"),
		PublishedPort: viper.GetInt("stevedore.service.published_port"),
		Message:       viper.GetString("stevedore.service.message"),
	}
}

// EngineHost is the engine endpoint override; empty means use the
// environment (DOCKER_HOST and friends).
func EngineHost() string {
	return viper.GetString("stevedore.engine.host")
}

// DeployOptions assembles the orchestrator's wait budgets and the daemon
// start command from the loaded settings.
func DeployOptions() deploy.Options {
	return deploy.Options{
		StartCommand: viper.GetStringSlice("stevedore.engine.start_command"),
		EngineWait: backoff.Config{
			MaxWait:  viper.GetDuration("stevedore.engine.wait_timeout"),
			Interval: viper.GetDuration("stevedore.engine.poll_interval"),
		},
		VerifyWait: backoff.Config{
			MaxWait:  viper.GetDuration("stevedore.verify.timeout"),
			Interval: viper.GetDuration("stevedore.verify.interval"),
		},
	}
}

func PrintSettings() {
	settings := viper.AllSettings()

	out, _ := json.MarshalIndent(settings, "", "\t")
	log.Debug("config:\n" + string(out))
}

type fileService struct {
	Name          string `yaml:"name"`
	Context       string `yaml:"context"`
	ContainerPort int    `yaml:"container_port"`
	PublishedPort int    `yaml:"published_port"`
	Message       string `yaml:"message"`
}

type fileEngine struct {
	Host         string   `yaml:"host"`
	StartCommand []string `yaml:"start_command"`
	WaitTimeout  string   `yaml:"wait_timeout"`
	PollInterval string   `yaml:"poll_interval"`
}

type fileVerify struct {
	Timeout  string `yaml:"timeout"`
	Interval string `yaml:"interval"`
}

type fileConfig struct {
	Service fileService `yaml:"service"`
	Engine  fileEngine  `yaml:"engine"`
	Verify  fileVerify  `yaml:"verify"`
}

// WriteDefault renders the default configuration to path so a new project
// starts from a file it can edit. Refuses to clobber an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	cfg := map[string]fileConfig{
		"stevedore": {
			Service: fileService{
				Name:          viper.GetString("stevedore.service.name"),
				Context:       viper.GetString("stevedore.service.context"),
				ContainerPort: viper.GetInt("stevedore.service.container_port"),
				PublishedPort: viper.GetInt("stevedore.service.published_port"),
				Message:       viper.GetString("stevedore.service.message"),
			},
			Engine: fileEngine{
				Host:         viper.GetString("stevedore.engine.host"),
				StartCommand: viper.GetStringSlice("stevedore.engine.start_command"),
				WaitTimeout:  viper.GetDuration("stevedore.engine.wait_timeout").String(),
				PollInterval: viper.GetDuration("stevedore.engine.poll_interval").String(),
			},
			Verify: fileVerify{
				Timeout:  viper.GetDuration("stevedore.verify.timeout").String(),
				Interval: viper.GetDuration("stevedore.verify.interval").String(),
			},
		},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
