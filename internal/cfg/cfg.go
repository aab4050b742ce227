package cfg

import (
	"reflect"
)

type Resolver interface {
	Resolve(*source) error
}

func resolve(s *source, rs ...Resolver) error {
	for _, r := range rs {
		if err := r.Resolve(s); err != nil {
			return err
		}
	}
	return nil
}

type Config struct {
	Log       LogConfig
	Kube      KubeConfig
	Operator  OperatorConfig
	Templates TemplatesConfig
	Await     AwaitConfig
}

func New() *Config {
	return &Config{
		Log:       newLogConfig(),
		Kube:      newKubeConfig(),
		Operator:  newOperatorConfig(),
		Templates: newTemplatesConfig(),
		Await:     newAwaitConfig(),
	}
}

func (c *Config) Resolve(s *source) error {
	return resolve(s, &c.Log, &c.Kube, &c.Operator, &c.Templates, &c.Await)
}

func (c *Config) Entries() []Entry {
	var (
		entries       []Entry
		displayerType = reflect.TypeOf((*Displayer)(nil)).Elem()
		collect       func(v reflect.Value, prefix string)
	)

	collect = func(v reflect.Value, prefix string) {
		t := v.Type()
		for i := range v.NumField() {
			field := v.Field(i)
			name := t.Field(i).Name
			if prefix != "" {
				name = prefix + "." + name
			}

			if field.Addr().Type().Implements(displayerType) {
				entries = append(entries, field.Addr().Interface().(Displayer).Display(name))
				continue
			}

			if field.Kind() == reflect.Struct {
				collect(field, name)
			}
		}
	}

	collect(reflect.ValueOf(c).Elem(), "")
	return entries
}

type LogFileConfig struct {
	Filename   Value[string]
	MaxSize    Value[int]
	MaxDays    Value[int]
	MaxBackups Value[int]
}

type LogConfig struct {
	Level   Value[string]
	Console Value[bool]
	File    LogFileConfig
}

func newLogConfig() LogConfig {
	return LogConfig{
		Level:   Value[string]{Default: "info", Keys: []string{"log.level"}, EnvKeys: []string{"BACKUPCTL_LOG_LEVEL"}},
		Console: Value[bool]{Default: true, Keys: []string{"log.console"}},
		File: LogFileConfig{
			Filename:   Value[string]{Default: "", Keys: []string{"log.file.filename"}},
			MaxSize:    Value[int]{Default: 300, Keys: []string{"log.file.maxSize"}},
			MaxDays:    Value[int]{Default: 0, Keys: []string{"log.file.maxDays"}},
			MaxBackups: Value[int]{Default: 0, Keys: []string{"log.file.maxBackups"}},
		},
	}
}

func (c *LogConfig) Resolve(s *source) error {
	return resolve(s, &c.Level, &c.Console, &c.File.Filename, &c.File.MaxSize, &c.File.MaxDays, &c.File.MaxBackups)
}

type KubeConfig struct {
	Kubeconfig Value[string]
	Context    Value[string]
}

func newKubeConfig() KubeConfig {
	return KubeConfig{
		Kubeconfig: Value[string]{Default: "", Keys: []string{"kube.kubeconfig"}, EnvKeys: []string{"KUBECONFIG"}},
		Context:    Value[string]{Default: "", Keys: []string{"kube.context"}, EnvKeys: []string{"BACKUPCTL_KUBE_CONTEXT"}},
	}
}

func (c *KubeConfig) Resolve(s *source) error {
	return resolve(s, &c.Kubeconfig, &c.Context)
}

type OperatorConfig struct {
	Namespace        Value[string]
	MinServerVersion Value[string]
}

func newOperatorConfig() OperatorConfig {
	return OperatorConfig{
		Namespace:        Value[string]{Default: "kasten-io", Keys: []string{"operator.namespace"}, EnvKeys: []string{"BACKUPCTL_OPERATOR_NAMESPACE"}},
		MinServerVersion: Value[string]{Default: ">=1.21.0-0", Keys: []string{"operator.minServerVersion"}},
	}
}

func (c *OperatorConfig) Resolve(s *source) error {
	return resolve(s, &c.Namespace, &c.MinServerVersion)
}

type TemplatesConfig struct {
	Dir           Value[string]
	Policy        Value[string]
	BackupAction  Value[string]
	RestoreAction Value[string]
}

func newTemplatesConfig() TemplatesConfig {
	return TemplatesConfig{
		Dir:           Value[string]{Default: "configs/templates", Keys: []string{"templates.dir"}, EnvKeys: []string{"BACKUPCTL_TEMPLATES_DIR"}},
		Policy:        Value[string]{Default: "policy.yaml", Keys: []string{"templates.policy"}},
		BackupAction:  Value[string]{Default: "backup-action.yaml", Keys: []string{"templates.backupAction"}},
		RestoreAction: Value[string]{Default: "restore-action.yaml", Keys: []string{"templates.restoreAction"}},
	}
}

func (c *TemplatesConfig) Resolve(s *source) error {
	return resolve(s, &c.Dir, &c.Policy, &c.BackupAction, &c.RestoreAction)
}

// AwaitConfig holds the completion-poller settings. All values are
// time.ParseDuration strings so they stay overridable from env and --set.
type AwaitConfig struct {
	Interval             Value[string]
	PolicyTimeout        Value[string]
	BackupActionTimeout  Value[string]
	RestoreActionTimeout Value[string]
}

func newAwaitConfig() AwaitConfig {
	return AwaitConfig{
		Interval:             Value[string]{Default: "5s", Keys: []string{"await.interval"}, EnvKeys: []string{"BACKUPCTL_AWAIT_INTERVAL"}},
		PolicyTimeout:        Value[string]{Default: "60s", Keys: []string{"await.policyTimeout"}},
		BackupActionTimeout:  Value[string]{Default: "120s", Keys: []string{"await.backupActionTimeout"}},
		RestoreActionTimeout: Value[string]{Default: "120s", Keys: []string{"await.restoreActionTimeout"}},
	}
}

func (c *AwaitConfig) Resolve(s *source) error {
	return resolve(s, &c.Interval, &c.PolicyTimeout, &c.BackupActionTimeout, &c.RestoreActionTimeout)
}
