package render

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"

	"github.com/samber/lo"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"

	"github.com/backupctl/backupctl/internal/cfg"
)

// ErrTemplateNotFound is returned when a template file is missing. It fires
// at construction time, before any API call.
var ErrTemplateNotFound = errors.New("render: template not found")

// Config names the template files, resolved once at startup.
type Config struct {
	PolicyPath        string
	BackupActionPath  string
	RestoreActionPath string
}

// ConfigFrom resolves the template file paths from configuration.
func ConfigFrom(t *cfg.TemplatesConfig) Config {
	return Config{
		PolicyPath:        filepath.Join(t.Dir.Val, t.Policy.Val),
		BackupActionPath:  filepath.Join(t.Dir.Val, t.BackupAction.Val),
		RestoreActionPath: filepath.Join(t.Dir.Val, t.RestoreAction.Val),
	}
}

// Renderer materializes resource documents from the on-disk templates.
// Templates are loaded once at construction and immutable afterwards.
// Rendering is a pure transformation, submission belongs to the caller.
type Renderer struct {
	policy        *template.Template
	backupAction  *template.Template
	restoreAction *template.Template
}

func New(cfg Config) (*Renderer, error) {
	policy, err := loadTemplate(cfg.PolicyPath)
	if err != nil {
		return nil, err
	}
	backupAction, err := loadTemplate(cfg.BackupActionPath)
	if err != nil {
		return nil, err
	}
	restoreAction, err := loadTemplate(cfg.RestoreActionPath)
	if err != nil {
		return nil, err
	}

	return &Renderer{policy: policy, backupAction: backupAction, restoreAction: restoreAction}, nil
}

func loadTemplate(path string) (*template.Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return nil, fmt.Errorf("render: read template %s: %w", path, err)
	}

	// missingkey=zero: an unbound placeholder renders as an empty field
	// rather than an error, the caller is deliberately permissive.
	tmpl, err := template.New(filepath.Base(path)).Option("missingkey=zero").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("render: parse template %s: %w", path, err)
	}
	return tmpl, nil
}

func execute(tmpl *template.Template, bindings map[string]string) (*unstructured.Unstructured, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, bindings); err != nil {
		return nil, fmt.Errorf("render: execute template %s: %w", tmpl.Name(), err)
	}

	var obj map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &obj); err != nil {
		return nil, fmt.Errorf("render: decode rendered %s: %w", tmpl.Name(), err)
	}
	return &unstructured.Unstructured{Object: obj}, nil
}

// PolicyBindings are the placeholders of the policy template plus the
// optional filter parameters injected structurally after rendering.
type PolicyBindings struct {
	Name              string
	Namespace         string
	IncludedNamespace string

	// Selector is one key=value pair or empty.
	Selector string
	// IncludedResources keeps the caller's order.
	IncludedResources []string
}

// Policy materializes a policy document. The optional label selector and
// resource filters are appended under their anchor fields only when present.
func (r *Renderer) Policy(b PolicyBindings) (*unstructured.Unstructured, error) {
	obj, err := execute(r.policy, map[string]string{
		"Name":              b.Name,
		"Namespace":         b.Namespace,
		"IncludedNamespace": b.IncludedNamespace,
	})
	if err != nil {
		return nil, err
	}

	if b.Selector != "" {
		key, value, err := ParseSelector(b.Selector)
		if err != nil {
			return nil, err
		}
		if err := appendSelectorExpression(obj, key, value); err != nil {
			return nil, err
		}
	}

	if len(b.IncludedResources) > 0 {
		if err := appendResourceFilters(obj, b.IncludedResources); err != nil {
			return nil, err
		}
	}

	return obj, nil
}

type BackupActionBindings struct {
	Name       string
	Namespace  string
	PolicyName string
}

func (r *Renderer) BackupAction(b BackupActionBindings) (*unstructured.Unstructured, error) {
	return execute(r.backupAction, map[string]string{
		"Name":       b.Name,
		"Namespace":  b.Namespace,
		"PolicyName": b.PolicyName,
	})
}

type RestoreActionBindings struct {
	Name             string
	AppNamespace     string
	RestorePointName string
}

func (r *Renderer) RestoreAction(b RestoreActionBindings) (*unstructured.Unstructured, error) {
	return execute(r.restoreAction, map[string]string{
		"Name":             b.Name,
		"AppNamespace":     b.AppNamespace,
		"RestorePointName": b.RestorePointName,
	})
}

func appendSelectorExpression(obj *unstructured.Unstructured, key, value string) error {
	path := []string{"spec", "selector", "matchExpressions"}

	exprs, _, err := unstructured.NestedSlice(obj.Object, path...)
	if err != nil {
		return fmt.Errorf("render: read selector expressions: %w", err)
	}

	exprs = append(exprs, map[string]any{
		"key":      key,
		"operator": "In",
		"values":   []any{value},
	})
	if err := unstructured.SetNestedSlice(obj.Object, exprs, path...); err != nil {
		return fmt.Errorf("render: set selector expressions: %w", err)
	}
	return nil
}

func appendResourceFilters(obj *unstructured.Unstructured, resources []string) error {
	path := []string{"spec", "filters", "includeResources"}

	entries, _, err := unstructured.NestedSlice(obj.Object, path...)
	if err != nil {
		return fmt.Errorf("render: read resource filters: %w", err)
	}

	entries = append(entries, lo.Map(resources, func(resource string, _ int) any {
		return map[string]any{"resource": resource}
	})...)
	if err := unstructured.SetNestedSlice(obj.Object, entries, path...); err != nil {
		return fmt.Errorf("render: set resource filters: %w", err)
	}
	return nil
}
