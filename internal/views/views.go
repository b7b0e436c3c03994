package views

import (
	"context"
	"embed"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/antonio-alexander/go-employee-admin/internal"
	"github.com/antonio-alexander/go-employee-admin/internal/data"
	"github.com/antonio-alexander/go-employee-admin/internal/utilities"

	"github.com/flosch/pongo2/v4"
	"github.com/pkg/errors"
)

const (
	TemplateCreate  string = "employee.html"
	TemplateList    string = "all_employees.html"
	TemplateDetails string = "employee_details.html"
	TemplateUpdate  string = "update.html"
	TemplateDelete  string = "delete.html"
	TemplateSignin  string = "login.html"
	TemplateError   string = "error.html"
)

var Templates = []string{
	TemplateCreate,
	TemplateList,
	TemplateDetails,
	TemplateUpdate,
	TemplateDelete,
	TemplateSignin,
	TemplateError,
}

//go:embed templates/*.html
var templates embed.FS

func init() {
	if err := pongo2.RegisterFilter("salary", filterSalary); err != nil {
		panic(err)
	}
}

// filterSalary renders a salary with exactly two decimals
func filterSalary(value *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if salary, ok := value.Interface().(float64); ok {
		return pongo2.AsValue(data.FormatSalary(salary)), nil
	}
	return pongo2.AsValue(value.Interface()), nil
}

type Views interface {
	// Render executes the named template with the given context
	Render(w io.Writer, name string, context map[string]any) error
}

type views struct {
	sync.RWMutex
	utilities.Logger
	set    *pongo2.TemplateSet
	config struct {
		debug bool
	}
}

func NewViews(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Views
} {
	v := &views{Logger: utilities.NewNopLogger()}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			v.Logger = p
		}
	}
	return v
}

func (v *views) Configure(envs map[string]string) error {
	v.Lock()
	defer v.Unlock()

	if debug, ok := envs["VIEWS_DEBUG"]; ok {
		v.config.debug, _ = strconv.ParseBool(debug)
	}
	return nil
}

// Open parses every template so that a broken template fails at startup
// rather than on its first request.
func (v *views) Open(ctx context.Context) error {
	v.Lock()
	defer v.Unlock()

	loader, err := pongo2.NewHttpFileSystemLoader(http.FS(templates), "templates")
	if err != nil {
		return errors.Wrap(err, "unable to load templates")
	}
	set := pongo2.NewSet("employee-admin", loader)
	set.Debug = v.config.debug
	for _, name := range Templates {
		if _, err := set.FromCache(name); err != nil {
			return errors.Wrapf(err, "unable to parse template %s", name)
		}
	}
	v.set = set
	return nil
}

func (v *views) Close(ctx context.Context) error {
	return nil
}

func (v *views) Render(w io.Writer, name string, context map[string]any) error {
	v.RLock()
	defer v.RUnlock()

	if v.set == nil {
		return errors.New("views not opened")
	}
	template, err := v.set.FromCache(name)
	if err != nil {
		return errors.Wrapf(err, "unable to load template %s", name)
	}
	if err := template.ExecuteWriter(pongo2.Context(context), w); err != nil {
		return errors.Wrapf(err, "unable to render template %s", name)
	}
	return nil
}
