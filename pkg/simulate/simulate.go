package simulate

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"github.com/user/vulnscan-adk/pkg/rules"
)

const DefaultTarget = "http://localhost:8080/index.php"

var ErrInvalidTarget = errors.New("simulate: target must be an absolute http(s) URL")

// Request describes a request a simulation would make. Nothing is sent.
type Request struct {
	RuleID      string
	Description string
	Method      rules.Method
	URL         string
	ContentType string // set for POST
	Body        string // form-encoded, POST only
	Payload     string
}

const requestTemplate = `{{.Method}} {{.URL}}{{if .Body}}
Content-Type: {{.ContentType}}

{{.Body}}{{end}}`

const planTemplate = `[SIMULATION PLAN] target={{.Target}} requests={{len .Requests}}
{{range $i, $r := .Requests}}
#{{inc $i}} {{$r.RuleID}}{{if $r.Description}} - {{$r.Description}}{{end}}
{{render $r}}
{{end}}`

var (
	requestTmpl = template.Must(template.New("request").Parse(requestTemplate))
	planTmpl    = template.Must(template.New("plan").Funcs(template.FuncMap{
		"inc":    func(i int) int { return i + 1 },
		"render": func(r Request) (string, error) { return r.Render() },
	}).Parse(planTemplate))
)

// Plan builds one request per payload of every simulation-only rule, in rule
// then payload order. An empty target uses DefaultTarget.
func Plan(target string, set rules.Set) ([]Request, error) {
	if target == "" {
		target = DefaultTarget
	}
	base, err := url.Parse(target)
	if err != nil || !base.IsAbs() || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}

	var out []Request
	for _, r := range set {
		if !r.SimulationOnly {
			continue
		}
		param := r.Parameter
		if param == "" {
			param = rules.DefaultParameter
		}
		for _, p := range r.Payloads {
			out = append(out, buildRequest(base, r, param, p))
		}
	}
	return out, nil
}

func buildRequest(base *url.URL, r rules.Rule, param, payload string) Request {
	req := Request{
		RuleID:      r.ID,
		Description: r.Description,
		Method:      r.Method,
		Payload:     payload,
	}
	values := url.Values{param: []string{payload}}
	u := *base
	if r.Method == rules.MethodPost {
		req.URL = u.String()
		req.ContentType = "application/x-www-form-urlencoded"
		req.Body = values.Encode()
		return req
	}
	req.Method = rules.MethodGet
	q := u.Query()
	q.Set(param, payload)
	u.RawQuery = q.Encode()
	req.URL = u.String()
	return req
}

// Render formats the request as an HTTP-like text block.
func (r Request) Render() (string, error) {
	return renderString(requestTmpl, r)
}

// RenderPlan formats a whole plan for display.
func RenderPlan(target string, reqs []Request) (string, error) {
	if target == "" {
		target = DefaultTarget
	}
	s, err := renderString(planTmpl, struct {
		Target   string
		Requests []Request
	}{target, reqs})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(s, "\n") + "\n", nil
}

func renderString(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
