package testkit

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

// Option tweaks how scenarios are executed.
type Option func(*runConfig)

type runConfig struct {
	vars map[string]string
}

// WithVars substitutes {{key}} in scenario URLs and header values.
func WithVars(vars map[string]string) Option {
	return func(c *runConfig) {
		for k, v := range vars {
			c.vars[k] = v
		}
	}
}

// Run executes a single scenario file against handler as a subtest.
func Run(t *testing.T, handler http.Handler, scenarioPath string, opts ...Option) {
	t.Helper()

	s, err := LoadScenario(scenarioPath)
	if err != nil {
		t.Fatalf("testkit: load scenario %q: %v", scenarioPath, err)
	}

	cfg := newRunConfig(opts)
	t.Run(s.Name, func(t *testing.T) {
		runScenario(t, handler, s, cfg)
	})
}

// RunDir runs every scenario in dir, in file-name order, as subtests. State
// carries over between scenarios, so a directory can describe a flow
// (01_register.json, 02_login.json, …).
func RunDir(t *testing.T, handler http.Handler, dir string, opts ...Option) {
	t.Helper()

	scenarios, errs := LoadAllFromDir(dir)
	for _, err := range errs {
		t.Error(err)
	}

	cfg := newRunConfig(opts)
	for _, s := range scenarios {
		s := s
		t.Run(s.Name, func(t *testing.T) {
			runScenario(t, handler, s, cfg)
		})
	}
}

func newRunConfig(opts []Option) *runConfig {
	cfg := &runConfig{vars: map[string]string{}}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

func (c *runConfig) expand(s string) string {
	for k, v := range c.vars {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}

func runScenario(t *testing.T, handler http.Handler, s *Scenario, cfg *runConfig) {
	t.Helper()

	var body io.Reader
	if p := s.RequestBodyPath(); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("[%s] read request file %q: %v", s.Name, p, err)
		}
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(s.RequestMethod, cfg.expand(s.RequestURL), body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range s.Headers {
		req.Header.Set(k, cfg.expand(v))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code)

	if p := s.ResponseBodyPath(); p != "" {
		expected, err := os.ReadFile(p)
		if err != nil {
			t.Errorf("[%s] read response file %q: %v", s.Name, p, err)
			return
		}
		AssertJSONBody(t, s, expected, rec.Body.Bytes())
	}
}
