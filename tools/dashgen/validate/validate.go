// Package validate checks generated dashboards and rule files for PromQL
// that does not parse or that references metrics effluent-watch never
// exports.
package validate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/effluent-watch/tools/dashgen/rules"
)

// Result collects validation findings. Errors fail generation; warnings are
// reported but do not.
type Result struct {
	Errors   []error
	Warnings []string
}

// Ok reports whether no errors were found.
func (r *Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Errorf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Dashboard validates every "expr" found in the JSON form of dash.
func Dashboard(dash any, known map[string]bool) *Result {
	res := &Result{}

	data, err := json.Marshal(dash)
	if err != nil {
		res.errorf("encoding dashboard: %w", err)
		return res
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		res.errorf("decoding dashboard: %w", err)
		return res
	}

	exprs := collectExprs(doc, nil)
	if len(exprs) == 0 {
		res.warnf("dashboard has no query expressions")
	}
	for _, expr := range exprs {
		checkExpr(res, "dashboard", expr, known)
	}
	return res
}

// Rules validates the expressions and record names of a PrometheusRule.
// Record names defined by the rule set count as known for its own alerts.
func Rules(cr rules.PrometheusRule, known map[string]bool) *Result {
	res := &Result{}

	names := make(map[string]bool, len(known))
	for k, v := range known {
		names[k] = v
	}
	for _, r := range cr.AllRules() {
		if r.Record != "" {
			names[r.Record] = true
		}
	}

	for _, g := range cr.Spec.Groups {
		if len(g.Rules) == 0 {
			res.warnf("group %s has no rules", g.Name)
		}
		for _, r := range g.Rules {
			switch {
			case r.Record != "" && r.Alert != "":
				res.errorf("rule %s: record and alert are mutually exclusive", r.Record)
			case r.Record == "" && r.Alert == "":
				res.errorf("group %s: rule has neither record nor alert", g.Name)
			case r.Record != "" && strings.Count(r.Record, ":") != 2:
				res.warnf("record %s does not follow level:metric:operations", r.Record)
			}
			checkExpr(res, ruleName(r), r.Expr, names)
		}
	}
	return res
}

func ruleName(r rules.Rule) string {
	if r.Alert != "" {
		return r.Alert
	}
	return r.Record
}

// collectExprs walks a decoded JSON document and returns every string value
// stored under an "expr" key.
func collectExprs(node any, out []string) []string {
	switch v := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := v[k].(string); ok && k == "expr" {
				out = append(out, s)
				continue
			}
			out = collectExprs(v[k], out)
		}
	case []any:
		for _, item := range v {
			out = collectExprs(item, out)
		}
	}
	return out
}

func checkExpr(res *Result, where, expr string, known map[string]bool) {
	if strings.TrimSpace(expr) == "" {
		res.errorf("%s: empty expression", where)
		return
	}

	parsed, err := parser.ParseExpr(expr)
	if err != nil {
		res.errorf("%s: parsing %q: %w", where, expr, err)
		return
	}

	var selectors int
	parser.Inspect(parsed, func(node parser.Node, _ []parser.Node) error {
		vs, ok := node.(*parser.VectorSelector)
		if !ok {
			return nil
		}
		selectors++
		if vs.Name != "" && !known[vs.Name] {
			res.errorf("%s: unknown metric %q in %q", where, vs.Name, expr)
		}
		return nil
	})
	if selectors == 0 {
		res.warnf("%s: expression %q selects no series", where, expr)
	}
}
