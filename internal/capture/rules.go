package capture

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/xcwatch/xcwatch/internal/config"
	"github.com/xcwatch/xcwatch/internal/metrics"
	"github.com/xcwatch/xcwatch/internal/oslog"
	xcerrors "github.com/xcwatch/xcwatch/pkg/errors"
)

// ruleEnv is the environment a watch expression evaluates against. Field
// names are lowercased for the expression author:
//
//	level == "error" && message contains "timeout"
type ruleEnv struct {
	Level     string `expr:"level"`
	Process   string `expr:"process"`
	Subsystem string `expr:"subsystem"`
	Category  string `expr:"category"`
	Message   string `expr:"message"`
}

type compiledRule struct {
	name    string
	program *vm.Program
}

// RuleSet evaluates compiled watch rules against captured records.
type RuleSet struct {
	rules   []compiledRule
	onMatch func(rule string, rec oslog.Record)
}

// CompileRules compiles the configured watch rules. A rule that does not
// compile fails the whole set; a half-working watch list silently missing
// rules is worse than an error at startup.
func CompileRules(rules []config.WatchRule, onMatch func(rule string, rec oslog.Record)) (*RuleSet, error) {
	rs := &RuleSet{onMatch: onMatch}
	for _, rule := range rules {
		program, err := expr.Compile(rule.Expr, expr.Env(ruleEnv{}), expr.AsBool())
		if err != nil {
			return nil, xcerrors.NewRuleError(rule.Name, err)
		}
		rs.rules = append(rs.rules, compiledRule{name: rule.Name, program: program})
	}
	return rs, nil
}

// Len returns the number of compiled rules.
func (rs *RuleSet) Len() int { return len(rs.rules) }

func envFor(rec oslog.Record) ruleEnv {
	return ruleEnv{
		Level:     string(rec.Level),
		Process:   rec.Process,
		Subsystem: rec.Subsystem,
		Category:  rec.Category,
		Message:   rec.Message,
	}
}

// Observer returns an engine observer that evaluates every rule against
// each record. Evaluation errors skip the rule for that record.
func (rs *RuleSet) Observer() Observer {
	return func(rec oslog.Record) {
		env := envFor(rec)
		for _, rule := range rs.rules {
			output, err := expr.Run(rule.program, env)
			if err != nil {
				continue
			}
			if matched, ok := output.(bool); ok && matched {
				metrics.WatchRuleHits.WithLabelValues(rule.name).Inc()
				if rs.onMatch != nil {
					rs.onMatch(rule.name, rec)
				}
			}
		}
	}
}

// FilterExpr keeps the records for which the boolean expression holds. The
// expression sees the same environment as watch rules. A non-compiling or
// non-boolean expression is an error; per-record evaluation errors drop
// that record only.
func FilterExpr(records []oslog.Record, expression string) ([]oslog.Record, error) {
	program, err := expr.Compile(expression, expr.Env(ruleEnv{}), expr.AsBool())
	if err != nil {
		return nil, xcerrors.NewRuleError("filter", err)
	}

	var out []oslog.Record
	for _, rec := range records {
		output, err := expr.Run(program, envFor(rec))
		if err != nil {
			continue
		}
		if matched, ok := output.(bool); ok && matched {
			out = append(out, rec)
		}
	}
	return out, nil
}
