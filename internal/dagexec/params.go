package dagexec

import (
	"strings"

	"github.com/agentcore/orchestrator/pkg/core"
)

// resolveParams substitutes {{dep_id}} and {{previous}} placeholders in
// every string-valued parameter; non-string values pass through
// unchanged. {{previous}} resolves to the output of the last entry in
// depends_on.
func resolveParams(step core.Step, results map[string]core.StepResult) core.Params {
	if len(step.Parameters) == 0 {
		return step.Parameters
	}
	out := step.Parameters.Clone()
	for k, v := range out {
		s, ok := v.(string)
		if !ok || !strings.Contains(s, "{{") {
			continue
		}
		for _, dep := range step.DependsOn {
			res, ok := results[dep]
			if !ok {
				continue
			}
			s = strings.ReplaceAll(s, "{{"+dep+"}}", res.Output)
		}
		if len(step.DependsOn) > 0 {
			if res, ok := results[step.DependsOn[len(step.DependsOn)-1]]; ok {
				s = strings.ReplaceAll(s, "{{previous}}", res.Output)
			}
		}
		out[k] = s
	}
	return out
}
