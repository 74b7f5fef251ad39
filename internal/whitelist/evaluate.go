package whitelist

// Result is the outcome of evaluating one participants field.
type Result struct {
	Participants   []string
	NonWhitelisted []string
}

// Alerting reports whether at least one participant is not whitelisted.
func (r Result) Alerting() bool {
	return len(r.NonWhitelisted) > 0
}

// Evaluate splits participants and collects the names, in input order and in
// their original form, whose normalized value is absent from the whitelist.
func Evaluate(participants string, whitelist, selfRefs []string) Result {
	candidates := SplitParticipants(participants)
	m := NewMatcher(whitelist, selfRefs)

	res := Result{Participants: candidates}
	for _, c := range candidates {
		if !m.Allowed(c) {
			res.NonWhitelisted = append(res.NonWhitelisted, c)
		}
	}
	return res
}
