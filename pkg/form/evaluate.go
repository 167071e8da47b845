package form

// Evaluate re-runs every dynamic property against the current values,
// looping until a pass changes nothing. Dynamic Value functions may rewrite
// the bag between passes without publishing. When anything changed a single
// change event is published and Evaluate returns true; callers forwarding an
// external "form changed" callback skip it for that pass.
func (f *Form) Evaluate() bool {
	before := f.Values()
	after, changed := f.evaluate()
	if changed {
		f.bus.Publish(EventChange, Event{Name: EventChange, NewValues: after, OldValues: before})
	}
	return changed
}

func (f *Form) evaluate() (Values, bool) {
	f.mu.RLock()
	current := f.values
	entries := append([]Entry(nil), f.all...)
	f.mu.RUnlock()

	rewrites := Values{}
	changed := false
	converged := false
	for pass := 0; pass < f.cfg.maxEvaluationPasses; pass++ {
		passChanged := false
		for _, entry := range entries {
			value, rewrite, propsChanged := entry.evaluate(current)
			if propsChanged {
				passChanged = true
			}
			if rewrite {
				current = current.Clone()
				current[entry.Name()] = value
				rewrites[entry.Name()] = value
				passChanged = true
			}
		}
		if !passChanged {
			converged = true
			break
		}
		changed = true
	}
	if !converged {
		f.logger.Warn("dynamic properties did not converge",
			"passes", f.cfg.maxEvaluationPasses)
	}
	if len(rewrites) == 0 {
		return current, changed
	}

	f.mu.Lock()
	next := f.values.Clone()
	for name, value := range rewrites {
		next[name] = value
	}
	f.values = next
	f.mu.Unlock()
	return next, changed
}
