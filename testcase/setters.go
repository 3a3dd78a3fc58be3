package testcase

// SetSummary returns an UpdateSetter that sets the test case's summary.
func SetSummary(summary string) UpdateSetter {
	return func(tc *TestCase) error {
		if summary == "" {
			return ErrInvalidSummary
		}
		tc.Summary = summary
		return nil
	}
}

// SetSteps returns an UpdateSetter that replaces the test case's steps.
func SetSteps(steps Steps) UpdateSetter {
	return func(tc *TestCase) error {
		for _, step := range steps {
			if step.Action == "" {
				return ErrInvalidSteps
			}
		}
		tc.Steps = steps
		return nil
	}
}

// SetNotes returns an UpdateSetter that sets the test case's notes.
func SetNotes(notes string) UpdateSetter {
	return func(tc *TestCase) error {
		tc.Notes = notes
		return nil
	}
}
