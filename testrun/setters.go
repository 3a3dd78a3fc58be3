package testrun

import "github.com/google/uuid"

// SetBuild returns an UpdateSetter that sets the build under test.
func SetBuild(build string) UpdateSetter {
	return func(tr *TestRun) error {
		tr.Build = build
		return nil
	}
}

// SetSummary returns an UpdateSetter that sets the test run's summary.
func SetSummary(summary string) UpdateSetter {
	return func(tr *TestRun) error {
		if summary == "" {
			return ErrInvalidSummary
		}
		tr.Summary = summary
		return nil
	}
}

// SetEnvironment returns an UpdateSetter that points the run at an environment.
func SetEnvironment(environmentID uuid.UUID) UpdateSetter {
	return func(tr *TestRun) error {
		tr.EnvironmentID = &environmentID
		return nil
	}
}

// ClearEnvironment returns an UpdateSetter that detaches the run from its environment.
func ClearEnvironment() UpdateSetter {
	return func(tr *TestRun) error {
		tr.EnvironmentID = nil
		return nil
	}
}
