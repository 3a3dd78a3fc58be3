package summary

import (
	"sort"

	"github.com/google/uuid"

	"github.com/caseline/caseline/testrun"
)

// MatrixRow is one case's statuses across a plan's runs, aligned with
// the matrix's run columns. An empty status marks a run that did not
// include the case.
type MatrixRow struct {
	CaseID   uuid.UUID                 `json:"case_id"`
	Statuses []testrun.ExecutionStatus `json:"statuses"`
}

// StatusMatrix is a case-by-run grid of execution statuses for one plan.
// Columns are runs oldest first; rows appear in the order cases first
// showed up in a run.
type StatusMatrix struct {
	PlanID uuid.UUID   `json:"plan_id"`
	RunIDs []uuid.UUID `json:"run_ids"`
	Rows   []MatrixRow `json:"rows"`
}

// CaseHealth aggregates one case's record across every run of a plan.
type CaseHealth struct {
	CaseID  uuid.UUID `json:"case_id"`
	Total   int       `json:"total"`
	Passed  int       `json:"passed"`
	Failed  int       `json:"failed"`
	Errored int       `json:"errored"`
}

// buildMatrix assembles the grid. Runs arrive in column order; execution
// order within a run decides row order on first sight.
func buildMatrix(planID uuid.UUID, runs []*testrun.TestRun, execs []*testrun.TestExecution) StatusMatrix {
	matrix := StatusMatrix{PlanID: planID}

	columns := make(map[uuid.UUID]int, len(runs))
	for i, run := range runs {
		columns[run.ID] = i
		matrix.RunIDs = append(matrix.RunIDs, run.ID)
	}

	rows := make(map[uuid.UUID]int)
	byRun := make(map[uuid.UUID][]*testrun.TestExecution, len(runs))
	for _, exec := range execs {
		byRun[exec.RunID] = append(byRun[exec.RunID], exec)
	}

	for _, run := range runs {
		for _, exec := range byRun[run.ID] {
			idx, ok := rows[exec.CaseID]
			if !ok {
				idx = len(matrix.Rows)
				rows[exec.CaseID] = idx
				matrix.Rows = append(matrix.Rows, MatrixRow{
					CaseID:   exec.CaseID,
					Statuses: make([]testrun.ExecutionStatus, len(runs)),
				})
			}
			matrix.Rows[idx].Statuses[columns[exec.RunID]] = exec.Status
		}
	}

	return matrix
}

// buildHealth tallies per-case records and orders them worst first.
// Cases that never failed or errored are omitted.
func buildHealth(execs []*testrun.TestExecution) []CaseHealth {
	tallies := make(map[uuid.UUID]*CaseHealth)
	order := make([]uuid.UUID, 0)

	for _, exec := range execs {
		health, ok := tallies[exec.CaseID]
		if !ok {
			health = &CaseHealth{CaseID: exec.CaseID}
			tallies[exec.CaseID] = health
			order = append(order, exec.CaseID)
		}
		health.Total++
		switch exec.Status {
		case testrun.ExecutionStatusPassed:
			health.Passed++
		case testrun.ExecutionStatusFailed:
			health.Failed++
		case testrun.ExecutionStatusError:
			health.Errored++
		}
	}

	out := make([]CaseHealth, 0, len(order))
	for _, caseID := range order {
		health := tallies[caseID]
		if health.Failed == 0 && health.Errored == 0 {
			continue
		}
		out = append(out, *health)
	}

	sort.SliceStable(out, func(i, j int) bool {
		bad := out[i].Failed + out[i].Errored
		other := out[j].Failed + out[j].Errored
		if bad != other {
			return bad > other
		}
		return out[i].Total > out[j].Total
	})

	return out
}
